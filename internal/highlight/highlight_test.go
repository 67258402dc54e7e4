package highlight

import (
	"regexp"
	"testing"
)

func TestHighlightIsSafeOnNilHighlighter(t *testing.T) {
	var h *Highlighter
	h.Highlight("target", "anything") // must not panic
}

func TestHighlightMatchesWithoutPanicking(t *testing.T) {
	h := New(regexp.MustCompile(`(?i)password`))
	h.Highlight("target", "found a password in cleartext")
	h.Highlight("target", "nothing interesting here")
}
