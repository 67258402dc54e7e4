// Package highlight watches subprocess output for lines matching the
// configured interest patterns and reports them through the console, per
// §4.3 and match_patterns in the original scans module.
package highlight

import (
	"regexp"

	"github.com/welchbj/bscan/internal/console"
)

// Highlighter scans lines against a single compiled alternation of every
// built-in and user-supplied pattern (config.Config.Patterns), emphasizing
// whatever portion of the line matched.
type Highlighter struct {
	re *regexp.Regexp
}

// New wraps the fully-compiled pattern alternation produced by config.Load.
func New(re *regexp.Regexp) *Highlighter {
	return &Highlighter{re: re}
}

// Highlight inspects line for a pattern match and, if found, prints it via
// console.Pattern with the matched span emphasized. Non-matching lines are
// silently ignored; this is a side-effecting sink, not a filter the caller
// needs to branch on.
func (h *Highlighter) Highlight(target, line string) {
	if h == nil || h.re == nil {
		return
	}
	locs := h.re.FindAllStringIndex(line, -1)
	if locs == nil {
		return
	}
	console.Pattern(target, console.Highlight(line, locs))
}
