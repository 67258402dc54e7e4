package wordlists

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindLocatesNestedFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "rockyou")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(nested, "rockyou.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, ok := Find([]string{root}, "rockyou.txt")
	if !ok {
		t.Fatal("expected to find rockyou.txt")
	}
	if found != target {
		t.Errorf("found %s, want %s", found, target)
	}
}

func TestFindReturnsExistingPathUnmodified(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "wl")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	found, ok := Find(nil, f.Name())
	if !ok || found != f.Name() {
		t.Errorf("Find() = (%s, %v), want (%s, true)", found, ok, f.Name())
	}
}

func TestFindReportsMissing(t *testing.T) {
	if _, ok := Find([]string{t.TempDir()}, "nope.txt"); ok {
		t.Error("expected Find to report false for a nonexistent file")
	}
}
