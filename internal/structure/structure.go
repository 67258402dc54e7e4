// Package structure creates and locates a target's on-disk output
// skeleton: `<output-dir>/<target>.bscan.d/` and its notes, recommendations,
// loot, services, and sploits children, per §6 of SPEC_FULL.md and the
// original project's dir_gen.py/dir_structure.py.
package structure

import (
	"os"
	"path/filepath"

	"github.com/welchbj/bscan/internal/bscanerr"
	"github.com/welchbj/bscan/internal/console"
)

// Paths resolves every path under one target's base directory.
type Paths struct {
	outputDir string
	target    string
}

// New returns the Paths helper for target under outputDir.
func New(outputDir, target string) Paths {
	return Paths{outputDir: outputDir, target: target}
}

// Base is `<output-dir>/<target>.bscan.d`.
func (p Paths) Base() string {
	return filepath.Join(p.outputDir, p.target+".bscan.d")
}

// NotesTxt is the base directory's notes.txt.
func (p Paths) NotesTxt() string { return filepath.Join(p.Base(), "notes.txt") }

// RecommendationsTxt is the base directory's recommendations.txt.
func (p Paths) RecommendationsTxt() string { return filepath.Join(p.Base(), "recommendations.txt") }

// ServicesDir holds every per-service scan's output files.
func (p Paths) ServicesDir() string { return filepath.Join(p.Base(), "services") }

// SploitsDir is scratch space for exploit artifacts a user drops in.
func (p Paths) SploitsDir() string { return filepath.Join(p.Base(), "sploits") }

// LootDir holds proof.txt and local.txt.
func (p Paths) LootDir() string { return filepath.Join(p.Base(), "loot") }

// ProofTxt is the loot directory's proof.txt.
func (p Paths) ProofTxt() string { return filepath.Join(p.LootDir(), "proof.txt") }

// LocalTxt is the loot directory's local.txt.
func (p Paths) LocalTxt() string { return filepath.Join(p.LootDir(), "local.txt") }

// ScanFile resolves a target-relative output file name (e.g.
// "services/http.80.nikto", as produced by taxonomy.CmdPlan.OutputFile) to
// its absolute path under the base directory.
func (p Paths) ScanFile(relName string) string {
	return filepath.Join(p.Base(), relName)
}

// Exists reports whether relName (target-relative, as used by
// taxonomy.TemplateContext.Exists) already exists under the base directory.
func (p Paths) Exists(relName string) bool {
	_, err := os.Stat(p.ScanFile(relName))
	return err == nil
}

// CreateSkeleton builds the full directory skeleton for target. If the base
// directory already exists and hard is false, it returns a
// *bscanerr.SkipTargetError so the caller can skip this target without
// aborting the whole run; if hard is true, the existing directory is removed
// first.
func CreateSkeleton(p Paths, hard bool) error {
	console.Info(1, p.target, "beginning creation of directory structure")

	base := p.Base()
	if info, err := os.Stat(base); err == nil && info.IsDir() {
		if !hard {
			return bscanerr.NewSkipTargetError(p.target,
				"base directory %s already exists, use --hard to force overwrite", base)
		}
		console.Warn(1, p.target, "removing existing base directory ", base)
		if err := os.RemoveAll(base); err != nil {
			return bscanerr.NewInternalError("removing %s: %v", base, err)
		}
	}

	console.Info(1, p.target, "creating base directory at ", base)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return bscanerr.NewInternalError("creating %s: %v", base, err)
	}

	console.Info(2, p.target, "creating notes.txt file at ", p.NotesTxt())
	if err := touch(p.NotesTxt()); err != nil {
		return err
	}
	console.Info(2, p.target, "creating recommendations.txt file at ", p.RecommendationsTxt())
	if err := touch(p.RecommendationsTxt()); err != nil {
		return err
	}

	console.Info(2, p.target, "creating loot directory at ", p.LootDir())
	if err := os.MkdirAll(p.LootDir(), 0o755); err != nil {
		return bscanerr.NewInternalError("creating %s: %v", p.LootDir(), err)
	}
	console.Info(3, p.target, "creating proof.txt file at ", p.ProofTxt())
	if err := touch(p.ProofTxt()); err != nil {
		return err
	}
	console.Info(3, p.target, "creating local.txt file at ", p.LocalTxt())
	if err := touch(p.LocalTxt()); err != nil {
		return err
	}

	console.Info(2, p.target, "creating services directory at ", p.ServicesDir())
	if err := os.MkdirAll(p.ServicesDir(), 0o755); err != nil {
		return bscanerr.NewInternalError("creating %s: %v", p.ServicesDir(), err)
	}

	console.Info(2, p.target, "creating sploits directory at ", p.SploitsDir())
	if err := os.MkdirAll(p.SploitsDir(), 0o755); err != nil {
		return bscanerr.NewInternalError("creating %s: %v", p.SploitsDir(), err)
	}

	console.Info(1, p.target, "successfully completed directory skeleton setup")
	return nil
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return bscanerr.NewInternalError("creating %s: %v", path, err)
	}
	return f.Close()
}

// AppendLine appends line (with a trailing newline) to path, creating it if
// necessary. Used for recommendations.txt writes from the pipeline.
func AppendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return bscanerr.NewInternalError("appending to %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return bscanerr.NewInternalError("appending to %s: %v", path, err)
	}
	return nil
}
