package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/welchbj/bscan/internal/config"
	"github.com/welchbj/bscan/internal/highlight"
	"github.com/welchbj/bscan/internal/portscan"
	"github.com/welchbj/bscan/internal/runtime"
	"github.com/welchbj/bscan/internal/supervisor"
	"github.com/welchbj/bscan/internal/taxonomy"
)

func testDeps(t *testing.T, outputDir string) Deps {
	t.Helper()

	portLine := regexp.MustCompile(`(?P<port>\d+)\s+(?P<name>\w+)`)

	cfg := &config.Config{
		OutputDir: outputDir,
		QuickScan: portscan.Method{
			Name:    "quick",
			Pattern: portLine,
			Scan:    "echo '22 ssh'",
		},
		ThoroughScan: portscan.Method{
			Name:    "thorough",
			Pattern: portLine,
			Scan:    "printf '22 ssh\\n80 http\\n'",
		},
		Services: []taxonomy.ProtocolRule{
			{
				Protocol:     "ssh",
				ServiceNames: []string{"ssh"},
				Scans:        []taxonomy.ScanTemplate{{ID: "banner", Template: "echo banner-<target>-<port>"}},
				Recommendations: []string{"hydra ssh://<target>:<port>"},
			},
			{
				Protocol:     "http",
				ServiceNames: []string{"http"},
				Scans:        []taxonomy.ScanTemplate{{ID: "nikto", Template: "echo nikto-<target>-<port>"}},
			},
		},
	}

	return Deps{
		Config:      cfg,
		Supervisor:  supervisor.New(8, 80),
		Runtime:     runtime.New(),
		Highlighter: highlight.New(nil),
	}
}

func TestRunTargetCreatesSkeletonAndRecommendations(t *testing.T) {
	dir := t.TempDir()
	deps := testDeps(t, dir)

	if err := RunTarget(context.Background(), deps, "10.0.0.1"); err != nil {
		t.Fatalf("RunTarget() error = %v", err)
	}

	base := filepath.Join(dir, "10.0.0.1.bscan.d")
	if _, err := os.Stat(base); err != nil {
		t.Fatalf("expected base dir to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "services")); err != nil {
		t.Errorf("expected services dir to exist: %v", err)
	}

	recs, err := os.ReadFile(filepath.Join(base, "recommendations.txt"))
	if err != nil {
		t.Fatalf("expected recommendations.txt to exist: %v", err)
	}
	if !strings.Contains(string(recs), "ssh") {
		t.Errorf("expected ssh recommendations, got %q", recs)
	}
}

func TestRunTargetRejectsDoubleAdmission(t *testing.T) {
	dir := t.TempDir()
	deps := testDeps(t, dir)

	if !deps.Runtime.Admit("10.0.0.2") {
		t.Fatal("expected initial admit to succeed")
	}
	defer deps.Runtime.Retire("10.0.0.2")

	err := RunTarget(context.Background(), deps, "10.0.0.2")
	if err == nil {
		t.Fatal("expected an error for an already-active target")
	}
}

func TestRunAdmittedTargetRunsAfterSynchronousAdmit(t *testing.T) {
	dir := t.TempDir()
	deps := testDeps(t, dir)

	if !deps.Runtime.Admit("10.0.0.6") {
		t.Fatal("expected synchronous admit to succeed")
	}

	if err := RunAdmittedTarget(context.Background(), deps, "10.0.0.6"); err != nil {
		t.Fatalf("RunAdmittedTarget() error = %v", err)
	}

	if deps.Runtime.Admit("10.0.0.6") != true {
		t.Fatal("expected the target to have been retired, allowing re-admission")
	}
}

func TestRunTargetSkipsExistingDirWithoutHard(t *testing.T) {
	dir := t.TempDir()
	deps := testDeps(t, dir)

	if err := os.MkdirAll(filepath.Join(dir, "10.0.0.3.bscan.d"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := RunTarget(context.Background(), deps, "10.0.0.3")
	if err == nil {
		t.Fatal("expected a skip error for a pre-existing target directory")
	}
}

func TestRunTargetRunsUDPScanWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	deps := testDeps(t, dir)
	deps.Config.UDP = true
	deps.Config.UDPScan = portscan.Method{
		Name:    "udp",
		Pattern: regexp.MustCompile(`(?P<port>\d+)\s+(?P<name>\w+)`),
		Scan:    "echo '53 dns' | tee <fout> >/dev/null",
	}

	if err := RunTarget(context.Background(), deps, "10.0.0.4"); err != nil {
		t.Fatalf("RunTarget() error = %v", err)
	}

	fout := filepath.Join(dir, "10.0.0.4.bscan.d", "services", "udp.udp")
	out, err := os.ReadFile(fout)
	if err != nil {
		t.Fatalf("expected the udp scan to have run and produced %s: %v", fout, err)
	}
	if !strings.Contains(string(out), "53 dns") {
		t.Errorf("udp scan output = %q, want it to contain '53 dns'", out)
	}
}

func TestRunTargetSkipsUDPScanWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	deps := testDeps(t, dir)
	deps.Config.UDP = false
	deps.Config.UDPScan = portscan.Method{
		Name:    "udp",
		Pattern: regexp.MustCompile(`(?P<port>\d+)\s+(?P<name>\w+)`),
		Scan:    "echo '53 dns' | tee <fout> >/dev/null",
	}

	if err := RunTarget(context.Background(), deps, "10.0.0.5"); err != nil {
		t.Fatalf("RunTarget() error = %v", err)
	}

	fout := filepath.Join(dir, "10.0.0.5.bscan.d", "services", "udp.udp")
	if _, err := os.Stat(fout); !os.IsNotExist(err) {
		t.Errorf("expected no udp scan output file when --udp is unset, stat err = %v", err)
	}
}

func TestSetDiffAndSetToSliceAreDeterministic(t *testing.T) {
	a := map[taxonomy.ParsedService]struct{}{
		{Name: "ssh", Port: 22}: {},
	}
	b := map[taxonomy.ParsedService]struct{}{
		{Name: "ssh", Port: 22}:  {},
		{Name: "http", Port: 80}: {},
	}

	diff := setDiff(b, a)
	if len(diff) != 1 || diff[0].Name != "http" {
		t.Errorf("setDiff() = %+v, want [{http 80}]", diff)
	}

	slice := setToSlice(b)
	if len(slice) != 2 || slice[0].Name != "http" || slice[1].Name != "ssh" {
		t.Errorf("setToSlice() = %+v, want name-sorted [http ssh]", slice)
	}
}
