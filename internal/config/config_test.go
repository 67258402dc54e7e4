package config

import (
	"os"
	"testing"
)

func TestLoadDefaultsWithNoFileCheck(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(Flags{OutputDir: wd, NoFileCheck: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.QuickScan.Name != "unicornscan" {
		t.Errorf("quick scan default = %s, want unicornscan", cfg.QuickScan.Name)
	}
	if cfg.ThoroughScan.Name != "nmap-all-tcp" {
		t.Errorf("thorough scan default = %s, want nmap-all-tcp", cfg.ThoroughScan.Name)
	}
	if cfg.UDPScan.Name != "nmap-top-udp" {
		t.Errorf("udp scan default = %s, want nmap-top-udp", cfg.UDPScan.Name)
	}
	if cfg.CmdPrintWidth != 80 {
		t.Errorf("cmd print width = %d, want 80", cfg.CmdPrintWidth)
	}
	if cfg.MaxConcurrency != 20 {
		t.Errorf("max concurrency = %d, want 20", cfg.MaxConcurrency)
	}
	if len(cfg.Services) == 0 {
		t.Errorf("expected service taxonomy to be populated")
	}
	if len(cfg.Shells) == 0 {
		t.Errorf("expected reverse shells to be populated")
	}
}

func TestLoadRejectsPingSweep(t *testing.T) {
	wd, _ := os.Getwd()
	_, err := Load(Flags{OutputDir: wd, NoFileCheck: true, PingSweep: true})
	if err == nil {
		t.Fatal("expected an error for --ping-sweep")
	}
}

func TestLoadRejectsMethodNamedDefault(t *testing.T) {
	wd, _ := os.Getwd()
	_, err := Load(Flags{OutputDir: wd, NoFileCheck: true, QSMethod: "default"})
	if err == nil {
		t.Fatal("expected an error for --qs-method default")
	}
}

func TestLoadRejectsUnknownMethod(t *testing.T) {
	wd, _ := os.Getwd()
	_, err := Load(Flags{OutputDir: wd, NoFileCheck: true, TSMethod: "does-not-exist"})
	if err == nil {
		t.Fatal("expected an error for an unknown --ts-method")
	}
}

func TestLoadRejectsMissingOutputDir(t *testing.T) {
	_, err := Load(Flags{OutputDir: "/path/does/not/exist", NoFileCheck: true})
	if err == nil {
		t.Fatal("expected an error for a missing --output-dir")
	}
}

func TestLoadAppendsUserPatterns(t *testing.T) {
	wd, _ := os.Getwd()
	cfg, err := Load(Flags{OutputDir: wd, NoFileCheck: true, Patterns: []string{"my-custom-marker"}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Patterns.MatchString("my-custom-marker") {
		t.Errorf("expected compiled patterns to include the user-supplied pattern")
	}
}
