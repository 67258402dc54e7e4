package portscan

import (
	"context"
	"regexp"
	"testing"

	"github.com/welchbj/bscan/internal/taxonomy"
)

type fakeLines struct {
	lines []string
	i     int
}

func (f *fakeLines) Next() (string, bool) {
	if f.i >= len(f.lines) {
		return "", false
	}
	line := f.lines[f.i]
	f.i++
	return line, true
}

type fakeSpawner struct {
	cmd   string
	lines []string
}

func (f *fakeSpawner) Spawn(ctx context.Context, cmd string) (Lines, error) {
	f.cmd = cmd
	return &fakeLines{lines: f.lines}, nil
}

func TestRunParsesMatchingLines(t *testing.T) {
	m := Method{
		Name:    "nmap-top1000",
		Pattern: regexp.MustCompile(`^(?P<port>\d+)/tcp\s+open\s+(?P<name>\S+?)\??(\s|$)`),
		Scan:    "nmap <target> -oN \"<fout>\"",
	}
	sp := &fakeSpawner{lines: []string{
		"Nmap scan report for 10.0.0.1",
		"22/tcp   open  ssh",
		"80/tcp   open  http",
		"not a port line",
	}}

	got, err := Run(context.Background(), sp, nil, "10.0.0.1", "/tmp/out", m)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := map[taxonomy.ParsedService]struct{}{
		{Name: "ssh", Port: 22}:  {},
		{Name: "http", Port: 80}: {},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k := range want {
		if _, ok := got[k]; !ok {
			t.Errorf("missing expected service %+v in %v", k, got)
		}
	}

	if sp.cmd != "nmap 10.0.0.1 -oN \"/tmp/out\"" {
		t.Errorf("unexpected rendered command: %s", sp.cmd)
	}
}

func TestRunIgnoresMalformedCaptureGroups(t *testing.T) {
	m := Method{Name: "broken", Pattern: regexp.MustCompile(`no named groups here`), Scan: "echo <target>"}
	sp := &fakeSpawner{lines: []string{"some output"}}

	got, err := Run(context.Background(), sp, nil, "t", "/tmp/out", m)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no services parsed, got %v", got)
	}
}
