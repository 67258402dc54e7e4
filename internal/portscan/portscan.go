// Package portscan runs one configured port-scan method (quick, thorough,
// or UDP) and parses its streamed output into a set of observed services,
// per §4.3 of SPEC_FULL.md.
package portscan

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/welchbj/bscan/internal/console"
	"github.com/welchbj/bscan/internal/taxonomy"
)

// Stage names the three port-scan passes, used to build the output file
// name `<stage>.<method name>`.
type Stage string

const (
	StageQuick    Stage = "tcp.quickscan"
	StageThorough Stage = "tcp.thorough"
	StageUDP      Stage = "udp"
)

// Method is one named port-scan configuration: a command template and a
// capture regex with named groups "name" and "port".
type Method struct {
	Name    string
	Pattern *regexp.Regexp
	Scan    string
}

// LineSpawner is the subset of the subprocess supervisor a port-scan method
// needs: spawn a shell command and stream its output line by line.
type LineSpawner interface {
	Spawn(ctx context.Context, cmd string) (Lines, error)
}

// Lines is a line-oriented asynchronous output stream, as produced by the
// subprocess supervisor (which merges stdout and stderr into it).
type Lines interface {
	Next() (line string, ok bool)
}

// Run executes m against target, streaming its output through the pattern
// highlighter and collecting every line that matches m.Pattern into a set of
// ParsedService. fout is the output file path substituted verbatim for
// <fout> in m.Scan; the pipeline passes an absolute path under the target's
// base directory.
func Run(ctx context.Context, sup LineSpawner, hl Highlighter, target, fout string, m Method) (map[taxonomy.ParsedService]struct{}, error) {
	cmd := renderScanCmd(m.Scan, target, fout)
	lines, err := sup.Spawn(ctx, cmd)
	if err != nil {
		return nil, err
	}

	services := make(map[taxonomy.ParsedService]struct{})
	nameIdx, portIdx := groupIndices(m.Pattern)
	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		if hl != nil {
			hl.Highlight(target, line)
		}
		if nameIdx < 0 || portIdx < 0 {
			continue
		}
		sub := m.Pattern.FindStringSubmatch(line)
		if sub == nil {
			continue
		}
		port, err := strconv.Atoi(sub[portIdx])
		if err != nil {
			continue
		}
		services[taxonomy.ParsedService{Name: sub[nameIdx], Port: port}] = struct{}{}
	}
	return services, nil
}

// Highlighter is implemented by internal/highlight.Highlighter; kept as an
// interface here so portscan does not import highlight directly.
type Highlighter interface {
	Highlight(target, line string)
}

func renderScanCmd(tmpl, target, fout string) string {
	cmd := strings.ReplaceAll(tmpl, "<target>", target)
	cmd = strings.ReplaceAll(cmd, "<fout>", fout)
	return cmd
}

func groupIndices(re *regexp.Regexp) (nameIdx, portIdx int) {
	nameIdx, portIdx = -1, -1
	for i, n := range re.SubexpNames() {
		switch n {
		case "name":
			nameIdx = i
		case "port":
			portIdx = i
		}
	}
	return
}

// WarnInvalidMethod logs a configuration-time warning for methods missing
// required capture groups; config validation rejects these before Run is
// ever reached, but Run defends defensively against a malformed Method.
func WarnInvalidMethod(name string) {
	console.Warn(1, "", "port-scan method ", name, " is missing required capture groups `name`/`port`")
}
