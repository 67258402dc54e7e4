// Package console holds bscan's terminal output helpers: the same
// three-depth info/warn/error/pattern print functions as the original
// project's io_console.py, colorized with github.com/fatih/color in place
// of colorama.
package console

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/welchbj/bscan/internal/logbus"
)

var (
	infoColor    = color.New(color.FgBlue)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed)
	patternColor = color.New(color.FgMagenta)
)

// hub, when set via SetHub, receives a copy of every printed line so the
// optional live dashboard can stream it over SSE/websocket without this
// package knowing anything about HTTP.
var hub *logbus.Hub

// SetHub wires an optional logbus.Hub that receives every printed line.
// Called once at startup when the dashboard is enabled; a nil hub (the
// default) disables forwarding entirely.
func SetHub(h *logbus.Hub) {
	hub = h
}

func publish(target, line string) {
	if hub == nil {
		return
	}
	hub.Publish(logbus.Message{Target: target, Line: line})
}

var depthPrefix = map[int]string{
	1: "",
	2: "  ",
	3: "    ",
}

// Info prints an informational line at the given indentation depth (1-3),
// prefixed with the target name.
func Info(depth int, target string, parts ...any) {
	printLine(infoColor, "[I]", depth, target, parts...)
}

// Warn prints a warning line at the given indentation depth.
func Warn(depth int, target string, parts ...any) {
	printLine(warnColor, "[W]", depth, target, parts...)
}

// Err prints an error line at the given indentation depth.
func Err(depth int, target string, parts ...any) {
	printLine(errColor, "[E]", depth, target, parts...)
}

// Pattern prints a pattern-match line; it is always depth 3, mirroring
// scans.py's match_patterns, which only ever calls print_i_d3.
func Pattern(target, highlightedLine string) {
	fmt.Printf("%s%s %s: matched pattern in line `%s`\n",
		depthPrefix[3], patternColor.Sprint("[P]"), target, highlightedLine)
	publish(target, highlightedLine)
}

func printLine(c *color.Color, tag string, depth int, target string, parts ...any) {
	prefix := depthPrefix[depth]
	if prefix == "" && depth != 1 {
		prefix = depthPrefix[3]
	}
	msg := fmt.Sprint(parts...)
	if target == "" {
		fmt.Printf("%s%s %s\n", prefix, c.Sprint(tag), msg)
		publish(target, msg)
		return
	}
	fmt.Printf("%s%s %s: %s\n", prefix, c.Sprint(tag), target, msg)
	publish(target, msg)
}

// Legend prints the one-line color legend shown at startup, mirroring
// print_color_info in io_console.py.
func Legend() {
	fmt.Printf("%s Colors: %s, %s, %s, and %s\n",
		infoColor.Sprint("[I]"),
		infoColor.Sprint("info"),
		warnColor.Sprint("warnings"),
		errColor.Sprint("errors"),
		patternColor.Sprint("pattern matches"))
}

// Highlight wraps each byte range in s named by matches (pairs of
// [start,end) offsets, non-overlapping and in order) in the terminal
// pattern-match color.
func Highlight(s string, matches [][2]int) string {
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	pos := 0
	for _, m := range matches {
		b.WriteString(s[pos:m[0]])
		b.WriteString(patternColor.Sprint(s[m[0]:m[1]]))
		pos = m[1]
	}
	b.WriteString(s[pos:])
	return b.String()
}

// ShortenCmd truncates cmd to length, preserving its leading prefix, the
// way shortened_cmd in io_console.py does. length must be at least 5; the
// original project special-cases "too short" by simply truncating harder,
// which this mirrors by never going negative.
func ShortenCmd(cmd string, length int) string {
	if len(cmd)+2 <= length {
		return "`" + cmd + "`"
	}
	cut := length - 5
	if cut < 0 {
		cut = 0
	}
	if cut > len(cmd) {
		cut = len(cmd)
	}
	return "`" + cmd[:cut] + "...`"
}
