// Package shells renders the packaged reverse-shell command templates
// against a target/port, for the bscan-shells companion binary, grounded on
// shells.py.
package shells

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/welchbj/bscan/internal/config"
)

// Command is one rendered reverse-shell variant.
type Command struct {
	Name          string
	Cmd           string
	URLEncodedCmd string
}

// Render substitutes target and port into every shell template in shells
// (as loaded by config.Load), returning the results sorted by name.
func Render(shells []config.ReverseShell, target string, port int) []Command {
	cmds := make([]Command, 0, len(shells))
	portStr := strconv.Itoa(port)
	for _, s := range shells {
		cmd := strings.ReplaceAll(s.Cmd, "<target>", target)
		cmd = strings.ReplaceAll(cmd, "<port>", portStr)
		cmds = append(cmds, Command{
			Name:          s.Name,
			Cmd:           cmd,
			URLEncodedCmd: url.QueryEscape(cmd),
		})
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}
