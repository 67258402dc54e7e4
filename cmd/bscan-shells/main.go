// Command bscan-shells prints reverse-shell command variants for a target
// and port, grounded on shells.py/cli_shells.py.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/welchbj/bscan/internal/bscanerr"
	"github.com/welchbj/bscan/internal/config"
	"github.com/welchbj/bscan/internal/netaddr"
	"github.com/welchbj/bscan/internal/shells"
	"github.com/welchbj/bscan/internal/version"
)

func main() {
	var port int
	var urlEncode bool

	rootCmd := &cobra.Command{
		Use:     "bscan-shells TARGET",
		Short:   "bscan companion utility for generating reverse shell commands",
		Version: version.Version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			if !netaddr.IsValidHostAddr(target) && !netaddr.IsValidHostname(target) {
				return bscanerr.NewConfigError("invalid target specified: %s", target)
			}

			revShells, err := config.LoadShells("")
			if err != nil {
				return err
			}

			for _, rs := range shells.Render(revShells, target, port) {
				fmt.Fprintln(cmd.OutOrStdout(), rs.Name)
				if urlEncode {
					fmt.Fprintln(cmd.OutOrStdout(), rs.URLEncodedCmd)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), rs.Cmd)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	rootCmd.Flags().IntVar(&port, "port", 80, "the port you want the reverse shell to connect back to")
	rootCmd.Flags().BoolVar(&urlEncode, "url-encode", false, "whether to URL-encode all generated commands")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
