// Command bscan-wordlists lists or locates wordlist files under bscan's
// default search roots, grounded on wordlists.py/cli_wordlists.py.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/welchbj/bscan/internal/version"
	"github.com/welchbj/bscan/internal/wordlists"
)

func main() {
	var findFilename string

	rootCmd := &cobra.Command{
		Use:     "bscan-wordlists",
		Short:   "bscan companion utility for listing and finding wordlists",
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			listAll, _ := cmd.Flags().GetBool("list")
			switch {
			case listAll:
				wordlists.Walk(wordlists.DefaultSearchDirs, cmd.OutOrStdout())
			case findFilename != "":
				if path, ok := wordlists.Find(wordlists.DefaultSearchDirs, findFilename); ok {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "unable to locate", findFilename)
				}
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "specify --list or --find <filename>")
			}
			return nil
		},
	}

	rootCmd.Flags().Bool("list", false, "list all findable wordlists on the system")
	rootCmd.Flags().StringVar(&findFilename, "find", "", "find the absolute path to a wordlist via its filename")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
