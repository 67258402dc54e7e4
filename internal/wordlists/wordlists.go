// Package wordlists locates and enumerates wordlist files under a set of
// search roots, for the bscan-wordlists companion binary, grounded on
// wordlists.py.
package wordlists

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultSearchDirs mirrors DEFAULT_WORDLIST_SEARCH_DIRS.
var DefaultSearchDirs = []string{
	"/usr/share/wordlists/",
	"/usr/share/seclists/Passwords/",
}

// Find recursively searches searchDirs for filename, returning its absolute
// path. If filename is itself an existing path, it is returned unmodified.
func Find(searchDirs []string, filename string) (string, bool) {
	if info, err := os.Stat(filename); err == nil && !info.IsDir() {
		return filename, true
	}

	head, tail := filepath.Split(filename)
	for _, dir := range searchDirs {
		root := filepath.Join(dir, head)
		var found string
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || found != "" {
				return nil
			}
			if !d.IsDir() && d.Name() == tail {
				found = path
			}
			return nil
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// Walk recursively walks every directory in searchDirs and writes a
// directory listing of every wordlist file found to w, mirroring
// walk_wordlists.
func Walk(searchDirs []string, w io.Writer) {
	for _, dir := range searchDirs {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil
			}
			var files []string
			for _, e := range entries {
				if !e.IsDir() {
					files = append(files, e.Name())
				}
			}
			if len(files) == 0 {
				return nil
			}
			fmt.Fprintln(w, path)
			for _, f := range files {
				fmt.Fprintln(w, "--->", f)
			}
			fmt.Fprintln(w)
			return nil
		})
	}
}
