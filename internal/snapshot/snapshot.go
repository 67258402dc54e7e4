// Package snapshot gives each target's output directory its own git
// history when --git-snapshot is set: an empty repo is initialized on
// admission, and a commit capturing everything written so far is made on
// retirement. This is a feature the Python original never had, but one the
// per-target directory-tree design naturally invites.
package snapshot

import (
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/welchbj/bscan/internal/bscanerr"
)

const authorName = "bscan"
const authorEmail = "bscan@localhost"

// Init creates an empty git repository rooted at dir. Safe to call even if
// dir already contains files; nothing is staged or committed yet.
func Init(dir string) error {
	if _, err := git.PlainInit(dir, false); err != nil {
		return bscanerr.NewInternalError("git-snapshot: initializing repo at %s: %v", dir, err)
	}
	return nil
}

// Commit stages every file under dir and commits it with message, used at
// the end of a target's pipeline to capture a diffable snapshot of its
// final output tree.
func Commit(dir, message string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return bscanerr.NewInternalError("git-snapshot: opening repo at %s: %v", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return bscanerr.NewInternalError("git-snapshot: opening worktree at %s: %v", dir, err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return bscanerr.NewInternalError("git-snapshot: staging changes at %s: %v", dir, err)
	}

	status, err := wt.Status()
	if err != nil {
		return bscanerr.NewInternalError("git-snapshot: checking status at %s: %v", dir, err)
	}
	if status.IsClean() {
		return nil
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return bscanerr.NewInternalError("git-snapshot: committing at %s: %v", dir, err)
	}
	return nil
}
