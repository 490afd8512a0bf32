// Package vcs reads version control information for the site directory.
package vcs

import (
	"errors"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/glaze/internal/logfields"
)

// Head describes the checked out commit.
type Head struct {
	Revision string // Full commit hash
	Branch   string // Empty when HEAD is detached
}

// ReadHead opens the repository containing dir, searching parent
// directories for .git.
func ReadHead(dir string) (Head, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Head{}, err
	}
	ref, err := repo.Head()
	if err != nil {
		return Head{}, err
	}
	h := Head{Revision: ref.Hash().String()}
	if ref.Name().IsBranch() {
		h.Branch = ref.Name().Short()
	}
	return h, nil
}

// Revision returns the HEAD commit hash for the repository containing dir,
// or "" when dir is not inside a repository or HEAD has no commit yet.
func Revision(dir string) string {
	h, err := ReadHead(dir)
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) && !errors.Is(err, plumbing.ErrReferenceNotFound) {
			slog.Debug("Could not read VCS revision", logfields.Path(dir), logfields.Error(err))
		}
		return ""
	}
	return h.Revision
}
