package git

import (
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when no repository encloses the directory.
var ErrNotRepository = errors.New("not a git repository")

// Revision identifies the checked-out state of a source tree.
type Revision struct {
	Hash   string
	Branch string // empty on a detached HEAD
	Dirty  bool
}

// Short returns the abbreviated hash, with a "-dirty" suffix for modified trees.
func (r Revision) Short() string {
	h := r.Hash
	if len(h) > 12 {
		h = h[:12]
	}
	if r.Dirty {
		h += "-dirty"
	}
	return h
}

// HeadRevision resolves HEAD of the repository containing dir, searching
// parent directories for the .git entry.
func HeadRevision(dir string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, ErrNotRepository
		}
		return Revision{}, err
	}

	head, err := repo.Head()
	if err != nil {
		// Fresh repository without commits.
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Revision{}, nil
		}
		return Revision{}, err
	}

	rev := Revision{Hash: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return rev, nil
	}
	status, err := wt.Status()
	if err == nil {
		rev.Dirty = !status.IsClean()
	}
	return rev, nil
}
