package registry

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
)

// Source resolves the root directory of a plugin repository to validate.
type Source interface {
	// Name describes the source for output, e.g. a path or URL.
	Name() string
	// Root returns a local directory holding the repository.
	Root() (string, error)
}

// LocalSource is a repository already on disk.
type LocalSource struct {
	Path string
}

func (l LocalSource) Name() string { return l.Path }

// Root returns the absolute path after checking that it is a directory.
func (l LocalSource) Root() (string, error) {
	abs, err := filepath.Abs(l.Path)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", l.Path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrapf(err, "repository root %s", abs)
	}
	if !info.IsDir() {
		return "", errors.Errorf("repository root %s is not a directory", abs)
	}
	return abs, nil
}

// DetectRoot returns the root of the git worktree containing start, or start
// itself when it is not inside a git repository.
func DetectRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", start)
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return abs, nil
		}
		return "", errors.Wrap(err, "open git repository")
	}
	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have no worktree to validate
		return abs, nil
	}
	return wt.Filesystem.Root(), nil
}
