package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// GitSource is a plugin repository fetched from a remote (or local) git URL.
// It clones on first use into CachePath and validates that worktree.
type GitSource struct {
	URL       string
	CachePath string // directory to clone into, e.g. ~/.validate-marketplace/cache/<name>
	Ref       string // "latest", branch name, tag name, or commit SHA
}

const RefLatest = "latest"

var shaPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

func isSHA(ref string) bool {
	return shaPattern.MatchString(ref)
}

func (g *GitSource) isPinned() bool {
	return g.Ref != "" && g.Ref != RefLatest
}

func (g *GitSource) Name() string {
	if g.isPinned() {
		return g.URL + "@" + g.Ref
	}
	return g.URL
}

// Root clones the repository if needed and returns the worktree path.
func (g *GitSource) Root() (string, error) {
	if err := g.ensureCache(); err != nil {
		return "", err
	}
	return g.CachePath, nil
}

// CacheName turns a git URL into a directory name for the cache.
func CacheName(url, ref string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	name = strings.NewReplacer("://", "_", "@", "_", ":", "_", "/", "_", "\\", "_").Replace(name)
	if ref != "" && ref != RefLatest {
		name += "@" + strings.ReplaceAll(ref, "/", "_")
	}
	return name
}

// authMethod uses the system SSH agent for SSH URLs; HTTPS and local paths
// need no auth.
func (g *GitSource) authMethod() transport.AuthMethod {
	if isSSHURL(g.URL) {
		auth, err := gitssh.NewSSHAgentAuth("git")
		if err == nil {
			return auth
		}
	}
	return nil
}

func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "ssh://")
}

// ensureCache clones the repository into CachePath if it is not there yet.
// A failed clone with an existing cache falls back to the stale copy.
func (g *GitSource) ensureCache() error {
	if _, err := os.Stat(filepath.Join(g.CachePath, ".git")); err == nil {
		return nil
	}

	cloneOpts := &git.CloneOptions{
		URL:  g.URL,
		Auth: g.authMethod(),
	}

	// non-SHA pinned refs: branch first, then tag
	if g.isPinned() && !isSHA(g.Ref) {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(g.Ref)
		cloneOpts.SingleBranch = true
	}

	repo, err := git.PlainClone(g.CachePath, false, cloneOpts)
	if err != nil && g.isPinned() && !isSHA(g.Ref) {
		_ = os.RemoveAll(g.CachePath)
		cloneOpts.ReferenceName = plumbing.NewTagReferenceName(g.Ref)
		repo, err = git.PlainClone(g.CachePath, false, cloneOpts)
	}
	if err != nil {
		if _, statErr := os.Stat(filepath.Join(g.CachePath, ".git")); statErr == nil {
			return nil
		}
		_ = os.RemoveAll(g.CachePath)
		if g.isPinned() && !isSHA(g.Ref) {
			return fmt.Errorf("ref %q not found as branch or tag in %s", g.Ref, g.URL)
		}
		return fmt.Errorf("git clone %s: %w", g.URL, err)
	}

	if g.isPinned() && isSHA(g.Ref) {
		wt, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("worktree: %w", err)
		}
		hash, err := repo.ResolveRevision(plumbing.Revision(g.Ref))
		if err != nil {
			return fmt.Errorf("commit %s not found in %s: %w", g.Ref, g.URL, err)
		}
		if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
			return fmt.Errorf("checkout %s: %w", g.Ref, err)
		}
	}

	return nil
}

// Refresh pulls the latest changes for unpinned sources. Pinned sources are
// already at the right commit, so only a missing cache is re-cloned.
func (g *GitSource) Refresh() error {
	if g.isPinned() {
		return g.ensureCache()
	}
	if _, err := os.Stat(filepath.Join(g.CachePath, ".git")); err != nil {
		return g.ensureCache()
	}

	repo, err := git.PlainOpen(g.CachePath)
	if err != nil {
		return fmt.Errorf("open cached repo: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	err = wt.Pull(&git.PullOptions{Auth: g.authMethod()})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("git pull: %w", err)
	}
	return nil
}
