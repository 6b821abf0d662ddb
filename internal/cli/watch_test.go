package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chaz8081/validate-marketplace/internal/engine"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDirs(t *testing.T) {
	root := writeRepo(t, map[string]string{
		".claude-plugin/plugin.json": `{}`,
		"skills/a/SKILL.md":          skillMD("alpha"),
		"skills/group/b/SKILL.md":    skillMD("beta"),
		"roles/x.md":                 agentMD("ex"),
	})

	dirs, err := watchDirs(root, engine.DefaultLayout(), "./roles/")
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, ".claude-plugin"),
		filepath.Join(root, "roles"),
		filepath.Join(root, "skills"),
		filepath.Join(root, "skills", "a"),
		filepath.Join(root, "skills", "group"),
		filepath.Join(root, "skills", "group", "b"),
	}
	assert.ElementsMatch(t, want, dirs)
}

func TestWatchDirs_SkipsMissing(t *testing.T) {
	root := t.TempDir()
	dirs, err := watchDirs(root, engine.DefaultLayout(), "./gone")
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestWatchDirs_IgnoresEmptyExtra(t *testing.T) {
	root := writeRepo(t, map[string]string{".claude-plugin/plugin.json": `{}`})

	dirs, err := watchDirs(root, engine.DefaultLayout(), "", "./")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, ".claude-plugin")}, dirs)
}

func TestSyncWatches_PicksUpNewAgentsDirectory(t *testing.T) {
	root := writeRepo(t, map[string]string{
		".claude-plugin/marketplace.json": marketplaceJSON,
		".claude-plugin/plugin.json":      `{"agents": ["./agents/x"]}`,
		"agents/x.md":                     agentMD("ex"),
		"personas/p.md":                   agentMD("pea"),
	})
	s := testSession(t, root)
	personas := filepath.Join(root, "personas")

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, syncWatches(context.Background(), w, s))
	assert.NotContains(t, w.WatchList(), personas)
	assert.Contains(t, w.WatchList(), filepath.Join(root, "agents"))

	writeFile(t, root, ".claude-plugin/plugin.json", `{"agents": "./personas"}`)
	require.NoError(t, syncWatches(context.Background(), w, s))
	assert.Contains(t, w.WatchList(), personas)

	// a second pass adds nothing twice
	n := len(w.WatchList())
	require.NoError(t, syncWatches(context.Background(), w, s))
	assert.Len(t, w.WatchList(), n)
}

func TestRunWatch_RevalidatesOnChange(t *testing.T) {
	root := writeRepo(t, map[string]string{
		".claude-plugin/marketplace.json": marketplaceJSON,
		".claude-plugin/plugin.json":      `{"skills": ["./skills/a"]}`,
		"skills/a/SKILL.md":               skillMD("alpha"),
	})
	s := testSession(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, out, s, 20*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching for file changes")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "✓ Validation passed")

	writeFile(t, root, ".claude-plugin/plugin.json", `{"skills": ["./skills/a", "./skills/missing"]}`)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "✗ Validation failed with 1 error(s)")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Change detected: .claude-plugin/plugin.json")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not stop after cancel")
	}
}
