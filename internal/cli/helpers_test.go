package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chaz8081/validate-marketplace/internal/config"
	"github.com/chaz8081/validate-marketplace/internal/registry"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// writeRepo lays out files (relative path -> content) under a temp dir.
func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}
	return root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func skillMD(name string) string {
	return "---\nname: " + name + "\ndescription: test skill\n---\n\n# " + name + "\n"
}

func agentMD(name string) string {
	return "---\nname: " + name + "\n---\nYou are " + name + ".\n"
}

const marketplaceJSON = `{"name": "dotnet-marketplace", "plugins": []}`

func testSession(t *testing.T, root string) *session {
	t.Helper()
	cfg, err := config.Load(viper.New(), root, "")
	require.NoError(t, err)
	return &session{Root: root, Source: registry.LocalSource{Path: root}, Config: cfg}
}

// resetFlags restores the package-level flag values after a test that runs
// commands through rootCmd.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		rootDir, remoteURL, remoteRef, configFile, verbose = "", "", registry.RefLatest, "", false
		listJSON, registerAll = false, false
		current = nil
		settings = viper.New()
		_ = settings.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
		_ = settings.BindPFlag("strict_version", rootCmd.PersistentFlags().Lookup("strict-version"))
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
