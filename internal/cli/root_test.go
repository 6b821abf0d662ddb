package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/chaz8081/validate-marketplace/internal/config"
	"github.com/chaz8081/validate-marketplace/internal/registry"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 1}
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "exit status 1", err.Error())
}

func TestNewSession_RootFlag(t *testing.T) {
	resetFlags(t)
	root := writeRepo(t, map[string]string{".claude-plugin/plugin.json": `{}`})
	rootDir = root

	s, err := newSession(context.Background(), viper.New())
	require.NoError(t, err)
	assert.Equal(t, root, s.Root)
	assert.Equal(t, root, s.Source.Name())
	assert.Equal(t, "skills", s.Config.SkillsDir)
	assert.Equal(t, filepath.Join(root, ".claude-plugin", "plugin.json"), s.PluginPath("plugin.json"))
}

func TestNewSession_ReadsRepositoryConfig(t *testing.T) {
	resetFlags(t)
	root := writeRepo(t, map[string]string{
		config.FileName: "skills_dir: docs/skills\nmarker: README.md\n",
	})
	rootDir = root

	s, err := newSession(context.Background(), viper.New())
	require.NoError(t, err)
	assert.Equal(t, "docs/skills", s.Config.SkillsDir)
	assert.Equal(t, "README.md", s.Config.Layout().Marker)
}

func TestNewSession_IgnoresWorkingDirConfig(t *testing.T) {
	resetFlags(t)
	wd := writeRepo(t, map[string]string{
		config.FileName: "skills_dir: other/skills\nmarker: README.md\n",
	})
	t.Chdir(wd)
	rootDir = writeRepo(t, map[string]string{".claude-plugin/plugin.json": `{}`})

	s, err := newSession(context.Background(), viper.New())
	require.NoError(t, err)
	assert.Equal(t, "skills", s.Config.SkillsDir)
	assert.Equal(t, "SKILL.md", s.Config.Marker)
}

func TestNewSession_MissingRoot(t *testing.T) {
	resetFlags(t)
	rootDir = filepath.Join(t.TempDir(), "nope")

	_, err := newSession(context.Background(), viper.New())
	require.Error(t, err)
}

func TestNewSession_MissingExplicitConfig(t *testing.T) {
	resetFlags(t)
	rootDir = t.TempDir()
	configFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := newSession(context.Background(), viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestResolveSource_Remote(t *testing.T) {
	resetFlags(t)
	remoteURL = "https://github.com/org/plugin.git"
	remoteRef = "v1.2.0"
	cfg := &config.Config{CacheDir: "/tmp/cache"}

	src, err := resolveSource(cfg)
	require.NoError(t, err)
	gs, ok := src.(*registry.GitSource)
	require.True(t, ok)
	assert.Equal(t, "v1.2.0", gs.Ref)
	assert.Equal(t, filepath.Join("/tmp/cache", registry.CacheName(remoteURL, "v1.2.0")), gs.CachePath)
}

func TestResolveSource_LocalTakesRootFlag(t *testing.T) {
	resetFlags(t)
	rootDir = "./somewhere"

	src, err := resolveSource(&config.Config{})
	require.NoError(t, err)
	assert.Equal(t, registry.LocalSource{Path: "./somewhere"}, src)
}

func TestRootCommand_ExitCodeFollowsReport(t *testing.T) {
	resetFlags(t)
	root := writeRepo(t, map[string]string{
		".claude-plugin/marketplace.json": marketplaceJSON,
		".claude-plugin/plugin.json":      `{"skills": ["./skills/missing"]}`,
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--root", root})
	err := rootCmd.Execute()

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, out.String(), "ERROR: Missing SKILL.md for ./skills/missing")
}

func TestRootCommand_PassesCleanRepository(t *testing.T) {
	resetFlags(t)
	root := writeRepo(t, map[string]string{
		".claude-plugin/marketplace.json": marketplaceJSON,
		".claude-plugin/plugin.json":      `{"version": "1.0.0", "skills": ["./skills/a"]}`,
		"skills/a/SKILL.md":               skillMD("alpha"),
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--root", root})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "✓ Validation passed")
}

func TestRootCommand_RejectsArguments(t *testing.T) {
	resetFlags(t)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--root", t.TempDir(), "extra"})
	require.Error(t, rootCmd.Execute())
}
