package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunValidate_ReportsUnregisteredAsWarnings(t *testing.T) {
	root := writeRepo(t, map[string]string{
		".claude-plugin/marketplace.json": marketplaceJSON,
		".claude-plugin/plugin.json":      `{"version": "0.3.0", "skills": ["./skills/a"], "agents": ["./agents/x"]}`,
		"skills/a/SKILL.md":               skillMD("alpha"),
		"skills/b/SKILL.md":               skillMD("beta"),
		"agents/x.md":                     agentMD("ex"),
		"agents/y.md":                     agentMD("why"),
	})

	var out bytes.Buffer
	r := runValidate(context.Background(), &out, testSession(t, root))

	assert.Equal(t, 0, r.ExitCode())
	text := out.String()
	assert.Contains(t, text, "OK: alpha (./skills/a)")
	assert.Contains(t, text, "WARNING: Unregistered skill: ./skills/b (not in plugin.json)")
	assert.Contains(t, text, "WARNING: Unregistered agent: ./agents/y.md (not in plugin.json)")
	assert.Contains(t, text, "Plugin version: 0.3.0")
	assert.Contains(t, text, "✓ Validation passed with 2 warning(s)")
}

func TestRunValidate_FatalOnMalformedJSON(t *testing.T) {
	root := writeRepo(t, map[string]string{
		".claude-plugin/marketplace.json": `{"name": `,
		".claude-plugin/plugin.json":      `{}`,
	})

	var out bytes.Buffer
	r := runValidate(context.Background(), &out, testSession(t, root))

	assert.Equal(t, 1, r.ExitCode())
	assert.Contains(t, out.String(), "✗ Validation aborted")
	assert.NotContains(t, out.String(), "=== Summary ===")
}

func TestRunValidate_StrictVersionFromConfig(t *testing.T) {
	root := writeRepo(t, map[string]string{
		".claude-plugin/marketplace.json": marketplaceJSON,
		".claude-plugin/plugin.json":      `{"version": "latest"}`,
	})
	s := testSession(t, root)
	s.Config.StrictVersion = true

	var out bytes.Buffer
	r := runValidate(context.Background(), &out, s)

	assert.Equal(t, 1, r.ExitCode())
	assert.Contains(t, out.String(), `Version "latest" is not a semantic version`)
}
