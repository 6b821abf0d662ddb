package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixture lays out a plugin repository under a temp dir.
type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, root: t.TempDir()}
	f.write(".claude-plugin/marketplace.json", `{"name": "dotnet-marketplace", "plugins": []}`)
	return f
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(f.t, os.WriteFile(p, []byte(content), 0o644))
}

func (f *fixture) plugin(content string) {
	f.t.Helper()
	f.write(".claude-plugin/plugin.json", content)
}

func (f *fixture) skill(dir, name string) {
	f.t.Helper()
	f.write(dir+"/SKILL.md", "---\nname: "+name+"\ndescription: test skill\n---\n\n# "+name+"\n")
}

func (f *fixture) agent(rel, name string) {
	f.t.Helper()
	f.write(rel, "---\nname: "+name+"\n---\nYou are "+name+".\n")
}

// messages returns the messages of a section's findings at level.
func messages(r *Report, title string, level Level) []string {
	var out []string
	for _, s := range r.Sections {
		if s.Title != title {
			continue
		}
		for _, f := range s.Findings {
			if f.Level == level {
				out = append(out, f.Message)
			}
		}
	}
	return out
}
