package engine

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/chaz8081/validate-marketplace/internal/manifest"
	"github.com/chaz8081/validate-marketplace/pkg/schema"
)

// Layout names the files and directories a plugin repository is made of.
type Layout struct {
	PluginDir string // holds plugin.json and marketplace.json
	SkillsDir string // scanned recursively for marker files
	AgentsDir string // scanned for *.md in array mode
	Marker    string // file that marks a skill directory
}

// DefaultLayout returns the standard Claude plugin layout.
func DefaultLayout() Layout {
	return Layout{
		PluginDir: ".claude-plugin",
		SkillsDir: "skills",
		AgentsDir: "agents",
		Marker:    "SKILL.md",
	}
}

// Artifact is a skill directory or agent file found on disk.
type Artifact struct {
	Entry      string // manifest form, e.g. "./skills/foo" or "./agents/bar"
	Name       string // display name from front matter, may be empty
	Path       string // absolute path of the marker or agent file
	Registered bool
}

// Inventory lists what a repository holds on disk next to its manifest.
type Inventory struct {
	Skills    []Artifact
	Agents    []Artifact
	Mode      manifest.AgentsMode
	AgentsDir string
}

// Scan inspects root for skills and agents and marks which ones m registers.
// In directory mode every agent under the configured directory counts as
// registered.
func Scan(root string, layout Layout, m *manifest.PluginManifest) (*Inventory, error) {
	inv := &Inventory{Mode: m.Agents.Mode}

	dirs, err := findSkillDirs(root, layout)
	if err != nil {
		return nil, err
	}
	skillSet := manifest.NewEntrySet(m.Skills)
	for _, dir := range dirs {
		marker := filepath.Join(root, filepath.FromSlash(dir), layout.Marker)
		entry := "./" + dir
		inv.Skills = append(inv.Skills, Artifact{
			Entry:      entry,
			Name:       readDisplayName(marker),
			Path:       marker,
			Registered: skillSet.Has(entry),
		})
	}

	agentsDir := layout.AgentsDir
	if m.Agents.Mode == manifest.AgentsDirectory {
		agentsDir = manifest.NormalizeEntry(m.Agents.Dir)
		inv.AgentsDir = m.Agents.Dir
	}
	var files []string
	if agentsDir != "" {
		files, err = findAgentFiles(filepath.Join(root, filepath.FromSlash(agentsDir)))
		if err != nil {
			return nil, err
		}
	}
	agentSet := manifest.NewEntrySet(m.Agents.Paths)
	for _, f := range files {
		entry := "./" + path.Join(agentsDir, strings.TrimSuffix(f, ".md"))
		p := filepath.Join(root, filepath.FromSlash(agentsDir), f)
		inv.Agents = append(inv.Agents, Artifact{
			Entry:      entry,
			Name:       readDisplayName(p),
			Path:       p,
			Registered: m.Agents.Mode == manifest.AgentsDirectory || agentSet.Has(entry),
		})
	}

	return inv, nil
}

// findSkillDirs returns every directory under the skills root that holds a
// marker file, relative to root with forward slashes, sorted.
func findSkillDirs(root string, layout Layout) ([]string, error) {
	pattern := path.Join(filepath.ToSlash(manifest.NormalizeEntry(layout.SkillsDir)), "**", layout.Marker)
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan skills: %w", err)
	}
	dirs := make([]string, 0, len(matches))
	for _, m := range matches {
		dirs = append(dirs, path.Dir(m))
	}
	sort.Strings(dirs)
	return dirs, nil
}

// findAgentFiles returns the names of the *.md files directly inside dir,
// sorted. A missing directory yields no files.
func findAgentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan agents: %w", err)
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".md") {
			continue
		}
		names = append(names, ent.Name())
	}
	sort.Strings(names)
	return names, nil
}

func readDisplayName(p string) string {
	data, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	return schema.DisplayName(data)
}
