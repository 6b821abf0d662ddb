package engine

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/chaz8081/validate-marketplace/internal/logger"
	"github.com/chaz8081/validate-marketplace/internal/manifest"
)

// Validator checks a plugin repository's manifest against its files.
type Validator struct {
	Root          string
	Layout        Layout
	StrictVersion bool // require plugin.json version to be semver
}

// NewValidator returns a Validator for root using the default layout.
func NewValidator(root string) *Validator {
	return &Validator{Root: root, Layout: DefaultLayout()}
}

// Validate runs every check once, in order, and returns the report.
// A manifest that is not valid JSON (or not shaped like a plugin manifest)
// stops the run: the partial report is returned along with the error.
// All other problems are collected in the report.
func (v *Validator) Validate(ctx context.Context) (*Report, error) {
	log := logger.G(ctx).WithField("root", v.Root)
	r := &Report{Root: v.Root}

	m, err := v.checkSyntax(r)
	if err != nil {
		log.WithError(err).Debug("manifest gate failed")
		r.Fatal = err
		return r, err
	}

	v.checkSkills(r, m)
	v.checkAgents(r, m)
	if v.StrictVersion {
		v.checkVersion(r, m)
	}
	v.checkUnregisteredSkills(r, m)
	v.checkUnregisteredAgents(r, m)

	r.Summary = v.summarize(m)
	log.WithField("errors", r.Errors()).WithField("warnings", r.Warnings()).Debug("validation finished")
	return r, nil
}

func (v *Validator) pluginPath(name string) string {
	return filepath.Join(v.Root, filepath.FromSlash(v.Layout.PluginDir), name)
}

func (v *Validator) abs(entry string) string {
	return filepath.Join(v.Root, filepath.FromSlash(manifest.NormalizeEntry(entry)))
}

func (v *Validator) checkSyntax(r *Report) (*manifest.PluginManifest, error) {
	s := r.section(SectionSyntax)

	if err := manifest.CheckSyntax(v.pluginPath(manifest.MarketplaceFilename)); err != nil {
		s.add(LevelFatal, "", err.Error())
		return nil, err
	}
	s.add(LevelOK, "", manifest.MarketplaceFilename+" is valid JSON")

	m, err := manifest.LoadPlugin(v.pluginPath(manifest.PluginFilename))
	if err != nil {
		s.add(LevelFatal, "", err.Error())
		return nil, err
	}
	s.add(LevelOK, "", manifest.PluginFilename+" is valid JSON")
	return m, nil
}

func (v *Validator) checkSkills(r *Report, m *manifest.PluginManifest) {
	s := r.section(SectionSkills)
	if len(m.Skills) == 0 {
		s.add(LevelInfo, "", "No skills declared")
		return
	}
	for _, entry := range m.Skills {
		if manifest.NormalizeEntry(entry) == "" {
			s.add(LevelError, entry, fmt.Sprintf("Empty skill entry %q", entry))
			continue
		}
		marker := filepath.Join(v.abs(entry), v.Layout.Marker)
		if !isFile(marker) {
			s.add(LevelError, entry, fmt.Sprintf("Missing %s for %s (expected %s)", v.Layout.Marker, entry, marker))
			continue
		}
		s.add(LevelOK, entry, label(readDisplayName(marker), entry))
	}
}

func (v *Validator) checkAgents(r *Report, m *manifest.PluginManifest) {
	s := r.section(SectionAgents)

	switch m.Agents.Mode {
	case manifest.AgentsDirectory:
		if manifest.NormalizeEntry(m.Agents.Dir) == "" {
			s.add(LevelError, m.Agents.Dir, fmt.Sprintf("Agents directory not set: %q", m.Agents.Dir))
			return
		}
		dir := v.abs(m.Agents.Dir)
		if !isDir(dir) {
			s.add(LevelError, m.Agents.Dir, fmt.Sprintf("Agents directory not found: %s (expected %s)", m.Agents.Dir, dir))
			return
		}
		s.add(LevelInfo, m.Agents.Dir, "Directory mode: "+m.Agents.Dir)
		files, err := findAgentFiles(dir)
		if err != nil {
			s.add(LevelError, m.Agents.Dir, err.Error())
			return
		}
		s.add(LevelInfo, m.Agents.Dir, fmt.Sprintf("Found %d agent files", len(files)))
		for _, f := range files {
			entry := "./" + path.Join(manifest.NormalizeEntry(m.Agents.Dir), f)
			s.add(LevelOK, entry, label(readDisplayName(filepath.Join(dir, f)), entry))
		}

	case manifest.AgentsArray:
		for _, entry := range m.Agents.Paths {
			if manifest.NormalizeEntry(entry) == "" {
				s.add(LevelError, entry, fmt.Sprintf("Empty agent entry %q", entry))
				continue
			}
			file := v.abs(entry) + ".md"
			if !isFile(file) {
				s.add(LevelError, entry, fmt.Sprintf("Missing agent file for %s (expected %s)", entry, file))
				continue
			}
			s.add(LevelOK, entry, label(readDisplayName(file), entry))
		}

	default:
		s.add(LevelInfo, "", "No agents declared")
	}
}

func (v *Validator) checkVersion(r *Report, m *manifest.PluginManifest) {
	s := r.section(SectionVersion)
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		s.add(LevelError, "", fmt.Sprintf("Version %q is not a semantic version: %v", m.Version, err))
		return
	}
	s.add(LevelOK, "", "Version "+m.Version)
}

func (v *Validator) checkUnregisteredSkills(r *Report, m *manifest.PluginManifest) {
	s := r.section(SectionUnregisteredSkills)
	dirs, err := findSkillDirs(v.Root, v.Layout)
	if err != nil {
		s.add(LevelError, "", err.Error())
		return
	}

	registered := manifest.NewEntrySet(m.Skills)
	for _, dir := range dirs {
		entry := "./" + dir
		if registered.Has(entry) {
			continue
		}
		r.UnregisteredSkills = append(r.UnregisteredSkills, entry)
		s.add(LevelWarning, entry, fmt.Sprintf("Unregistered skill: %s (not in %s)", entry, manifest.PluginFilename))
	}
	if len(r.UnregisteredSkills) == 0 {
		s.add(LevelOK, "", "All skills are registered")
	}
}

// checkUnregisteredAgents only applies to array mode: a directory-mode
// manifest registers every file in its directory by construction.
func (v *Validator) checkUnregisteredAgents(r *Report, m *manifest.PluginManifest) {
	s := r.section(SectionUnregisteredAgents)
	if m.Agents.Mode == manifest.AgentsDirectory {
		s.add(LevelInfo, m.Agents.Dir, fmt.Sprintf("Directory mode: all files in %s are included automatically", m.Agents.Dir))
		return
	}

	agentsDir := manifest.NormalizeEntry(v.Layout.AgentsDir)
	files, err := findAgentFiles(filepath.Join(v.Root, filepath.FromSlash(agentsDir)))
	if err != nil {
		s.add(LevelError, "", err.Error())
		return
	}

	registered := manifest.NewEntrySet(m.Agents.Paths)
	for _, f := range files {
		entry := "./" + path.Join(agentsDir, strings.TrimSuffix(f, ".md"))
		if registered.Has(entry) {
			continue
		}
		r.UnregisteredAgents = append(r.UnregisteredAgents, entry)
		s.add(LevelWarning, entry, fmt.Sprintf("Unregistered agent: %s.md (not in %s)", entry, manifest.PluginFilename))
	}
	if len(r.UnregisteredAgents) == 0 {
		s.add(LevelOK, "", "All agents are registered")
	}
}

func (v *Validator) summarize(m *manifest.PluginManifest) *Summary {
	sum := &Summary{
		Skills:  len(m.Skills),
		Mode:    m.Agents.Mode,
		Version: m.Version,
	}
	switch m.Agents.Mode {
	case manifest.AgentsDirectory:
		sum.AgentsDir = m.Agents.Dir
		if manifest.NormalizeEntry(m.Agents.Dir) != "" {
			files, _ := findAgentFiles(v.abs(m.Agents.Dir))
			sum.Agents = len(files)
		}
	case manifest.AgentsArray:
		sum.Agents = len(m.Agents.Paths)
	}
	return sum
}

// label is the text of an OK line: the display name followed by the entry,
// or just the entry when the file declares no name.
func label(name, entry string) string {
	if name == "" {
		return entry
	}
	return fmt.Sprintf("%s (%s)", name, entry)
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
