package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/rogpeppe/go-internal/lockedfile"
)

const (
	// PluginFilename is the manifest that declares skills and agents.
	PluginFilename = "plugin.json"
	// MarketplaceFilename is only checked for JSON syntax.
	MarketplaceFilename = "marketplace.json"
)

// PluginManifest represents a .claude-plugin/plugin.json file.
type PluginManifest struct {
	Name        string       `json:"name,omitempty"`
	Version     string       `json:"version,omitempty"`
	Description string       `json:"description,omitempty"`
	Skills      []string     `json:"skills,omitempty"`
	Agents      AgentsConfig `json:"agents"`
}

// UnmarshalJSON accepts any JSON value for version and keeps it as display
// text, so a numeric version like 1.2 reads as "1.2".
func (m *PluginManifest) UnmarshalJSON(data []byte) error {
	type plain PluginManifest
	aux := struct {
		*plain
		Version json.RawMessage `json:"version,omitempty"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Version = displayVersion(aux.Version)
	return nil
}

func displayVersion(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

// AgentsMode says how the agents field of a plugin manifest was written.
type AgentsMode int

const (
	// AgentsNone means the manifest has no agents field.
	AgentsNone AgentsMode = iota
	// AgentsDirectory registers every .md file under a single directory.
	AgentsDirectory
	// AgentsArray lists agent files explicitly, without the .md extension.
	AgentsArray
)

func (m AgentsMode) String() string {
	switch m {
	case AgentsDirectory:
		return "directory"
	case AgentsArray:
		return "array"
	default:
		return "none"
	}
}

// AgentsConfig is the agents field: either a directory path or a list of paths.
type AgentsConfig struct {
	Mode  AgentsMode
	Dir   string   // set in AgentsDirectory mode
	Paths []string // set in AgentsArray mode
}

// DirectoryMode builds an AgentsConfig that registers a whole directory.
func DirectoryMode(dir string) AgentsConfig {
	return AgentsConfig{Mode: AgentsDirectory, Dir: dir}
}

// ArrayMode builds an AgentsConfig from explicit entries.
func ArrayMode(paths ...string) AgentsConfig {
	return AgentsConfig{Mode: AgentsArray, Paths: paths}
}

// UnmarshalJSON picks the mode from the JSON value's type.
func (a *AgentsConfig) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "" || raw == "null":
		*a = AgentsConfig{}
	case raw[0] == '"':
		var dir string
		if err := json.Unmarshal(data, &dir); err != nil {
			return err
		}
		*a = DirectoryMode(dir)
	case raw[0] == '[':
		var paths []string
		if err := json.Unmarshal(data, &paths); err != nil {
			return err
		}
		*a = ArrayMode(paths...)
	default:
		return fmt.Errorf("agents must be a string or an array of strings")
	}
	return nil
}

// MarshalJSON writes the field back in the form it was read.
func (a AgentsConfig) MarshalJSON() ([]byte, error) {
	switch a.Mode {
	case AgentsDirectory:
		return json.Marshal(a.Dir)
	case AgentsArray:
		if a.Paths == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Paths)
	default:
		return []byte("null"), nil
	}
}

// SyntaxError reports a manifest file that is not valid JSON.
type SyntaxError struct {
	File string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s is not valid JSON: %v", filepath.Base(e.File), e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// CheckSyntax reads path and reports whether it holds a single valid JSON document.
func CheckSyntax(path string) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	return checkSyntaxBytes(path, data)
}

func checkSyntaxBytes(path string, data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return &SyntaxError{File: path, Err: err}
	}
	return nil
}

// LoadPlugin reads, syntax-checks, shape-checks and decodes a plugin.json file.
func LoadPlugin(path string) (*PluginManifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return loadPlugin(path, data)
}

// LoadPluginFromBytes parses plugin.json content from bytes.
func LoadPluginFromBytes(data []byte) (*PluginManifest, error) {
	return loadPlugin(PluginFilename, data)
}

func loadPlugin(path string, data []byte) (*PluginManifest, error) {
	if err := checkSyntaxBytes(path, data); err != nil {
		return nil, err
	}
	if err := validateShape(path, data); err != nil {
		return nil, err
	}
	var m PluginManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// NormalizeEntry turns a manifest path into the form used for comparisons:
// forward slashes, no leading "./", no trailing "/".
func NormalizeEntry(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// EntrySet is a membership index over normalized manifest entries.
type EntrySet map[string]struct{}

// NewEntrySet indexes entries by their normalized form.
func NewEntrySet(entries []string) EntrySet {
	s := make(EntrySet, len(entries))
	for _, e := range entries {
		s[NormalizeEntry(e)] = struct{}{}
	}
	return s
}

// Has reports whether entry is in the set, ignoring "./" prefixes.
func (s EntrySet) Has(entry string) bool {
	_, ok := s[NormalizeEntry(entry)]
	return ok
}

func readFile(path string) ([]byte, error) {
	data, err := lockedfile.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return data, nil
}
