package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// ErrDirectoryMode is returned when agents cannot be listed individually
// because the manifest registers a whole directory.
var ErrDirectoryMode = errors.New("agents are registered in directory mode")

// RegisterSkills appends skill entries to the skills list of the plugin.json
// at path. Entries already listed are skipped. The returned slice holds the
// entries that were added, in the "./skills/<name>" form.
func RegisterSkills(path string, entries []string) ([]string, error) {
	return register(path, "skills", entries, func(raw json.RawMessage) ([]string, error) {
		var cur []string
		if len(raw) == 0 || string(raw) == "null" {
			return cur, nil
		}
		if err := json.Unmarshal(raw, &cur); err != nil {
			return nil, fmt.Errorf("skills: %w", err)
		}
		return cur, nil
	})
}

// RegisterAgents appends agent entries (without the .md extension) to an
// array-mode agents list. A missing agents field becomes a new list.
func RegisterAgents(path string, entries []string) ([]string, error) {
	return register(path, "agents", entries, func(raw json.RawMessage) ([]string, error) {
		var cfg AgentsConfig
		if len(raw) > 0 {
			if err := cfg.UnmarshalJSON(raw); err != nil {
				return nil, err
			}
		}
		if cfg.Mode == AgentsDirectory {
			return nil, ErrDirectoryMode
		}
		return cfg.Paths, nil
	})
}

func register(path, key string, entries []string, current func(json.RawMessage) ([]string, error)) ([]string, error) {
	var added []string
	err := lockedfile.Transform(path, func(data []byte) ([]byte, error) {
		added = nil
		obj, err := decodeOrdered(data)
		if err != nil {
			return nil, &SyntaxError{File: path, Err: err}
		}

		list, err := current(obj.values[key])
		if err != nil {
			return nil, err
		}
		seen := NewEntrySet(list)
		for _, e := range entries {
			norm := NormalizeEntry(e)
			if norm == "" || seen.Has(norm) {
				continue
			}
			seen[norm] = struct{}{}
			list = append(list, "./"+norm)
			added = append(added, "./"+norm)
		}
		if len(added) == 0 {
			return data, nil
		}

		raw, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		obj.set(key, raw)
		return obj.encode()
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", key, err)
	}
	return added, nil
}

// orderedObject is a top-level JSON object that keeps its key order so a
// rewrite only touches the field being changed.
type orderedObject struct {
	keys   []string
	values map[string]json.RawMessage
}

func decodeOrdered(data []byte) (*orderedObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("top-level value is not an object")
	}

	obj := &orderedObject{values: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		obj.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (o *orderedObject) set(key string, raw json.RawMessage) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
}

func (o *orderedObject) encode() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("{\n")
	for i, key := range o.keys {
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, o.values[key]); err != nil {
			return nil, err
		}
		b.WriteString("  ")
		b.Write(k)
		b.WriteString(": ")
		if err := json.Indent(&b, compact.Bytes(), "  ", "  "); err != nil {
			return nil, err
		}
		if i < len(o.keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.Bytes(), nil
}
