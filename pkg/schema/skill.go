package schema

import (
	"bytes"
	"errors"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

const frontmatterDelim = "---\n"

// Skill is the front matter of a SKILL.md marker file.
type Skill struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Version      string   `yaml:"version,omitempty"`
	Tags         []string `yaml:"tags,omitempty"`
	Instructions string   `yaml:"-"` // markdown body, not in frontmatter
}

// Agent is the front matter of an agent definition file.
type Agent struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Model       string   `yaml:"model,omitempty"`
	Tools       []string `yaml:"tools,omitempty"`
	Body        string   `yaml:"-"`
}

// ParseSkillFile parses a SKILL.md file content into a Skill struct.
// It splits YAML frontmatter (between --- delimiters) from the markdown body.
func ParseSkillFile(content []byte) (*Skill, error) {
	s := &Skill{}
	body, err := splitFrontmatter(content, s)
	if err != nil {
		return nil, err
	}
	s.Instructions = body
	return s, nil
}

// ParseAgentFile parses an agent markdown file the same way as ParseSkillFile.
func ParseAgentFile(content []byte) (*Agent, error) {
	a := &Agent{}
	body, err := splitFrontmatter(content, a)
	if err != nil {
		return nil, err
	}
	a.Body = body
	return a, nil
}

// splitFrontmatter decodes the frontmatter block into out and returns the
// trimmed markdown body. Content without frontmatter is all body.
func splitFrontmatter(content []byte, out interface{}) (string, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return "", errors.New("empty content")
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if strings.HasPrefix(text, frontmatterDelim) {
		// parts[0] is "" before first, parts[1] is yaml, parts[2] is rest
		parts := strings.SplitN(text, frontmatterDelim, 3)
		if len(parts) >= 3 {
			if err := yaml.Unmarshal([]byte(parts[1]), out); err != nil {
				return "", err
			}
			return strings.TrimSpace(parts[2]), nil
		}
	}

	return strings.TrimSpace(text), nil
}

// DisplayName returns the name a marker or agent file declares for itself.
// The frontmatter "name" wins when it parses; otherwise the first line that
// starts with "name:" is used. Files without either yield "".
func DisplayName(content []byte) string {
	var meta struct {
		Name string `yaml:"name"`
	}
	if _, err := splitFrontmatter(content, &meta); err == nil {
		if name := strings.TrimSpace(meta.Name); name != "" {
			return name
		}
	}
	return scanNameLine(content)
}

func scanNameLine(content []byte) string {
	// lines can exceed bufio.Scanner's token limit
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "name:") {
			continue
		}
		v := strings.TrimSpace(strings.TrimPrefix(line, "name:"))
		if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
			v = v[1 : len(v)-1]
		}
		return v
	}
	return ""
}
