package engine

import (
	"errors"

	"github.com/chaz8081/validate-marketplace/internal/manifest"
	"github.com/hashicorp/go-multierror"
)

// Level is the severity of a single finding.
type Level int

const (
	LevelOK Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelOK:
		return "ok"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Section titles, in the order a run produces them.
const (
	SectionSyntax             = "Checking JSON syntax"
	SectionSkills             = "Checking skills"
	SectionAgents             = "Checking agents"
	SectionVersion            = "Checking plugin version"
	SectionUnregisteredSkills = "Checking for unregistered skills"
	SectionUnregisteredAgents = "Checking for unregistered agents"
)

// Finding is one line of validator output.
type Finding struct {
	Level   Level
	Message string
	Entry   string // manifest-style path the finding is about, if any
}

// Section groups the findings of one check.
type Section struct {
	Title    string
	Findings []Finding
}

func (s *Section) add(level Level, entry, msg string) {
	s.Findings = append(s.Findings, Finding{Level: level, Message: msg, Entry: entry})
}

// Summary holds the totals printed at the end of a run.
type Summary struct {
	Skills    int
	Agents    int
	Mode      manifest.AgentsMode
	AgentsDir string // directory-mode path as written in the manifest
	Version   string
}

// Report is the outcome of one validation run.
type Report struct {
	Root     string
	Sections []*Section
	Summary  *Summary // nil when a fatal error stopped the run
	Fatal    error

	// Entries found on disk but missing from plugin.json.
	UnregisteredSkills []string
	UnregisteredAgents []string
}

func (r *Report) section(title string) *Section {
	s := &Section{Title: title}
	r.Sections = append(r.Sections, s)
	return s
}

func (r *Report) count(level Level) int {
	n := 0
	for _, s := range r.Sections {
		for _, f := range s.Findings {
			if f.Level == level {
				n++
			}
		}
	}
	return n
}

// Errors returns the number of consistency errors.
func (r *Report) Errors() int { return r.count(LevelError) }

// Warnings returns the number of consistency warnings.
func (r *Report) Warnings() int { return r.count(LevelWarning) }

// ExitCode is 1 when the run hit a fatal error or found any error, else 0.
// Warnings never affect it.
func (r *Report) ExitCode() int {
	if r.Fatal != nil || r.Errors() > 0 {
		return 1
	}
	return 0
}

// Err aggregates the fatal error and every error finding, or returns nil.
func (r *Report) Err() error {
	var result *multierror.Error
	if r.Fatal != nil {
		result = multierror.Append(result, r.Fatal)
	}
	for _, s := range r.Sections {
		for _, f := range s.Findings {
			if f.Level == LevelError {
				result = multierror.Append(result, errors.New(f.Message))
			}
		}
	}
	return result.ErrorOrNil()
}
