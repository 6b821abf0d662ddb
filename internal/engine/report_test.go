package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_CountsAndExitCode(t *testing.T) {
	r := &Report{}
	s := r.section(SectionSkills)
	s.add(LevelOK, "./skills/a", "a (./skills/a)")
	s.add(LevelWarning, "./skills/b", "Unregistered skill: ./skills/b")
	assert.Equal(t, 0, r.Errors())
	assert.Equal(t, 1, r.Warnings())
	assert.Equal(t, 0, r.ExitCode(), "warnings never fail a run")
	assert.NoError(t, r.Err())

	s.add(LevelError, "./skills/c", "Missing SKILL.md for ./skills/c")
	s.add(LevelError, "./skills/d", "Missing SKILL.md for ./skills/d")
	assert.Equal(t, 2, r.Errors())
	assert.Equal(t, 1, r.ExitCode())

	err := r.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "./skills/d")
}

func TestReport_FatalFailsWithoutFindings(t *testing.T) {
	r := &Report{Fatal: errors.New("plugin.json is not valid JSON")}
	assert.Equal(t, 0, r.Errors())
	assert.Equal(t, 1, r.ExitCode())
	assert.ErrorContains(t, r.Err(), "plugin.json is not valid JSON")
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "fatal", LevelFatal.String())
	assert.Equal(t, "unknown", Level(42).String())
}
