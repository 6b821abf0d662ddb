package ui

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ColorMode controls whether the printer emits ANSI colors.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type styles struct {
	header  *color.Color
	ok      *color.Color
	warning *color.Color
	fail    *color.Color
	muted   *color.Color
}

func newStyles(enabled bool) styles {
	s := styles{
		header:  color.New(color.FgCyan, color.Bold),
		ok:      color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
		muted:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{s.header, s.ok, s.warning, s.fail, s.muted} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// UseColor resolves mode for writer w. Auto mode colors only terminals and
// honors NO_COLOR.
func UseColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
