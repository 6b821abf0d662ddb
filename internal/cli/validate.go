package cli

import (
	"context"
	"io"

	"github.com/chaz8081/validate-marketplace/internal/cli/ui"
	"github.com/chaz8081/validate-marketplace/internal/engine"
	"github.com/chaz8081/validate-marketplace/internal/logger"
)

// runValidate validates the session's repository once and prints the report.
// A fatal manifest error is part of the returned report.
func runValidate(ctx context.Context, out io.Writer, s *session) *engine.Report {
	v := &engine.Validator{
		Root:          s.Root,
		Layout:        s.Config.Layout(),
		StrictVersion: s.Config.StrictVersion,
	}
	r, err := v.Validate(logger.WithLogger(ctx, logger.G(ctx).WithField("source", s.Source.Name())))
	if err != nil {
		logger.G(ctx).WithError(err).Debug("validation aborted")
	}
	ui.NewPrinter(out, ui.ColorMode(s.Config.Color)).Print(r)
	return r
}
