// Package logging configures the default slog logger for diagnostics.
// User-facing output is printed by the commands, not logged.
package logging

import (
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/nakachan-ing/dtl-cli/internal/telemetry"
)

type Options struct {
	// Telemetry routes records to the OpenTelemetry logger provider.
	Telemetry bool
	// Verbose lowers the console level to debug.
	Verbose bool
	Console io.Writer
}

// Setup installs and returns the default logger. With telemetry
// enabled records go to the OpenTelemetry bridge; otherwise warnings
// and errors (everything when verbose) are written to the console.
func Setup(opts Options) *slog.Logger {
	var logger *slog.Logger
	if opts.Telemetry && !opts.Verbose {
		logger = otelslog.NewLogger(telemetry.InstrumentationName)
	} else {
		level := slog.LevelWarn
		if opts.Verbose {
			level = slog.LevelDebug
		}
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		logger = slog.New(slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}))
	}
	slog.SetDefault(logger)
	return logger
}
