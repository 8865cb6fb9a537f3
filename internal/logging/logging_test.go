package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupConsoleLevels(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	Setup(Options{Console: &buf})
	slog.Info("hidden")
	slog.Warn("shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("default level output = %q", out)
	}

	buf.Reset()
	Setup(Options{Console: &buf, Verbose: true})
	slog.Debug("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("verbose output = %q", buf.String())
	}
}
