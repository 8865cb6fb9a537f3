package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), model.TelemetryConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestSetupWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry", "dtl.log")
	ctx := context.Background()

	shutdown, err := Setup(ctx, model.TelemetryConfig{Enable: true, LogFile: path})
	if err != nil {
		t.Fatal(err)
	}

	_, span := Tracer().Start(ctx, "test")
	span.End()
	RecordSubmission(ctx, "create", nil)
	RecordSubmission(ctx, "day", errors.New("boom"))
	RecordAttachmentsRejected(ctx, 2)
	RecordAPIRequest(ctx, "FetchDailyTasks", 200)

	if err := shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("telemetry log is empty after shutdown")
	}
}
