package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("file processed", "path", "web/pom.xml")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "file processed" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["path"] != "web/pom.xml" {
		t.Errorf("path = %v", record["path"])
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("hidden")
	logger.Info("also hidden")
	if buf.Len() != 0 {
		t.Errorf("below-level records should be dropped, got %q", buf.String())
	}

	logger.Warn("visible")
	if buf.Len() == 0 {
		t.Error("warn record should be written")
	}
}

func TestNewCorrelationID(t *testing.T) {
	a := NewCorrelationID()
	b := NewCorrelationID()

	if a == "" || b == "" {
		t.Fatal("ids should be non-empty")
	}
	if a == b {
		t.Error("ids should be unique")
	}
	if len(a) != 26 {
		t.Errorf("len(id) = %d, want 26 (ULID)", len(a))
	}
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "run-42")
	if got := CorrelationID(ctx); got != "run-42" {
		t.Errorf("CorrelationID = %q, want %q", got, "run-42")
	}

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID of bare context = %q, want empty", got)
	}

	// Empty id gets a generated one.
	ctx = WithCorrelationID(context.Background(), "")
	if got := CorrelationID(ctx); got == "" {
		t.Error("empty id should be replaced with a generated one")
	}
}

func TestRunLogger(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, slog.LevelInfo)
	ctx := WithCorrelationID(context.Background(), "run-7")

	RunLogger(base, ctx, "pomsmith.yaml").Info("hello")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["recipe"] != "pomsmith.yaml" {
		t.Errorf("recipe = %v", record["recipe"])
	}
	if record["correlation_id"] != "run-7" {
		t.Errorf("correlation_id = %v", record["correlation_id"])
	}
}
