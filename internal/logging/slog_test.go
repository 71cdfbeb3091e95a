package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcglabs/authd/internal/correlation"
	"github.com/fcglabs/authd/internal/logging"
)

func captureLogger(buf *bytes.Buffer) logging.Logger {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogLogger(slog.New(handler))
}

func TestSlogLoggerIncludesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf)

	ctx := correlation.WithID(context.Background(), "abc-123")
	log.Info(ctx, "user login", "email", "joaosilva1@x.com")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "user login", entry["msg"])
	assert.Equal(t, "joaosilva1@x.com", entry["email"])
	assert.Equal(t, "abc-123", entry["correlation_id"])
}

func TestSlogLoggerWithoutCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf)

	log.Warn(context.Background(), "cache miss")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	_, present := entry["correlation_id"]
	assert.False(t, present)
}

func TestSlogLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf).With("component", "flows")

	log.Error(context.Background(), "boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "flows", entry["component"])
}
