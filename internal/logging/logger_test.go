package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		records = append(records, record)
	}
	return records
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInfoWritesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-lot-test", "production", "info")

	Info(context.Background(), "vehicle parked", "slot_number", 3)
	Debug(context.Background(), "dropped")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "vehicle parked", records[0]["msg"])
	assert.Equal(t, "parking-lot-test", records[0]["service"])
	assert.Equal(t, "production", records[0]["environment"])
	assert.EqualValues(t, 3, records[0]["slot_number"])
	assert.NotContains(t, records[0], "traceId")
}

func TestDevelopmentEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-lot-test", "development", "info")

	Debug(context.Background(), "free slots recomputed")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "DEBUG", records[0]["level"])
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-lot-test", "production", "info")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	Warn(ctx, "slot not in use")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, span.SpanContext().TraceID().String(), records[0]["traceId"])
	assert.Equal(t, span.SpanContext().SpanID().String(), records[0]["spanId"])
}
