package invoke_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

const (
	testTraceID     = "4bf92f3577b34da6a3ce929d0e0e4736"
	testSpanID      = "00f067aa0ba902b7"
	testTraceparent = "00-" + testTraceID + "-" + testSpanID + "-01"
)

type (
	logEntry struct {
		level   string
		msg     string
		keyvals []any
	}

	recordingLogger struct {
		mu      sync.Mutex
		entries []logEntry
	}

	counterEntry struct {
		name  string
		value int64
		tags  []string
	}

	recordingMetrics struct {
		mu       sync.Mutex
		counters []counterEntry
	}
)

func (l *recordingLogger) record(level, msg string, keyvals []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, keyvals: keyvals})
}

func (l *recordingLogger) Debug(_ context.Context, msg string, keyvals ...any) {
	l.record("debug", msg, keyvals)
}

func (l *recordingLogger) Warn(_ context.Context, msg string, keyvals ...any) {
	l.record("warn", msg, keyvals)
}

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func (m *recordingMetrics) IncCounter(_ context.Context, name string, value int64, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, counterEntry{name: name, value: value, tags: tags})
}

func (m *recordingMetrics) last() counterEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[len(m.counters)-1]
}

// tracedContext returns a context carrying a fixed sampled span context.
func tracedContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex(testTraceID)
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex(testSpanID)
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func base64ify(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func decodeClientContext(t *testing.T, encoded string) map[string]any {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func customOf(t *testing.T, encoded string) map[string]any {
	t.Helper()
	custom, ok := decodeClientContext(t, encoded)["custom"].(map[string]any)
	require.True(t, ok, "custom object missing")
	return custom
}
