// Package telemetry defines the logging and metrics surfaces used by the
// propagation middleware together with Clue-backed and no-op
// implementations.
package telemetry

import "context"

type (
	// Logger captures structured logging. Implementations typically delegate
	// to Clue but the interface is small so tests can provide lightweight
	// stubs.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics exposes the counter helper used to report propagation
	// outcomes.
	Metrics interface {
		IncCounter(ctx context.Context, name string, value int64, tags ...string)
	}
)
