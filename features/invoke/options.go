package invoke

import (
	"time"

	"go.opentelemetry.io/otel/propagation"

	"goa.design/lambdatrace/runtime/telemetry"
)

const (
	// MetricPropagation counts propagation attempts tagged by outcome and
	// reason.
	MetricPropagation = "lambda.client_context.propagation"

	defaultSkipLogInterval = time.Minute
)

// Options configures the propagation middleware.
type Options struct {
	// Propagator serializes the trace context. When nil, the global
	// propagator is looked up on every request so later calls to
	// otel.SetTextMapPropagator take effect.
	Propagator propagation.TextMapPropagator

	// Logger receives diagnostics about skipped propagation. When nil,
	// defaults to a no-op logger.
	Logger telemetry.Logger

	// Metrics records propagation outcomes. When nil, defaults to a no-op
	// recorder.
	Metrics telemetry.Metrics

	// SkipLogInterval bounds how often a warning is logged when a client
	// context is malformed or too large. Every skip is still logged at
	// debug level. When zero or negative, defaults to one minute.
	SkipLogInterval time.Duration

	// Disabled prevents AddMiddleware from installing the middleware.
	Disabled bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = telemetry.NewNoopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = telemetry.NewNoopMetrics()
	}
	if o.SkipLogInterval <= 0 {
		o.SkipLogInterval = defaultSkipLogInterval
	}
	return o
}
