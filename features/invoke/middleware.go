package invoke

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/smithy-go/middleware"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"

	"goa.design/lambdatrace/runtime/telemetry"
)

// MiddlewareID identifies the propagation middleware in a smithy stack.
const MiddlewareID = "LambdaClientContextPropagation"

// Middleware is a smithy-go initialize middleware that merges trace
// propagation fields into the client context of Invoke and
// InvokeWithResponseStream requests. Other operations pass through.
type Middleware struct {
	prop    propagation.TextMapPropagator
	logger  telemetry.Logger
	metrics telemetry.Metrics
	warn    *rate.Sometimes
}

// NewMiddleware constructs the propagation middleware.
func NewMiddleware(opts Options) *Middleware {
	opts = opts.withDefaults()
	return &Middleware{
		prop:    opts.Propagator,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		warn:    &rate.Sometimes{First: 1, Interval: opts.SkipLogInterval},
	}
}

// AddMiddleware installs the propagation middleware on stack unless
// opts.Disabled is set.
func AddMiddleware(stack *middleware.Stack, opts Options) error {
	if opts.Disabled {
		return nil
	}
	return stack.Initialize.Add(NewMiddleware(opts), middleware.After)
}

// WithTracePropagation returns a Lambda client option that installs the
// propagation middleware:
//
//	client := lambda.NewFromConfig(cfg, invoke.WithTracePropagation(invoke.Options{}))
func WithTracePropagation(opts Options) func(*lambda.Options) {
	return lambda.WithAPIOptions(func(stack *middleware.Stack) error {
		return AddMiddleware(stack, opts)
	})
}

// ID implements middleware.InitializeMiddleware.
func (*Middleware) ID() string {
	return MiddlewareID
}

// HandleInitialize implements middleware.InitializeMiddleware.
func (m *Middleware) HandleInitialize(ctx context.Context, in middleware.InitializeInput, next middleware.InitializeHandler) (middleware.InitializeOutput, middleware.Metadata, error) {
	switch params := in.Parameters.(type) {
	case *lambda.InvokeInput:
		if cc, ok := m.propagate(ctx, "Invoke", params.ClientContext); ok {
			p := *params
			p.ClientContext = aws.String(cc)
			in.Parameters = &p
		}
	case *lambda.InvokeWithResponseStreamInput:
		if cc, ok := m.propagate(ctx, "InvokeWithResponseStream", params.ClientContext); ok {
			p := *params
			p.ClientContext = aws.String(cc)
			in.Parameters = &p
		}
	}
	return next.HandleInitialize(ctx, in)
}

func (m *Middleware) propagate(ctx context.Context, operation string, current *string) (string, bool) {
	cc, err := propagate(ctx, m.prop, current)
	if err == nil {
		m.metrics.IncCounter(ctx, MetricPropagation, 1, "outcome", "injected", "operation", operation)
		return cc, true
	}
	reason := skipReason(err)
	m.metrics.IncCounter(ctx, MetricPropagation, 1, "outcome", "skipped", "operation", operation, "reason", reason)
	m.logger.Debug(ctx, "lambda client context left unchanged", "operation", operation, "reason", reason, "err", err)
	if reason != reasonNoFields {
		m.warn.Do(func() {
			m.logger.Warn(ctx, "trace context not propagated to lambda", "operation", operation, "reason", reason, "err", err)
		})
	}
	return "", false
}
