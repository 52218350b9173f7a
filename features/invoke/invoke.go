// Package invoke propagates the active trace context into AWS Lambda direct
// invocations. The propagation fields produced by an OpenTelemetry
// TextMapPropagator are merged into the "custom" object of the request's
// client-context header so the invoked function can continue the trace.
//
// Propagation never breaks an invocation: when the header cannot be merged
// (nothing to propagate, malformed existing header, or a result that would
// exceed the Lambda size limit) the request is left as is.
package invoke

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"goa.design/lambdatrace/runtime/clientcontext"
)

// Reasons reported when a client context is left unchanged.
const (
	reasonNoFields  = "no_fields"
	reasonMalformed = "malformed"
	reasonTooLarge  = "too_large"
	reasonUnknown   = "unknown"
)

// ModifyOrAddCustomContext returns a copy of in whose client context carries
// the propagation fields prop serializes from ctx. The boolean result is
// false when no modification is possible, in which case the returned input
// is nil and in should be sent unchanged. in is never mutated. A nil prop
// selects the global propagator.
func ModifyOrAddCustomContext(ctx context.Context, in *lambda.InvokeInput, prop propagation.TextMapPropagator) (*lambda.InvokeInput, bool) {
	if in == nil {
		return nil, false
	}
	cc, err := propagate(ctx, prop, in.ClientContext)
	if err != nil {
		return nil, false
	}
	out := *in
	out.ClientContext = aws.String(cc)
	return &out, true
}

// ModifyOrAddStreamCustomContext is ModifyOrAddCustomContext for
// InvokeWithResponseStream requests.
func ModifyOrAddStreamCustomContext(ctx context.Context, in *lambda.InvokeWithResponseStreamInput, prop propagation.TextMapPropagator) (*lambda.InvokeWithResponseStreamInput, bool) {
	if in == nil {
		return nil, false
	}
	cc, err := propagate(ctx, prop, in.ClientContext)
	if err != nil {
		return nil, false
	}
	out := *in
	out.ClientContext = aws.String(cc)
	return &out, true
}

// propagate returns the encoded client context obtained by merging the
// fields injected by prop into current.
func propagate(ctx context.Context, prop propagation.TextMapPropagator, current *string) (string, error) {
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}
	carrier := propagation.MapCarrier{}
	prop.Inject(ctx, carrier)
	return clientcontext.Merge(aws.ToString(current), carrier)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, clientcontext.ErrNoFields):
		return reasonNoFields
	case errors.Is(err, clientcontext.ErrMalformed):
		return reasonMalformed
	case errors.Is(err, clientcontext.ErrTooLarge):
		return reasonTooLarge
	default:
		return reasonUnknown
	}
}
