// Package handler restores the trace context propagated by invoke on the
// receiving Lambda function. The invoking side stores the propagation fields
// in the "custom" object of the client context, which the Lambda runtime
// exposes through lambdacontext.
package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"goa.design/lambdatrace/runtime/clientcontext"
)

// Extract returns ctx augmented with the trace context found in the custom
// client-context entries of the Lambda invocation carried by ctx. ctx is
// returned unchanged when it carries no Lambda context or no custom entries.
// A nil prop selects the global propagator.
func Extract(ctx context.Context, prop propagation.TextMapPropagator) context.Context {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok || lc == nil || len(lc.ClientContext.Custom) == 0 {
		return ctx
	}
	return extract(ctx, prop, lc.ClientContext.Custom)
}

// ExtractFromClientContext is Extract for a raw encoded client-context
// header. Malformed headers are ignored.
func ExtractFromClientContext(ctx context.Context, prop propagation.TextMapPropagator, encoded string) context.Context {
	fields, err := clientcontext.Fields(encoded)
	if err != nil || len(fields) == 0 {
		return ctx
	}
	return extract(ctx, prop, fields)
}

func extract(ctx context.Context, prop propagation.TextMapPropagator, fields map[string]string) context.Context {
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}
	return prop.Extract(ctx, propagation.MapCarrier(fields))
}
