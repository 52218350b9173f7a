package handler_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"goa.design/lambdatrace/features/handler"
	"goa.design/lambdatrace/features/invoke"
)

const (
	testTraceID     = "4bf92f3577b34da6a3ce929d0e0e4736"
	testSpanID      = "00f067aa0ba902b7"
	testTraceparent = "00-" + testTraceID + "-" + testSpanID + "-01"
)

var w3c = propagation.TraceContext{}

func TestExtractFromLambdaContext(t *testing.T) {
	lc := &lambdacontext.LambdaContext{
		AwsRequestID: "req-1",
		ClientContext: lambdacontext.ClientContext{
			Custom: map[string]string{"traceparent": testTraceparent, "other": "value"},
		},
	}
	ctx := lambdacontext.NewContext(context.Background(), lc)

	sc := trace.SpanContextFromContext(handler.Extract(ctx, w3c))
	require.True(t, sc.IsValid())
	require.True(t, sc.IsRemote())
	require.Equal(t, testTraceID, sc.TraceID().String())
	require.Equal(t, testSpanID, sc.SpanID().String())
}

func TestExtractWithoutLambdaContext(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, ctx, handler.Extract(ctx, w3c))
}

func TestExtractWithoutCustomEntries(t *testing.T) {
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{})
	require.Equal(t, ctx, handler.Extract(ctx, w3c))
}

func TestExtractFromClientContextMalformed(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, ctx, handler.ExtractFromClientContext(ctx, w3c, "@@@"))
	require.Equal(t, ctx, handler.ExtractFromClientContext(ctx, w3c, ""))
}

// TestRoundTrip injects on the calling side and extracts on the receiving
// side the way the Lambda runtime decodes the header.
func TestRoundTrip(t *testing.T) {
	traceID, err := trace.TraceIDFromHex(testTraceID)
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex(testSpanID)
	require.NoError(t, err)
	caller := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	in, ok := invoke.ModifyOrAddCustomContext(caller, &lambda.InvokeInput{FunctionName: aws.String("fn")}, w3c)
	require.True(t, ok)
	encoded := aws.ToString(in.ClientContext)

	sc := trace.SpanContextFromContext(handler.ExtractFromClientContext(context.Background(), w3c, encoded))
	require.Equal(t, traceID, sc.TraceID())
	require.Equal(t, spanID, sc.SpanID())
	require.True(t, sc.IsSampled())

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	var cc lambdacontext.ClientContext
	require.NoError(t, json.Unmarshal(raw, &cc))
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{ClientContext: cc})

	sc = trace.SpanContextFromContext(handler.Extract(ctx, w3c))
	require.Equal(t, traceID, sc.TraceID())
	require.Equal(t, spanID, sc.SpanID())
}
