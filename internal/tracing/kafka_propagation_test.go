package tracing

import (
	"context"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"testing"
)

func TestKafkaHeadersRoundTrip(t *testing.T) {
	Setup()

	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), sc)

	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: "x-event-type", Value: []byte("OrderPlaced")}})
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", Header(headers, TraceparentHeader))
	assert.Equal(t, "OrderPlaced", Header(headers, "x-event-type"))

	got := trace.SpanContextFromContext(ExtractKafkaHeaders(context.Background(), headers))
	assert.Equal(t, tid, got.TraceID())
	assert.True(t, got.IsRemote())
}

func TestInjectWithoutSpanAddsNothing(t *testing.T) {
	Setup()
	headers := InjectKafkaHeaders(context.Background(), nil)
	assert.Empty(t, Header(headers, TraceparentHeader))
}
