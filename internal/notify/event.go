package notify

import (
	"context"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/tracing"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
	"time"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// EventNotifier hands the confirmation off to cmd/notifier through Kafka.
type EventNotifier struct {
	Producer    Publisher
	ServiceName string
}

func (n *EventNotifier) Notify(ctx context.Context, o orders.Order) error {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      n.ServiceName,
		CorrelationID: o.ID,
		Payload:       kafkax.MustMarshal(orders.PlacedPayload(o)),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		ev.TraceID = sc.TraceID().String()
	}
	headers := tracing.InjectKafkaHeaders(ctx, kafkax.EventHeaders(ev.EventType, ev.EventVersion))
	n.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev), headers...)
	return nil
}
