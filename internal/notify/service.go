package notify

import (
	"context"
	"fmt"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/tracing"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, c Confirmation) error
}

// Service consumes OrderPlaced events and mails the confirmation.
type Service struct {
	Mailer      Sender
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

// HandleOrderPlaced is the consumer handler. Returning nil commits the
// offset. A send failure is returned and logged by the consumer but not
// retried: another worker committing a later offset moves past it.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		s.Log.Error("drop undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	} // ignore

	ctx = tracing.ExtractKafkaHeaders(ctx, m.Headers)
	ctx, span := otel.Tracer("notifier").Start(ctx, "HandleOrderPlaced")
	defer span.End()

	// 2) dedup via Redis, keyed by event_id
	// The key is only set once the mail is out.
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, err := redisx.Exists(ctx, s.Redis, dkey)
	if err != nil {
		s.Log.Warn("dedup check failed, sending anyway", zap.String("event_id", env.EventID), zap.Error(err))
	}
	if exists {
		return nil
	}

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		s.Log.Error("drop bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	// 4) send
	if err := s.Mailer.Send(ctx, FromPayload(p)); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err(); err != nil {
		s.Log.Warn("dedup mark failed", zap.String("event_id", env.EventID), zap.Error(err))
	}
	s.Log.Info("confirmation sent", zap.String("order_id", p.OrderID), zap.String("event_id", env.EventID))
	return nil
}
