package messaging

import (
	"context"

	"BakeryStore/internal/domain/order"
	"BakeryStore/pkg/logger"
)

// OrderEventTypePrefix prefixes envelope types of published order events, e.g. "order.status_changed".
const OrderEventTypePrefix = "order."

// PublishingEventSink stores order events in the wrapped sink and then publishes them.
// Publishing is best effort: the stored event is the record of truth.
type PublishingEventSink struct {
	order.EventSink
	publisher Publisher
	logger    *logger.Logger
}

func NewPublishingEventSink(sink order.EventSink, publisher Publisher, l *logger.Logger) *PublishingEventSink {
	return &PublishingEventSink{EventSink: sink, publisher: publisher, logger: l}
}

func (s *PublishingEventSink) CreateOrderEvent(ctx context.Context, event order.NewOrderEvent) (*order.OrderEvent, error) {
	stored, err := s.EventSink.CreateOrderEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	env, err := NewEnvelope(ctx, stored.OrderID, OrderEventTypePrefix+string(stored.Kind), stored,
		WithEventID(stored.EventID), WithTimestamp(stored.CreatedAt))
	if err != nil {
		s.logger.Ctx(ctx).Error("Failed to build order event envelope: event_id=%s, err=%v", stored.EventID, err)
		return stored, nil
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logger.Ctx(ctx).Error("Failed to publish order event: event_id=%s, order_id=%s, err=%v",
			stored.EventID, stored.OrderID, err)
	}
	return stored, nil
}
