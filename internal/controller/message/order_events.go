package message

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/messaging"
	"BakeryStore/pkg/correlation"
	"BakeryStore/pkg/logger"
)

type Notifier interface {
	Notify(ctx context.Context, event order.OrderEvent) error
}

// OrderEventMessageController handles published order events and fans them out as notifications.
type OrderEventMessageController struct {
	logger   *logger.Logger
	notifier Notifier
}

func NewOrderEventMessageController(l *logger.Logger, n Notifier) *OrderEventMessageController {
	return &OrderEventMessageController{
		logger:   l,
		notifier: n,
	}
}

// HandleMessage processes a single order event message.
func (c *OrderEventMessageController) HandleMessage(ctx context.Context, key, value []byte) error {
	var env messaging.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		c.logger.Ctx(ctx).Error("Failed to unmarshal envelope: key=%s error=%v", string(key), err)
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.CorrelationID != "" && correlation.FromContext(ctx) == "" {
		ctx = correlation.WithID(ctx, env.CorrelationID)
	}
	l := c.logger.Ctx(ctx)

	if !strings.HasPrefix(env.Type, messaging.OrderEventTypePrefix) {
		l.Debug("Skipping message: event_id=%s type=%s", env.EventID, env.Type)
		return nil
	}

	var event order.OrderEvent
	if err := json.Unmarshal(env.Payload, &event); err != nil {
		l.Error("Failed to unmarshal order event: event_id=%s error=%v", env.EventID, err)
		return fmt.Errorf("unmarshal order event: %w", err)
	}

	if err := c.notifier.Notify(ctx, event); err != nil {
		l.Error("Failed to notify: event_id=%s order_id=%s kind=%s error=%v",
			env.EventID, event.OrderID, event.Kind, err)
		return err
	}

	l.Info("Order event processed: event_id=%s order_id=%s kind=%s", env.EventID, event.OrderID, event.Kind)
	return nil
}
