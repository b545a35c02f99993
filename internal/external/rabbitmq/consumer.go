package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"BakeryStore/internal/messaging"
	"BakeryStore/pkg/correlation"
	"BakeryStore/pkg/logger"
)

// Consumer implements messaging.Worker with a durable queue bound to the order events exchange.
type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
	logger   *logger.Logger
}

func NewConsumer(l *logger.Logger, conn *amqp.Connection, exchange, queue string) *Consumer {
	return &Consumer{conn: conn, exchange: exchange, queue: queue, logger: l}
}

func (c *Consumer) Start(ctx context.Context, handler messaging.MessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	c.ch = ch

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(c.queue, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("Consumer started: exchange=%s queue=%s", c.exchange, c.queue)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopped (context cancelled)")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed: queue=%s", c.queue)
			}
			c.handle(ctx, d, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery, handler messaging.MessageHandler) {
	if d.CorrelationId != "" {
		ctx = correlation.WithID(ctx, d.CorrelationId)
	}
	if err := handler(ctx, []byte(d.RoutingKey), d.Body); err != nil {
		c.logger.Ctx(ctx).Error("Handler error, message requeued: queue=%s message_id=%s error=%v", c.queue, d.MessageId, err)
		_ = d.Nack(false, true)
		return
	}
	if err := d.Ack(false); err != nil {
		c.logger.Ctx(ctx).Error("Failed to ack message: queue=%s message_id=%s error=%v", c.queue, d.MessageId, err)
	}
}

func (c *Consumer) Close() error {
	if c.ch == nil {
		return nil
	}
	return c.ch.Close()
}
