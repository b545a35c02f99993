package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"BakeryStore/internal/messaging"
	"BakeryStore/pkg/logger"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements messaging.Publisher on a RabbitMQ fanout exchange.
type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
	logger   *logger.Logger
}

func NewPublisher(l *logger.Logger, conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return newPublisher(l, ch, exchange), nil
}

func newPublisher(l *logger.Logger, ch Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, logger: l}
}

func (p *Publisher) Publish(ctx context.Context, env messaging.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	headers := amqp.Table{}
	for k, v := range env.Headers() {
		headers[k] = v
	}
	msg := amqp.Publishing{
		Headers:       headers,
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		CorrelationId: env.CorrelationID,
		MessageId:     env.EventID,
		Type:          env.Type,
		Timestamp:     env.Timestamp,
		Body:          body,
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, env.Key, false, false, msg); err != nil {
		p.logger.Ctx(ctx).Error("Failed to publish message: exchange=%s key=%s error=%v", p.exchange, env.Key, err)
		return fmt.Errorf("publish: %w", err)
	}

	p.logger.Ctx(ctx).Debug("Message published: exchange=%s key=%s event_id=%s", p.exchange, env.Key, env.EventID)
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
