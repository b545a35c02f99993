package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"BakeryStore/pkg/correlation"
	"BakeryStore/pkg/logger"
)

const dlqSource = "bakery-notifications"

// DLQPublisher parks order events the notification worker gave up on.
type DLQPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
	now    func() time.Time
}

func NewDLQPublisher(l *logger.Logger, brokers []string, topic string) *DLQPublisher {
	return &DLQPublisher{writer: newWriter(brokers, topic), logger: l, now: time.Now}
}

// PublishToDLQ keeps the original key and body; the failure goes in headers.
func (p *DLQPublisher) PublishToDLQ(ctx context.Context, key, value []byte, cause error) error {
	msg := dlqMessage(ctx, key, value, cause, p.now())

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Ctx(ctx).Error("Failed to park order event: topic=%s order_id=%s error=%v cause=%v",
			p.writer.Topic, string(key), err, cause)
		return err
	}
	p.logger.Ctx(ctx).Warn("Order event parked in DLQ: topic=%s order_id=%s cause=%v", p.writer.Topic, string(key), cause)
	return nil
}

func dlqMessage(ctx context.Context, key, value []byte, cause error, at time.Time) kafka.Message {
	h := map[string]string{
		"error":     cause.Error(),
		"failed_at": at.UTC().Format(time.RFC3339),
		"source":    dlqSource,
	}
	if id := correlation.FromContext(ctx); id != "" {
		h[correlation.MessageHeaderName] = id
	}
	return kafka.Message{Key: key, Value: value, Headers: toHeaders(h)}
}

func (p *DLQPublisher) Close() error {
	return p.writer.Close()
}
