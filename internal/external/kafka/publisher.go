// Package kafka carries order events over Kafka: a publisher keyed by order id,
// a consumer-group worker for notifications and a dead letter publisher.
package kafka

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/segmentio/kafka-go"

	"BakeryStore/internal/messaging"
	"BakeryStore/pkg/logger"
)

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// toHeaders sorts keys so records are byte-stable across publishes.
func toHeaders(m map[string]string) []kafka.Header {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(m[k])})
	}
	return headers
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Publisher keys every message by order id so one order's events stay on one partition in order.
type Publisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewPublisher(l *logger.Logger, brokers []string, topic string) *Publisher {
	return &Publisher{writer: newWriter(brokers, topic), logger: l}
}

func (p *Publisher) Publish(ctx context.Context, env messaging.Envelope) error {
	msg, err := envelopeMessage(env)
	if err != nil {
		return err
	}

	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Ctx(ctx).Error("Failed to publish order event: topic=%s order_id=%s event_id=%s error=%v",
			p.writer.Topic, env.Key, env.EventID, err)
		return err
	}
	p.logger.Ctx(ctx).Debug("Order event published: topic=%s order_id=%s type=%s", p.writer.Topic, env.Key, env.Type)
	return nil
}

func envelopeMessage(env messaging.Envelope) (kafka.Message, error) {
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:     []byte(env.Key),
		Value:   value,
		Headers: toHeaders(env.Headers()),
		Time:    env.Timestamp,
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
