package kafka

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"

	"BakeryStore/internal/messaging"
	"BakeryStore/pkg/correlation"
	"BakeryStore/pkg/logger"
)

// Consumer reads order events as part of a consumer group. Offsets are committed only after
// the handler succeeds, so a failed event is fetched again after a restart.
type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

func NewConsumer(l *logger.Logger, brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{
		reader: reader,
		logger: l,
	}
}

// Start begins consuming messages and passes them to the handler.
// Blocks until context is cancelled or an unrecoverable error occurs.
func (c *Consumer) Start(ctx context.Context, handler messaging.MessageHandler) error {
	c.logger.Info("Consumer started: topic=%s group_id=%s",
		c.reader.Config().Topic, c.reader.Config().GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.logger.Info("Consumer stopped (context cancelled)")
				return nil
			}
			c.logger.Error("Failed to fetch message: error=%v", err)
			return err
		}

		msgCtx := withHeaderCorrelation(ctx, msg.Headers)
		c.logger.Ctx(msgCtx).Debug("Order event received: partition=%d offset=%d order_id=%s type=%s",
			msg.Partition, msg.Offset, string(msg.Key), headerValue(msg.Headers, messaging.HeaderEventType))

		if err := handler(msgCtx, msg.Key, msg.Value); err != nil {
			c.logger.Ctx(msgCtx).Error("Order event not handled, offset kept: partition=%d offset=%d order_id=%s error=%v",
				msg.Partition, msg.Offset, string(msg.Key), err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message: topic=%s partition=%d offset=%d error=%v",
				msg.Topic, msg.Partition, msg.Offset, err)
			return err
		}
	}
}

func (c *Consumer) Close() error {
	c.logger.Info("Closing consumer: topic=%s group_id=%s",
		c.reader.Config().Topic, c.reader.Config().GroupID)
	return c.reader.Close()
}

func withHeaderCorrelation(ctx context.Context, headers []kafka.Header) context.Context {
	if id := headerValue(headers, correlation.MessageHeaderName); id != "" {
		return correlation.WithID(ctx, id)
	}
	return ctx
}
