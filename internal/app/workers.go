package app

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"BakeryStore/config"
	"BakeryStore/internal/controller/message"
	"BakeryStore/internal/domain/notification"
	"BakeryStore/internal/external/kafka"
	"BakeryStore/internal/external/rabbitmq"
	"BakeryStore/internal/messaging"
	"BakeryStore/internal/repo/snapshot"
	"BakeryStore/pkg/health"
	"BakeryStore/pkg/logger"
)

// transport is the order event publisher plus what the notification worker consumes from.
type transport struct {
	publisher messaging.Publisher
	rabbit    *amqp.Connection
	checkers  []health.Checker
}

func (t *transport) Close() {
	if t.publisher != nil {
		_ = t.publisher.Close()
	}
	if t.rabbit != nil {
		_ = t.rabbit.Close()
	}
}

func openTransport(cfg config.Config, l *logger.Logger) (*transport, error) {
	t := &transport{}
	switch cfg.EventsTransport {
	case config.TransportKafka:
		t.publisher = kafka.NewPublisher(l, cfg.KafkaBrokers, cfg.KafkaOrderEventsTopic)
		t.checkers = append(t.checkers, health.NewKafkaChecker(cfg.KafkaBrokers))
	case config.TransportRabbitMQ:
		conn, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		pub, err := rabbitmq.NewPublisher(l, conn, cfg.RabbitMQExchange)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("rabbitmq publisher: %w", err)
		}
		t.rabbit = conn
		t.publisher = pub
		t.checkers = append(t.checkers, health.NewRabbitMQChecker(conn))
	}
	l.Info("Order events transport: %s", cfg.EventsTransport)
	return t, nil
}

// notificationRunner consumes published order events and renders notifications.
func notificationRunner(cfg config.Config, l *logger.Logger, t *transport) *messaging.Runner {
	service := notification.NewNotificationService(notification.NewLogSender(l), l)
	controller := message.NewOrderEventMessageController(l, service)

	var (
		name    string
		worker  messaging.Worker
		handler = messaging.WithRetry(controller.HandleMessage, messaging.DefaultRetryConfig())
	)
	switch cfg.EventsTransport {
	case config.TransportKafka:
		name = "notifications-kafka"
		worker = kafka.NewConsumer(l, cfg.KafkaBrokers, cfg.KafkaOrderEventsTopic, cfg.KafkaNotificationsConsumerGroup)
		handler = messaging.WithDLQ(handler, kafka.NewDLQPublisher(l, cfg.KafkaBrokers, cfg.KafkaDLQTopic))
		handler = messaging.WithMetrics(cfg.KafkaOrderEventsTopic, cfg.KafkaNotificationsConsumerGroup, handler)
	case config.TransportRabbitMQ:
		name = "notifications-rabbitmq"
		worker = rabbitmq.NewConsumer(l, t.rabbit, cfg.RabbitMQExchange, cfg.RabbitMQNotificationsQueue)
		handler = messaging.WithMetrics(cfg.RabbitMQExchange, cfg.RabbitMQNotificationsQueue, handler)
	}

	return messaging.NewRunner(l, handler).Add(name, worker)
}

// startSnapshots restores the memory store from Redis and saves every commit back.
// The returned writer must be run for saves to happen.
func startSnapshots(ctx context.Context, cfg config.Config, l *logger.Logger, s *storage) (*snapshot.Writer, health.Checker, error) {
	client, err := snapshot.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	s.redis = client
	rs := snapshot.NewRedisStore(client, cfg.SnapshotPrefix)

	st, found, err := rs.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	if found {
		s.store.Restore(st)
		l.Info("Snapshot restored: orders=%d, products=%d, users=%d", len(st.Orders), len(st.Products), len(st.Users))
	} else if err := rs.Save(ctx, s.store.Snapshot()); err != nil {
		return nil, nil, fmt.Errorf("save initial snapshot: %w", err)
	}

	writer := snapshot.NewWriter(rs, l, cfg.SnapshotTimeout)
	s.store.OnCommit(writer.Hook)
	return writer, health.NewRedisChecker(client), nil
}
