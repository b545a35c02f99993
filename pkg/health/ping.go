package health

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// Pinger is anything with a context-aware Ping, such as *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker reports up while ping succeeds.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

// NewPostgresChecker pings the connection pool.
func NewPostgresChecker(pool Pinger) *PingChecker {
	return NewPingChecker("postgres", pool.Ping)
}

// NewRedisChecker pings the snapshot store.
func NewRedisChecker(client *redis.Client) *PingChecker {
	return NewPingChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// NewKafkaChecker succeeds when any broker accepts a connection.
func NewKafkaChecker(brokers []string) *PingChecker {
	return NewPingChecker("kafka", func(ctx context.Context) error {
		for _, broker := range brokers {
			conn, err := kafka.DialContext(ctx, "tcp", broker)
			if err == nil {
				return conn.Close()
			}
		}
		return errors.New("all brokers unreachable")
	})
}

func (c *PingChecker) Name() string {
	return c.name
}

func (c *PingChecker) Check(ctx context.Context) Result {
	if err := c.ping(ctx); err != nil {
		return Result{Status: StatusDown, Message: err.Error()}
	}
	return Result{Status: StatusUp}
}
