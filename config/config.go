package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"

	TransportNone     = "none"
	TransportKafka    = "kafka"
	TransportRabbitMQ = "rabbitmq"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Store backend: "memory" (default) or "postgres"
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	PgURL        string `env:"PG_URL"`
	PgPoolMax    int    `env:"PG_POOL_MAX" envDefault:"10"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"bakery-dev-secret"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	DeliveryFee               decimal.Decimal `env:"DELIVERY_FEE" envDefault:"5.00"`
	DefaultVendor             string          `env:"DEFAULT_VENDOR" envDefault:"Chef Pierre"`
	OTPTTL                    time.Duration   `env:"OTP_TTL" envDefault:"0s"`
	HandoffRequirePreTerminal bool            `env:"HANDOFF_REQUIRE_PRE_TERMINAL" envDefault:"true"`
	LowStockThreshold         int             `env:"LOW_STOCK_THRESHOLD" envDefault:"5"`
	SeedFile                  string          `env:"SEED_FILE"`

	// Redis snapshot of the memory store; empty disables persistence
	RedisURL        string        `env:"REDIS_URL"`
	SnapshotPrefix  string        `env:"SNAPSHOT_PREFIX" envDefault:"bakery:"`
	SnapshotTimeout time.Duration `env:"SNAPSHOT_TIMEOUT" envDefault:"5s"`

	// Order event transport: "none", "kafka" or "rabbitmq"
	EventsTransport string `env:"EVENTS_TRANSPORT" envDefault:"none"`

	KafkaBrokers                    []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaOrderEventsTopic           string   `env:"KAFKA_ORDER_EVENTS_TOPIC" envDefault:"bakery.order-events"`
	KafkaNotificationsConsumerGroup string   `env:"KAFKA_NOTIFICATIONS_CONSUMER_GROUP" envDefault:"bakery-notifications"`
	KafkaDLQTopic                   string   `env:"KAFKA_DLQ_TOPIC" envDefault:"bakery.order-events.dlq"`

	RabbitMQURL                string `env:"RABBITMQ_URL"`
	RabbitMQExchange           string `env:"RABBITMQ_EXCHANGE" envDefault:"bakery.order-events"`
	RabbitMQNotificationsQueue string `env:"RABBITMQ_NOTIFICATIONS_QUEUE" envDefault:"bakery.notifications"`

	NotificationsWorker bool `env:"NOTIFICATIONS_WORKER" envDefault:"false"`
}

// New loads .env when present and parses the environment.
func New() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.PgURL == "" {
			return errors.New("PG_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.EventsTransport {
	case TransportNone:
		if c.NotificationsWorker {
			return errors.New("NOTIFICATIONS_WORKER needs an EVENTS_TRANSPORT")
		}
	case TransportKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka transport")
		}
	case TransportRabbitMQ:
		if c.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required for the rabbitmq transport")
		}
	default:
		return fmt.Errorf("unknown EVENTS_TRANSPORT %q", c.EventsTransport)
	}

	if c.DeliveryFee.IsNegative() {
		return errors.New("DELIVERY_FEE must not be negative")
	}
	if c.OTPTTL < 0 {
		return errors.New("OTP_TTL must not be negative")
	}
	return nil
}
