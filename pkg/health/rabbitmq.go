package health

import "context"

// ConnectionState is implemented by *amqp091.Connection.
type ConnectionState interface {
	IsClosed() bool
}

// RabbitMQChecker reports down once the broker connection has been closed.
type RabbitMQChecker struct {
	conn ConnectionState
}

func NewRabbitMQChecker(conn ConnectionState) *RabbitMQChecker {
	return &RabbitMQChecker{conn: conn}
}

func (c *RabbitMQChecker) Name() string {
	return "rabbitmq"
}

func (c *RabbitMQChecker) Check(_ context.Context) Result {
	if c.conn.IsClosed() {
		return Result{Status: StatusDown, Message: "connection closed"}
	}
	return Result{Status: StatusUp}
}
