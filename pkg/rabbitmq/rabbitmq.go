package rabbitmq

import (
	"fmt"
	"time"

	"statusdeck/config"

	"github.com/rabbitmq/amqp091-go"
)

const (
	dialAttempts = 5
	dialWait     = 2 * time.Second
)

// NewConnection dials the broker, waiting out short broker restarts.
func NewConnection(rmqCfg *config.RabbitMQConfig) (*amqp091.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp091.Dial(rmqCfg.BrokerLink)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(dialWait)
	}
	return nil, fmt.Errorf("dial rabbitmq after %d attempts: %w", dialAttempts, lastErr)
}

// SetupTopology declares the incident notification exchange and queue and
// binds them. Declarations are idempotent, so every instance runs this at
// startup.
func SetupTopology(conn *amqp091.Connection, rmqCfg *config.RabbitMQConfig) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		rmqCfg.ExchangeName,
		rmqCfg.ExchangeType,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", rmqCfg.ExchangeName, err)
	}

	_, err = ch.QueueDeclare(
		rmqCfg.QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", rmqCfg.QueueName, err)
	}

	err = ch.QueueBind(
		rmqCfg.QueueName,
		rmqCfg.RoutingKey,
		rmqCfg.ExchangeName,
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue %s: %w", rmqCfg.QueueName, err)
	}

	return nil
}
