package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const confirmTimeout = 5 * time.Second

// Publisher pushes incident notifications through the configured
// exchange. The channel runs in confirm mode: a publish only succeeds
// once the broker acks it.
type Publisher struct {
	ch         *amqp091.Channel
	confirms   <-chan amqp091.Confirmation
	exchange   string
	routingKey string
}

func NewPublisher(conn *amqp091.Connection, exchange, routingKey string) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("amqp connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &Publisher{
		ch:         ch,
		confirms:   ch.NotifyPublish(make(chan amqp091.Confirmation, 100)),
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// PublishNotification queues one incident notification and waits for the
// broker to confirm it.
func (p *Publisher) PublishNotification(ctx context.Context, n IncidentNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = p.ch.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	select {
	case confirm := <-p.confirms:
		if !confirm.Ack {
			return errors.New("broker rejected notification")
		}
	case <-time.After(confirmTimeout):
		return errors.New("publish confirm timed out")
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
