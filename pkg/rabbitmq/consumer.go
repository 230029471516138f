package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const deliveryTimeout = 10 * time.Second

// Handler processes one delivery. A nil return acks the message, an
// error nacks it without requeue.
type Handler interface {
	Handle(ctx context.Context, msg amqp091.Delivery) error
}

// Consumer drains the notification queue with a bounded worker pool.
type Consumer struct {
	ch        *amqp091.Channel
	queueName string
	tag       string
	slots     chan struct{}
	wg        sync.WaitGroup
	logger    *zerolog.Logger
}

func NewConsumer(conn *amqp091.Connection, queueName string, workers int, logger *zerolog.Logger) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("amqp connection is nil")
	}
	if workers <= 0 {
		workers = 1
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Prefetch matches the pool so the broker never buries a slow instance.
	if err := ch.Qos(workers, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		ch:        ch,
		queueName: queueName,
		tag:       uuid.NewString(),
		slots:     make(chan struct{}, workers),
		logger:    logger,
	}, nil
}

// Consume pumps deliveries through the handler until ctx is cancelled
// and the in-flight workers drain.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	msgs, err := c.ch.Consume(
		c.queueName,
		c.tag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queueName, err)
	}

	go func() {
		<-ctx.Done()
		_ = c.ch.Cancel(c.tag, false) // stop new deliveries
	}()

	for msg := range msgs {
		c.slots <- struct{}{}
		c.wg.Add(1)

		go func(m amqp091.Delivery) {
			defer c.wg.Done()
			defer func() { <-c.slots }()
			c.dispatch(ctx, handler, m)
		}(msg)
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, handler Handler, m amqp091.Delivery) {
	msgCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	if err := handler.Handle(msgCtx, m); err != nil {
		c.logger.Error().Err(err).
			Str("queue", c.queueName).
			Msg("delivery handler failed, dropping message")
		_ = m.Nack(false, false)
		return
	}

	_ = m.Ack(false)
}

// Shutdown stops deliveries and waits out the in-flight handlers.
func (c *Consumer) Shutdown(ctx context.Context) error {
	_ = c.ch.Cancel(c.tag, false)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return c.ch.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
