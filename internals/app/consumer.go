package app

import (
	"context"
)

// StartConsumer feeds queued incident notifications to the alert
// handler. No-op when no RabbitMQ broker is configured.
func StartConsumer(ctx context.Context, c *Container) {
	if c.Consumer == nil {
		return
	}

	// Consume ranges over the delivery channel, so it gets its own goroutine.
	go func() {
		if err := c.Consumer.Consume(ctx, c.AlertSvc); err != nil {
			c.Logger.Error().
				Err(err).
				Msg("rabbitmq consumer stopped")
		}
	}()
}
