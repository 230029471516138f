package realtime

import (
	"context"

	"statusdeck/pkg/eventbus"

	"github.com/rs/zerolog"
)

type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (<-chan eventbus.Message, error)
}

// Listener is the single bridge between the event bus and the hubs: it
// subscribes once per process and fans published events out to the
// websocket clients of the event's organization.
type Listener struct {
	bus       Subscriber
	monitors  *Hub
	incidents *Hub
	logger    *zerolog.Logger
}

func NewListener(bus Subscriber, monitors, incidents *Hub, logger *zerolog.Logger) *Listener {
	return &Listener{
		bus:       bus,
		monitors:  monitors,
		incidents: incidents,
		logger:    logger,
	}
}

// Run pumps bus messages into the hubs until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	msgs, err := l.bus.Subscribe(ctx,
		eventbus.MonitorUpdatesChannel,
		eventbus.IncidentUpdatesChannel,
	)
	if err != nil {
		return err
	}

	for msg := range msgs {
		payload := []byte(msg.Payload)

		orgID, err := eventbus.OrganizationScope(payload)
		if err != nil {
			l.logger.Warn().Err(err).
				Str("channel", msg.Channel).
				Msg("dropping event without organization scope")
			continue
		}

		switch msg.Channel {
		case eventbus.MonitorUpdatesChannel:
			l.monitors.Dispatch(orgID, payload)
		case eventbus.IncidentUpdatesChannel:
			l.incidents.Dispatch(orgID, payload)
		}
	}
	return nil
}
