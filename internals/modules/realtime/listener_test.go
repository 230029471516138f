package realtime

import (
	"context"
	"testing"

	"statusdeck/pkg/eventbus"

	"github.com/rs/zerolog"
)

type fakeSubscriber struct {
	msgs chan eventbus.Message
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, channels ...string) (<-chan eventbus.Message, error) {
	return f.msgs, nil
}

func TestListenerRoutesEventsToTheRightHub(t *testing.T) {
	logger := zerolog.Nop()
	monitors := NewHub("monitors", &logger)
	incidents := NewHub("incidents", &logger)

	monConn := &fakeConn{}
	incConn := &fakeConn{}
	monitors.Register("11111111-1111-1111-1111-111111111111", monConn)
	incidents.Register("11111111-1111-1111-1111-111111111111", incConn)

	sub := &fakeSubscriber{msgs: make(chan eventbus.Message, 4)}
	sub.msgs <- eventbus.Message{
		Channel: eventbus.MonitorUpdatesChannel,
		Payload: `{"organization_id":"11111111-1111-1111-1111-111111111111","type":"monitor_update","payload":{}}`,
	}
	sub.msgs <- eventbus.Message{
		Channel: eventbus.IncidentUpdatesChannel,
		Payload: `{"organization_id":"11111111-1111-1111-1111-111111111111","type":"incident_created","payload":{}}`,
	}
	close(sub.msgs)

	l := NewListener(sub, monitors, incidents, &logger)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(monConn.messages) != 1 {
		t.Errorf("monitor hub expected 1 message but got %d", len(monConn.messages))
	}
	if len(incConn.messages) != 1 {
		t.Errorf("incident hub expected 1 message but got %d", len(incConn.messages))
	}
}

func TestListenerDropsEventsWithoutOrganizationScope(t *testing.T) {
	logger := zerolog.Nop()
	monitors := NewHub("monitors", &logger)
	incidents := NewHub("incidents", &logger)

	conn := &fakeConn{}
	monitors.Register("11111111-1111-1111-1111-111111111111", conn)

	sub := &fakeSubscriber{msgs: make(chan eventbus.Message, 4)}
	sub.msgs <- eventbus.Message{
		Channel: eventbus.MonitorUpdatesChannel,
		Payload: `{"type":"monitor_update","payload":{}}`,
	}
	sub.msgs <- eventbus.Message{
		Channel: eventbus.MonitorUpdatesChannel,
		Payload: `not json at all`,
	}
	close(sub.msgs)

	l := NewListener(sub, monitors, incidents, &logger)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(conn.messages) != 0 {
		t.Errorf("unscoped events must be dropped, got %d messages", len(conn.messages))
	}
}

func TestListenerDeliversRawEnvelopeBytes(t *testing.T) {
	logger := zerolog.Nop()
	monitors := NewHub("monitors", &logger)
	incidents := NewHub("incidents", &logger)

	conn := &fakeConn{}
	monitors.Register("org-1", conn)

	raw := `{"organization_id":"org-1","type":"monitor_update","payload":{"monitorId":"m-1","status":"UP"}}`
	sub := &fakeSubscriber{msgs: make(chan eventbus.Message, 1)}
	sub.msgs <- eventbus.Message{Channel: eventbus.MonitorUpdatesChannel, Payload: raw}
	close(sub.msgs)

	l := NewListener(sub, monitors, incidents, &logger)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(conn.messages) != 1 {
		t.Fatalf("expected 1 message but got %d", len(conn.messages))
	}
	if string(conn.messages[0]) != raw {
		t.Errorf("clients must receive the envelope exactly as published, got %s", conn.messages[0])
	}
}
