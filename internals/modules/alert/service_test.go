package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"statusdeck/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

func notificationBody(t *testing.T, n rabbitmq.IncidentNotification) []byte {
	t.Helper()
	raw, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return raw
}

func createdNotification() rabbitmq.IncidentNotification {
	return rabbitmq.IncidentNotification{
		Event:          "incident_created",
		IncidentID:     uuid.New(),
		Title:          "checkout api DOWN",
		Severity:       "CRITICAL",
		Status:         "OPEN",
		MonitorID:      uuid.New(),
		MonitorName:    "checkout api",
		MonitorURL:     "https://api.example.com/health",
		ServiceName:    "payments",
		OrganizationID: uuid.New(),
		OccurredAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandleDeliversCreatedAlert(t *testing.T) {
	var got SlackWebhookRequest
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json but got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	svc := NewService(srv.URL, srv.Client(), &logger)

	n := createdNotification()
	if err := svc.Handle(context.Background(), amqp091.Delivery{Body: notificationBody(t, n)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected 1 webhook call but got %d", calls)
	}
	if got.Username != "StatusDeck" {
		t.Errorf("expected username StatusDeck but got %q", got.Username)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("expected 1 attachment but got %d", len(got.Attachments))
	}
	att := got.Attachments[0]
	if att.Color != "danger" {
		t.Errorf("CRITICAL must color the alert danger, got %q", att.Color)
	}
	if att.Title != n.Title {
		t.Errorf("expected title %q but got %q", n.Title, att.Title)
	}

	fields := map[string]string{}
	for _, f := range att.Fields {
		fields[f.Title] = f.Value
	}
	if fields["Monitor"] != "checkout api" || fields["Severity"] != "CRITICAL" || fields["URL"] != n.MonitorURL {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestHandleDeliversResolvedAlert(t *testing.T) {
	var got SlackWebhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	svc := NewService(srv.URL, srv.Client(), &logger)

	n := rabbitmq.IncidentNotification{
		Event:      "incident_resolved",
		IncidentID: uuid.New(),
		Title:      "checkout api DOWN",
		Status:     "RESOLVED",
		MonitorID:  uuid.New(),
		OccurredAt: time.Date(2025, 3, 1, 12, 10, 0, 0, time.UTC),
	}
	if err := svc.Handle(context.Background(), amqp091.Delivery{Body: notificationBody(t, n)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Attachments) != 1 || got.Attachments[0].Color != "good" {
		t.Errorf("resolved alerts must be green, got %+v", got.Attachments)
	}
}

func TestHandleDropsMalformedNotification(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	svc := NewService(srv.URL, srv.Client(), &logger)

	// Returning an error would nack the delivery into a redelivery loop.
	if err := svc.Handle(context.Background(), amqp091.Delivery{Body: []byte("not json")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Errorf("malformed payloads must not reach the webhook, got %d calls", calls)
	}
}

func TestHandleDropsUnknownEvent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	svc := NewService(srv.URL, srv.Client(), &logger)

	n := createdNotification()
	n.Event = "incident_snoozed"
	if err := svc.Handle(context.Background(), amqp091.Delivery{Body: notificationBody(t, n)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Errorf("unknown events must not reach the webhook, got %d calls", calls)
	}
}

func TestHandleWithoutWebhookAcksQuietly(t *testing.T) {
	logger := zerolog.Nop()
	svc := NewService("", http.DefaultClient, &logger)

	n := createdNotification()
	if err := svc.Handle(context.Background(), amqp091.Delivery{Body: notificationBody(t, n)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleReturnsErrorOnWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	svc := NewService(srv.URL, srv.Client(), &logger)

	n := createdNotification()
	if err := svc.Handle(context.Background(), amqp091.Delivery{Body: notificationBody(t, n)}); err == nil {
		t.Error("expected an error but got nil")
	}
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		Severity string
		Want     string
	}{
		{"LOW", "warning"},
		{"MEDIUM", "warning"},
		{"HIGH", "danger"},
		{"CRITICAL", "danger"},
	}

	for _, tt := range tests {
		t.Run(tt.Severity, func(t *testing.T) {
			if got := severityColor(tt.Severity); got != tt.Want {
				t.Errorf("expected %q but got %q", tt.Want, got)
			}
		})
	}
}
