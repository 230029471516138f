package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"statusdeck/pkg/rabbitmq"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const username = "StatusDeck"

// Service turns queued incident notifications into webhook alerts. It
// is plugged into the RabbitMQ consumer as its delivery handler.
type Service struct {
	sender *WebhookSender
	logger *zerolog.Logger
}

// NewService builds the alert handler. An empty webhookURL disables
// outbound alerts: deliveries are still consumed and acked.
func NewService(webhookURL string, client *http.Client, logger *zerolog.Logger) *Service {
	var sender *WebhookSender
	if webhookURL != "" {
		sender = NewWebhookSender(webhookURL, client)
	}
	return &Service{
		sender: sender,
		logger: logger,
	}
}

func (s *Service) Handle(ctx context.Context, msg amqp091.Delivery) error {
	var n rabbitmq.IncidentNotification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		// malformed messages would nack forever, drop them
		s.logger.Warn().Err(err).Msg("dropping malformed incident notification")
		return nil
	}

	if s.sender == nil {
		s.logger.Debug().
			Str("incident_id", n.IncidentID.String()).
			Str("event", n.Event).
			Msg("no webhook configured, skipping alert")
		return nil
	}

	var payload SlackWebhookRequest
	switch n.Event {
	case "incident_created":
		payload = incidentCreatedMessage(n)
	case "incident_resolved":
		payload = incidentResolvedMessage(n)
	default:
		s.logger.Warn().
			Str("event", n.Event).
			Msg("dropping incident notification with unknown event")
		return nil
	}

	if err := s.sender.Send(ctx, payload); err != nil {
		return err
	}

	s.logger.Info().
		Str("incident_id", n.IncidentID.String()).
		Str("event", n.Event).
		Msg("incident alert delivered")
	return nil
}

func incidentCreatedMessage(n rabbitmq.IncidentNotification) SlackWebhookRequest {
	fields := []SlackField{
		{Title: "Monitor", Value: n.MonitorName, Short: true},
		{Title: "Severity", Value: n.Severity, Short: true},
		{Title: "Status", Value: n.Status, Short: true},
	}
	if n.ServiceName != "" {
		fields = append(fields, SlackField{Title: "Service", Value: n.ServiceName, Short: true})
	}
	if n.MonitorURL != "" {
		fields = append(fields, SlackField{Title: "URL", Value: n.MonitorURL, Short: false})
	}

	return SlackWebhookRequest{
		Username:  username,
		IconEmoji: ":rotating_light:",
		Text:      ":rotating_light: *INCIDENT DETECTED*",
		Attachments: []SlackAttachment{
			{
				Color:     severityColor(n.Severity),
				Title:     n.Title,
				Text:      fmt.Sprintf("Monitor %q needs attention.", n.MonitorName),
				Fields:    fields,
				Footer:    username,
				Timestamp: n.OccurredAt.Unix(),
			},
		},
	}
}

func incidentResolvedMessage(n rabbitmq.IncidentNotification) SlackWebhookRequest {
	return SlackWebhookRequest{
		Username:  username,
		IconEmoji: ":white_check_mark:",
		Text:      ":white_check_mark: *INCIDENT RESOLVED*",
		Attachments: []SlackAttachment{
			{
				Color: "good",
				Title: n.Title,
				Text:  "The incident has been resolved and the monitor is healthy again.",
				Fields: []SlackField{
					{Title: "Status", Value: n.Status, Short: true},
				},
				Footer:    username,
				Timestamp: n.OccurredAt.Unix(),
			},
		},
	}
}

func severityColor(severity string) string {
	switch severity {
	case "HIGH", "CRITICAL":
		return "danger"
	default:
		return "warning"
	}
}
