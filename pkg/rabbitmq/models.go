package rabbitmq

import (
	"time"

	"github.com/google/uuid"
)

// IncidentNotification is the message queued for out-of-band delivery
// whenever an incident opens or resolves.
type IncidentNotification struct {
	Event          string    `json:"event"` // incident_created | incident_resolved
	IncidentID     uuid.UUID `json:"incident_id"`
	Title          string    `json:"title,omitempty"`
	Severity       string    `json:"severity,omitempty"`
	Status         string    `json:"status"`
	MonitorID      uuid.UUID `json:"monitor_id"`
	MonitorName    string    `json:"monitor_name,omitempty"`
	MonitorURL     string    `json:"monitor_url,omitempty"`
	ServiceName    string    `json:"service_name,omitempty"`
	OrganizationID uuid.UUID `json:"organization_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}
