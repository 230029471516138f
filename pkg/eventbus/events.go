package eventbus

import (
	"encoding/json"
	"fmt"
	"time"
)

// Fanout channels carry org-scoped envelopes for connected dashboards.
// Control channels carry bare monitor ids for the scheduler.
const (
	MonitorUpdatesChannel  = "monitor_updates_channel"
	IncidentUpdatesChannel = "incident_updates_channel"

	MonitorCreatedChannel = "monitor_created"
	MonitorUpdatedChannel = "monitor_updated"
	MonitorDeletedChannel = "monitor_deleted"
)

const (
	TypeMonitorUpdate    = "monitor_update"
	TypeIncidentCreated  = "incident_created"
	TypeIncidentResolved = "incident_resolved"
)

// Envelope is the frame every fanout event travels in.
type Envelope struct {
	OrganizationID string `json:"organization_id"`
	Type           string `json:"type"`
	Payload        any    `json:"payload"`
}

// HeaderKV is one request header attached to a monitor.
type HeaderKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LatestResult carries the probe outcome inside a monitor update.
// Nullable fields stay present as explicit nulls.
type LatestResult struct {
	Status         string    `json:"status"`
	ResponseTimeMs *int64    `json:"responseTimeMs"`
	HTTPStatusCode *int      `json:"httpStatusCode"`
	CheckedAt      time.Time `json:"checkedAt"`
	Error          *string   `json:"error"`
}

// MonitorUpdatePayload is the payload of a monitor_update event.
type MonitorUpdatePayload struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	URL               string        `json:"url"`
	Method            string        `json:"method"`
	Interval          int32         `json:"interval"`
	Type              string        `json:"type"`
	Headers           []HeaderKV    `json:"headers"`
	Active            bool          `json:"active"`
	DegradedThreshold int32         `json:"degradedThreshold"`
	Timeout           int32         `json:"timeout"`
	ServiceID         string        `json:"serviceId"`
	ServiceName       string        `json:"serviceName"`
	LatestResult      *LatestResult `json:"latestResult"`
}

// IncidentEventPayload is the payload of incident_created and
// incident_resolved events. Fields that do not apply to an event type
// are omitted.
type IncidentEventPayload struct {
	ID             string     `json:"id"`
	Title          string     `json:"title,omitempty"`
	Severity       string     `json:"severity,omitempty"`
	Status         string     `json:"status"`
	MonitorID      string     `json:"monitorId"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	URL            string     `json:"url,omitempty"`
	Method         string     `json:"method,omitempty"`
	ServiceName    string     `json:"serviceName,omitempty"`
	AutoResolved   bool       `json:"autoResolved,omitempty"`
	OrganizationID string     `json:"organizationId"`
}

// OrganizationScope pulls the routing scope out of a raw envelope without
// decoding the payload.
func OrganizationScope(raw []byte) (string, error) {
	var env struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	if env.OrganizationID == "" {
		return "", fmt.Errorf("envelope has no organization_id")
	}
	return env.OrganizationID, nil
}
