package monitor

import (
	"time"

	"github.com/google/uuid"
)

// Header is one request header sent with every probe of a monitor.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Monitor struct {
	ID                  uuid.UUID
	ServiceID           uuid.UUID
	Name                string
	URL                 string
	Method              string
	Headers             []Header
	Type                string
	IntervalSec         int32
	TimeoutMs           int32
	DegradedThresholdMs int32
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Snapshot is a monitor joined with its service linkage. The prober,
// the incident manager and the scheduler all work from this view.
type Snapshot struct {
	Monitor
	ServiceName    string
	OrganizationID uuid.UUID
}

type CreateMonitorCmd struct {
	ServiceID           uuid.UUID
	Name                string
	URL                 string
	Method              string
	Headers             []Header
	Type                string
	IntervalSec         int32
	TimeoutMs           int32
	DegradedThresholdMs int32
	Active              bool
}

// UpdateMonitorCmd patches a monitor. Nil fields keep their current value.
type UpdateMonitorCmd struct {
	Name                *string
	URL                 *string
	Method              *string
	Headers             []Header
	Type                *string
	IntervalSec         *int32
	TimeoutMs           *int32
	DegradedThresholdMs *int32
	Active              *bool
}

// LatestResult is the most recent probe outcome attached to a monitor
// in organization listings.
type LatestResult struct {
	Status         string
	ResponseTimeMs *int64
	HTTPStatusCode *int
	Error          *string
	CheckedAt      time.Time
}

// OrgMonitor is one row of an organization-wide monitor listing.
type OrgMonitor struct {
	Snapshot
	LatestResult *LatestResult
}
