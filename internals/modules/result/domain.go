package result

import (
	"time"

	"github.com/google/uuid"
)

// Status is the health verdict of a single probe.
type Status string

const (
	StatusUp       Status = "UP"
	StatusDegraded Status = "DEGRADED"
	StatusDown     Status = "DOWN"
)

// Outcome is one finished health check. ResponseTimeMs and
// HTTPStatusCode are nil when the request never produced a response.
type Outcome struct {
	MonitorID      uuid.UUID
	Status         Status
	ResponseTimeMs *int64
	HTTPStatusCode *int
	Error          *string
	CheckedAt      time.Time
}
