package incident

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusResolved Status = "RESOLVED"
)

// severityForCount maps a consecutive failure count to the severity it
// triggers. Only an exact hit triggers: counts between thresholds (and
// counts replayed at the saturated ceiling) stay quiet.
func severityForCount(count int64) (Severity, bool) {
	switch count {
	case 3:
		return SeverityLow, true
	case 5:
		return SeverityMedium, true
	case 7:
		return SeverityHigh, true
	case 10:
		return SeverityCritical, true
	default:
		return "", false
	}
}

func severityRank(s Severity) int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

type Incident struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ServiceID      uuid.UUID
	MonitorID      uuid.UUID
	Title          string
	Description    string
	Severity       Severity
	Status         Status
	AutoCreated    bool
	AutoResolved   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
}

type CreateIncidentCmd struct {
	OrganizationID uuid.UUID
	ServiceID      uuid.UUID
	MonitorID      uuid.UUID
	Title          string
	Description    string
	Severity       Severity
	AutoCreated    bool
}
