package incident

import (
	"context"
	"fmt"
	"time"

	"statusdeck/internals/modules/monitor"
	"statusdeck/internals/modules/result"
	"statusdeck/pkg/apperror"
	"statusdeck/pkg/eventbus"
	"statusdeck/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	Create(ctx context.Context, cmd CreateIncidentCmd) (Incident, error)
	FindOpenAuto(ctx context.Context, monitorID uuid.UUID) (Incident, error)
	UpdateSeverity(ctx context.Context, incidentID uuid.UUID, severity Severity) error
	Resolve(ctx context.Context, incidentID uuid.UUID, at time.Time) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int32) ([]Incident, error)
}

type MonitorSource interface {
	GetSnapshot(ctx context.Context, monitorID uuid.UUID) (monitor.Snapshot, error)
}

type FailureTracker interface {
	IncrementFailure(ctx context.Context, monitorID uuid.UUID) (int64, error)
	ResetFailures(ctx context.Context, monitorID uuid.UUID) error
	ClearFailedPings(ctx context.Context, monitorID uuid.UUID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

type Notifier interface {
	PublishNotification(ctx context.Context, n rabbitmq.IncidentNotification) error
}

// Service drives the incident state machine per monitor: NONE, OPEN at
// some severity, RESOLVED. A monitor has at most one open auto-created
// incident, severity only moves upward, recovery resolves and wipes the
// failure episode.
type Service struct {
	store    Store
	monitors MonitorSource
	tracker  FailureTracker
	bus      EventPublisher
	notifier Notifier
	logger   *zerolog.Logger
}

func NewService(
	store Store,
	monitors MonitorSource,
	tracker FailureTracker,
	bus EventPublisher,
	notifier Notifier,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		store:    store,
		monitors: monitors,
		tracker:  tracker,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleStatusChange consumes one probe verdict. Never returns an error:
// every failure is absorbed and logged here, a later probe gets the next
// chance.
func (s *Service) HandleStatusChange(ctx context.Context, monitorID uuid.UUID, status result.Status) {
	switch status {
	case result.StatusUp:
		s.resolveOpenIncident(ctx, monitorID)
	case result.StatusDown, result.StatusDegraded:
		s.trackFailure(ctx, monitorID, status)
	default:
		s.logger.Warn().
			Str("monitor_id", monitorID.String()).
			Str("status", string(status)).
			Msg("ignoring unknown probe status")
	}
}

func (s *Service) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int32) ([]Incident, error) {
	return s.store.ListByOrganization(ctx, orgID, limit, offset)
}

func (s *Service) trackFailure(ctx context.Context, monitorID uuid.UUID, status result.Status) {
	count, err := s.tracker.IncrementFailure(ctx, monitorID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to increment failure counter")
		return
	}

	severity, ok := severityForCount(count)
	if !ok {
		return
	}

	s.openOrEscalate(ctx, monitorID, status, severity)
}

func (s *Service) openOrEscalate(ctx context.Context, monitorID uuid.UUID, status result.Status, severity Severity) {
	existing, err := s.store.FindOpenAuto(ctx, monitorID)
	if err == nil {
		if severityRank(severity) <= severityRank(existing.Severity) {
			return
		}
		if err := s.store.UpdateSeverity(ctx, existing.ID, severity); err != nil {
			s.logger.Error().Err(err).
				Str("incident_id", existing.ID.String()).
				Msg("failed to escalate incident severity")
			return
		}
		s.logger.Info().
			Str("incident_id", existing.ID.String()).
			Str("monitor_id", monitorID.String()).
			Str("from", string(existing.Severity)).
			Str("to", string(severity)).
			Msg("incident severity escalated")
		return
	}
	if !apperror.IsKind(err, apperror.NotFound) {
		s.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to look up open incident")
		return
	}

	snap, err := s.monitors.GetSnapshot(ctx, monitorID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("cannot resolve monitor linkage, abandoning incident creation")
		return
	}
	if snap.OrganizationID == uuid.Nil || snap.ServiceID == uuid.Nil {
		s.logger.Error().
			Str("monitor_id", monitorID.String()).
			Msg("monitor has no service or organization, abandoning incident creation")
		return
	}

	inc, err := s.store.Create(ctx, CreateIncidentCmd{
		OrganizationID: snap.OrganizationID,
		ServiceID:      snap.ServiceID,
		MonitorID:      monitorID,
		Title:          fmt.Sprintf("%s %s", snap.Name, status),
		Description:    fmt.Sprintf("Monitor %s is reporting status %s.", snap.Name, status),
		Severity:       severity,
		AutoCreated:    true,
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to persist incident")
		return
	}

	s.logger.Info().
		Str("incident_id", inc.ID.String()).
		Str("monitor_id", monitorID.String()).
		Str("severity", string(severity)).
		Msg("incident opened")

	s.publishCreated(ctx, snap, inc)
	s.notifyCreated(ctx, snap, inc)

	if err := s.tracker.ClearFailedPings(ctx, monitorID); err != nil {
		s.logger.Warn().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to clear failed ping log after incident creation")
	}
}

func (s *Service) resolveOpenIncident(ctx context.Context, monitorID uuid.UUID) {
	existing, err := s.store.FindOpenAuto(ctx, monitorID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return
		}
		s.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to look up open incident for resolution")
		return
	}

	resolvedAt := time.Now().UTC()
	if err := s.store.Resolve(ctx, existing.ID, resolvedAt); err != nil {
		s.logger.Error().Err(err).
			Str("incident_id", existing.ID.String()).
			Msg("failed to resolve incident")
		return
	}

	s.logger.Info().
		Str("incident_id", existing.ID.String()).
		Str("monitor_id", monitorID.String()).
		Msg("incident auto-resolved")

	s.publishResolved(ctx, existing, resolvedAt)
	s.notifyResolved(ctx, existing, resolvedAt)

	if err := s.tracker.ResetFailures(ctx, monitorID); err != nil {
		s.logger.Warn().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to reset failure tracking after resolution")
	}
}

func (s *Service) publishCreated(ctx context.Context, snap monitor.Snapshot, inc Incident) {
	createdAt := inc.CreatedAt
	env := eventbus.Envelope{
		OrganizationID: inc.OrganizationID.String(),
		Type:           eventbus.TypeIncidentCreated,
		Payload: eventbus.IncidentEventPayload{
			ID:             inc.ID.String(),
			Title:          inc.Title,
			Severity:       string(inc.Severity),
			Status:         string(inc.Status),
			MonitorID:      inc.MonitorID.String(),
			CreatedAt:      &createdAt,
			URL:            snap.URL,
			Method:         snap.Method,
			ServiceName:    snap.ServiceName,
			OrganizationID: inc.OrganizationID.String(),
		},
	}

	if err := s.bus.Publish(ctx, eventbus.IncidentUpdatesChannel, env); err != nil {
		s.logger.Warn().Err(err).
			Str("incident_id", inc.ID.String()).
			Msg("failed to publish incident created event")
	}
}

func (s *Service) publishResolved(ctx context.Context, inc Incident, resolvedAt time.Time) {
	env := eventbus.Envelope{
		OrganizationID: inc.OrganizationID.String(),
		Type:           eventbus.TypeIncidentResolved,
		Payload: eventbus.IncidentEventPayload{
			ID:             inc.ID.String(),
			Status:         string(StatusResolved),
			MonitorID:      inc.MonitorID.String(),
			ResolvedAt:     &resolvedAt,
			AutoResolved:   true,
			OrganizationID: inc.OrganizationID.String(),
		},
	}

	if err := s.bus.Publish(ctx, eventbus.IncidentUpdatesChannel, env); err != nil {
		s.logger.Warn().Err(err).
			Str("incident_id", inc.ID.String()).
			Msg("failed to publish incident resolved event")
	}
}

func (s *Service) notifyCreated(ctx context.Context, snap monitor.Snapshot, inc Incident) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.PublishNotification(ctx, rabbitmq.IncidentNotification{
		Event:          "incident_created",
		IncidentID:     inc.ID,
		Title:          inc.Title,
		Severity:       string(inc.Severity),
		Status:         string(inc.Status),
		MonitorID:      inc.MonitorID,
		MonitorName:    snap.Name,
		MonitorURL:     snap.URL,
		ServiceName:    snap.ServiceName,
		OrganizationID: inc.OrganizationID,
		OccurredAt:     inc.CreatedAt,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("incident_id", inc.ID.String()).
			Msg("failed to queue incident created notification")
	}
}

func (s *Service) notifyResolved(ctx context.Context, inc Incident, resolvedAt time.Time) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.PublishNotification(ctx, rabbitmq.IncidentNotification{
		Event:          "incident_resolved",
		IncidentID:     inc.ID,
		Title:          inc.Title,
		Severity:       string(inc.Severity),
		Status:         string(StatusResolved),
		MonitorID:      inc.MonitorID,
		OrganizationID: inc.OrganizationID,
		OccurredAt:     resolvedAt,
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("incident_id", inc.ID.String()).
			Msg("failed to queue incident resolved notification")
	}
}
