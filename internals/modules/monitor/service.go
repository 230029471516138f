package monitor

import (
	"context"

	"statusdeck/pkg/eventbus"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

type FailureTracker interface {
	ResetFailures(ctx context.Context, monitorID uuid.UUID) error
}

type Store interface {
	Create(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error)
	GetSnapshot(ctx context.Context, monitorID uuid.UUID) (Snapshot, error)
	Exists(ctx context.Context, monitorID uuid.UUID) (bool, error)
	ListActive(ctx context.Context) ([]Snapshot, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]OrgMonitor, error)
	Update(ctx context.Context, monitorID uuid.UUID, cmd UpdateMonitorCmd) error
	Delete(ctx context.Context, monitorID uuid.UUID) error
}

type Service struct {
	repo    Store
	bus     EventPublisher
	tracker FailureTracker
	logger  *zerolog.Logger
}

func NewService(repo Store, bus EventPublisher, tracker FailureTracker, logger *zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		bus:     bus,
		tracker: tracker,
		logger:  logger,
	}
}

// CreateMonitor persists a monitor and signals the schedulers. The signal
// is fire-and-forget: a lost signal means the job starts on the next boot.
func (s *Service) CreateMonitor(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error) {
	id, err := s.repo.Create(ctx, cmd)
	if err != nil {
		return uuid.Nil, err
	}

	s.signal(ctx, eventbus.MonitorCreatedChannel, id)
	return id, nil
}

func (s *Service) GetSnapshot(ctx context.Context, monitorID uuid.UUID) (Snapshot, error) {
	return s.repo.GetSnapshot(ctx, monitorID)
}

func (s *Service) Exists(ctx context.Context, monitorID uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, monitorID)
}

func (s *Service) ListActive(ctx context.Context) ([]Snapshot, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]OrgMonitor, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

// UpdateMonitor patches a monitor and signals the schedulers so the job
// is re-registered with the fresh definition.
func (s *Service) UpdateMonitor(ctx context.Context, monitorID uuid.UUID, cmd UpdateMonitorCmd) (Snapshot, error) {
	if err := s.repo.Update(ctx, monitorID, cmd); err != nil {
		return Snapshot{}, err
	}

	snap, err := s.repo.GetSnapshot(ctx, monitorID)
	if err != nil {
		return Snapshot{}, err
	}

	s.signal(ctx, eventbus.MonitorUpdatedChannel, monitorID)
	return snap, nil
}

// DeleteMonitor removes a monitor, purges its failure tracking state and
// signals the schedulers to drop the job.
func (s *Service) DeleteMonitor(ctx context.Context, monitorID uuid.UUID) error {
	if err := s.repo.Delete(ctx, monitorID); err != nil {
		return err
	}

	if err := s.tracker.ResetFailures(ctx, monitorID); err != nil {
		s.logger.Warn().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to purge failure state of deleted monitor")
	}

	s.signal(ctx, eventbus.MonitorDeletedChannel, monitorID)
	return nil
}

func (s *Service) signal(ctx context.Context, channel string, monitorID uuid.UUID) {
	if err := s.bus.Publish(ctx, channel, monitorID.String()); err != nil {
		s.logger.Error().Err(err).
			Str("channel", channel).
			Str("monitor_id", monitorID.String()).
			Msg("failed to publish monitor control signal")
	}
}
