package scheduler

import (
	"context"
	"sync"
	"time"

	"statusdeck/internals/modules/monitor"
	"statusdeck/pkg/apperror"
	"statusdeck/pkg/eventbus"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type MonitorSource interface {
	GetSnapshot(ctx context.Context, monitorID uuid.UUID) (monitor.Snapshot, error)
	ListActive(ctx context.Context) ([]monitor.Snapshot, error)
}

type Prober interface {
	Execute(ctx context.Context, monitorID uuid.UUID)
}

type FailureTracker interface {
	ResetFailures(ctx context.Context, monitorID uuid.UUID) error
}

type ControlBus interface {
	Subscribe(ctx context.Context, channels ...string) (<-chan eventbus.Message, error)
}

// Scheduler keeps one recurring probe job per active monitor. The job
// table is adjusted only from Boot and the Run control loop, so job
// churn never races itself.
type Scheduler struct {
	ctx        context.Context
	cron       *cron.Cron
	monitors   MonitorSource
	prober     Prober
	tracker    FailureTracker
	bus        ControlBus
	startDelay time.Duration

	mu   sync.Mutex
	jobs map[uuid.UUID]cron.EntryID

	logger *zerolog.Logger
}

func NewScheduler(
	ctx context.Context,
	monitors MonitorSource,
	prober Prober,
	tracker FailureTracker,
	bus ControlBus,
	startDelay time.Duration,
	logger *zerolog.Logger,
) *Scheduler {
	if startDelay <= 0 {
		startDelay = 5 * time.Second
	}
	return &Scheduler{
		ctx:        ctx,
		cron:       cron.New(),
		monitors:   monitors,
		prober:     prober,
		tracker:    tracker,
		bus:        bus,
		startDelay: startDelay,
		jobs:       make(map[uuid.UUID]cron.EntryID),
		logger:     logger,
	}
}

// Boot loads every active monitor and registers its probe job, then
// starts the cron runner. Boot jobs first fire one full interval out,
// matching what the monitors were already doing before the restart.
func (s *Scheduler) Boot(ctx context.Context) error {
	snaps, err := s.monitors.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, snap := range snaps {
		s.registerJob(snap, false)
	}

	s.cron.Start()
	s.logger.Info().Int("jobs", len(snaps)).Msg("scheduler booted")
	return nil
}

// Run consumes the monitor control channels until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	msgs, err := s.bus.Subscribe(ctx,
		eventbus.MonitorCreatedChannel,
		eventbus.MonitorUpdatedChannel,
		eventbus.MonitorDeletedChannel,
	)
	if err != nil {
		return err
	}

	for msg := range msgs {
		s.handleControl(ctx, msg)
	}
	return nil
}

// Stop halts the cron runner and waits for in-flight probes to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) handleControl(ctx context.Context, msg eventbus.Message) {
	monitorID, err := uuid.Parse(msg.Payload)
	if err != nil {
		s.logger.Warn().
			Str("channel", msg.Channel).
			Str("payload", msg.Payload).
			Msg("control event with malformed monitor id")
		return
	}

	switch msg.Channel {
	case eventbus.MonitorCreatedChannel:
		s.applySnapshot(ctx, monitorID)

	case eventbus.MonitorUpdatedChannel:
		s.applySnapshot(ctx, monitorID)
		if err := s.tracker.ResetFailures(ctx, monitorID); err != nil {
			s.logger.Warn().Err(err).
				Str("monitor_id", monitorID.String()).
				Msg("failed to reset failure tracking after monitor update")
		}

	case eventbus.MonitorDeletedChannel:
		s.removeJob(monitorID)
		if err := s.tracker.ResetFailures(ctx, monitorID); err != nil {
			s.logger.Warn().Err(err).
				Str("monitor_id", monitorID.String()).
				Msg("failed to purge failure tracking of deleted monitor")
		}
		s.logger.Info().
			Str("monitor_id", monitorID.String()).
			Msg("monitor job cancelled")
	}
}

// applySnapshot re-reads the monitor and replaces its job. The signal
// only carries the id: a monitor deleted between the event and this
// read simply has nothing to schedule.
func (s *Scheduler) applySnapshot(ctx context.Context, monitorID uuid.UUID) {
	snap, err := s.monitors.GetSnapshot(ctx, monitorID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			s.logger.Debug().
				Str("monitor_id", monitorID.String()).
				Msg("control event for missing monitor, ignoring")
			return
		}
		s.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to load monitor snapshot for scheduling")
		return
	}

	if !snap.Active {
		s.removeJob(monitorID)
		return
	}

	s.registerJob(snap, true)
}

func (s *Scheduler) registerJob(snap monitor.Snapshot, kickSoon bool) {
	every := time.Duration(snap.IntervalSec) * time.Second
	if every <= 0 {
		// a zero interval would make the runner spin
		every = time.Minute
	}

	var sched cron.Schedule
	if kickSoon {
		sched = kickSchedule{fireAt: time.Now().Add(s.startDelay), every: every}
	} else {
		sched = intervalSchedule{every: every}
	}

	monitorID := snap.ID
	entryID := s.cron.Schedule(sched, cron.FuncJob(func() {
		s.prober.Execute(s.ctx, monitorID)
	}))

	s.mu.Lock()
	if old, ok := s.jobs[monitorID]; ok {
		s.cron.Remove(old)
	}
	s.jobs[monitorID] = entryID
	s.mu.Unlock()

	s.logger.Debug().
		Str("monitor_id", monitorID.String()).
		Dur("interval", every).
		Bool("kick_soon", kickSoon).
		Msg("monitor job registered")
}

func (s *Scheduler) removeJob(monitorID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.jobs[monitorID]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, monitorID)
	}
}

// Jobs reports how many monitor jobs are currently registered.
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
