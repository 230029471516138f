package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"statusdeck/internals/modules/monitor"
	"statusdeck/internals/modules/result"
	"statusdeck/pkg/apperror"
	"statusdeck/pkg/eventbus"
	"statusdeck/pkg/redisstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type MonitorSource interface {
	GetSnapshot(ctx context.Context, monitorID uuid.UUID) (monitor.Snapshot, error)
	Exists(ctx context.Context, monitorID uuid.UUID) (bool, error)
}

type OutcomeStore interface {
	SaveOutcome(ctx context.Context, o result.Outcome) error
}

type FailureLog interface {
	AppendFailedPing(ctx context.Context, monitorID uuid.UUID, ping redisstore.FailedPing) error
}

type StatusHandler interface {
	HandleStatusChange(ctx context.Context, monitorID uuid.UUID, status result.Status)
}

type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

const (
	// saveAttempts bounds retries of a result write that lost a race with
	// a monitor delete-then-recreate or a slow FK cascade.
	saveAttempts  = 3
	saveBaseDelay = 2 * time.Second
)

// Prober runs one bounded HTTP check per invocation and fans the verdict
// out to the result store, the failure tracker, the incident lifecycle
// and the event bus. Errors stop at the prober, they never reach the
// scheduler.
type Prober struct {
	monitors       MonitorSource
	outcomes       OutcomeStore
	failures       FailureLog
	incidents      StatusHandler
	bus            EventPublisher
	client         *http.Client
	sem            chan struct{}
	defaultTimeout time.Duration
	saveDelay      time.Duration
	logger         *zerolog.Logger
}

func NewProber(
	monitors MonitorSource,
	outcomes OutcomeStore,
	failures FailureLog,
	incidents StatusHandler,
	bus EventPublisher,
	client *http.Client,
	maxConcurrent int,
	defaultTimeout time.Duration,
	logger *zerolog.Logger,
) *Prober {
	if maxConcurrent <= 0 {
		maxConcurrent = 100
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Second
	}

	return &Prober{
		monitors:       monitors,
		outcomes:       outcomes,
		failures:       failures,
		incidents:      incidents,
		bus:            bus,
		client:         client,
		sem:            make(chan struct{}, maxConcurrent),
		defaultTimeout: defaultTimeout,
		saveDelay:      saveBaseDelay,
		logger:         logger,
	}
}

// Execute probes one monitor end to end. Safe to call concurrently for
// different monitors and for overlapping runs of the same monitor.
func (p *Prober) Execute(ctx context.Context, monitorID uuid.UUID) {
	snap, err := p.monitors.GetSnapshot(ctx, monitorID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			p.logger.Debug().
				Str("monitor_id", monitorID.String()).
				Msg("skipping probe, monitor is gone")
			return
		}
		p.logger.Error().Err(err).
			Str("monitor_id", monitorID.String()).
			Msg("failed to load monitor for probe")
		return
	}
	if !snap.Active {
		return
	}

	p.sem <- struct{}{}
	defer func() { <-p.sem }()

	outcome := p.check(ctx, snap)

	p.record(ctx, snap, outcome)

	if outcome.Status != result.StatusUp {
		if err := p.failures.AppendFailedPing(ctx, snap.ID, redisstore.FailedPing{
			Status:         string(outcome.Status),
			ResponseTimeMs: outcome.ResponseTimeMs,
			HTTPStatusCode: outcome.HTTPStatusCode,
			Error:          outcome.Error,
			CheckedAt:      outcome.CheckedAt,
		}); err != nil {
			p.logger.Warn().Err(err).
				Str("monitor_id", snap.ID.String()).
				Msg("failed to append failed ping")
		}
	}

	p.incidents.HandleStatusChange(ctx, snap.ID, outcome.Status)

	p.publishUpdate(ctx, snap, outcome)
}

// check performs the HTTP request and classifies the answer. Transport
// failures become DOWN outcomes with nil response time and status code.
func (p *Prober) check(ctx context.Context, snap monitor.Snapshot) result.Outcome {
	timeout := p.defaultTimeout
	if snap.TimeoutMs > 0 {
		timeout = time.Duration(snap.TimeoutMs) * time.Millisecond
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := snap.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(reqCtx, method, snap.URL, nil)
	if err != nil {
		return p.downOutcome(snap.ID, fmt.Sprintf("invalid request: %v", err))
	}
	for _, h := range snap.Headers {
		req.Header.Set(h.Key, h.Value)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return p.downOutcome(snap.ID, err.Error())
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
	}()

	status := Classify(resp.StatusCode, elapsed, snap.DegradedThresholdMs)

	var errText *string
	if resp.StatusCode >= http.StatusBadRequest {
		msg := fmt.Sprintf("HTTP error %d", resp.StatusCode)
		errText = &msg
	}

	code := resp.StatusCode
	return result.Outcome{
		MonitorID:      snap.ID,
		Status:         status,
		ResponseTimeMs: &elapsed,
		HTTPStatusCode: &code,
		Error:          errText,
		CheckedAt:      time.Now().UTC(),
	}
}

func (p *Prober) downOutcome(monitorID uuid.UUID, errText string) result.Outcome {
	return result.Outcome{
		MonitorID: monitorID,
		Status:    result.StatusDown,
		Error:     &errText,
		CheckedAt: time.Now().UTC(),
	}
}

// record persists the outcome, tolerating the races around monitor
// deletion: a vanished monitor drops the write silently, a transient
// referential conflict is retried with doubling backoff, anything else
// is logged once and given up on.
func (p *Prober) record(ctx context.Context, snap monitor.Snapshot, outcome result.Outcome) {
	exists, err := p.monitors.Exists(ctx, snap.ID)
	if err == nil && !exists {
		p.logger.Debug().
			Str("monitor_id", snap.ID.String()).
			Msg("monitor deleted mid-probe, dropping result")
		return
	}

	delay := p.saveDelay
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		err := p.outcomes.SaveOutcome(ctx, outcome)
		if err == nil {
			return
		}

		if !apperror.IsKind(err, apperror.Conflict) {
			p.logger.Error().Err(err).
				Str("monitor_id", snap.ID.String()).
				Msg("failed to persist probe outcome")
			return
		}

		if attempt == saveAttempts {
			p.logger.Error().Err(err).
				Str("monitor_id", snap.ID.String()).
				Int("attempts", attempt).
				Msg("giving up on probe outcome after referential conflicts")
			return
		}

		p.logger.Warn().Err(err).
			Str("monitor_id", snap.ID.String()).
			Int("attempt", attempt).
			Msg("probe outcome hit referential race, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (p *Prober) publishUpdate(ctx context.Context, snap monitor.Snapshot, outcome result.Outcome) {
	headers := make([]eventbus.HeaderKV, 0, len(snap.Headers))
	for _, h := range snap.Headers {
		headers = append(headers, eventbus.HeaderKV{Key: h.Key, Value: h.Value})
	}

	env := eventbus.Envelope{
		OrganizationID: snap.OrganizationID.String(),
		Type:           eventbus.TypeMonitorUpdate,
		Payload: eventbus.MonitorUpdatePayload{
			ID:                snap.ID.String(),
			Name:              snap.Name,
			URL:               snap.URL,
			Method:            snap.Method,
			Interval:          snap.IntervalSec,
			Type:              snap.Type,
			Headers:           headers,
			Active:            snap.Active,
			DegradedThreshold: snap.DegradedThresholdMs,
			Timeout:           snap.TimeoutMs,
			ServiceID:         snap.ServiceID.String(),
			ServiceName:       snap.ServiceName,
			LatestResult: &eventbus.LatestResult{
				Status:         string(outcome.Status),
				ResponseTimeMs: outcome.ResponseTimeMs,
				HTTPStatusCode: outcome.HTTPStatusCode,
				CheckedAt:      outcome.CheckedAt,
				Error:          outcome.Error,
			},
		},
	}

	if err := p.bus.Publish(ctx, eventbus.MonitorUpdatesChannel, env); err != nil {
		p.logger.Warn().Err(err).
			Str("monitor_id", snap.ID.String()).
			Msg("failed to publish monitor update")
	}
}
