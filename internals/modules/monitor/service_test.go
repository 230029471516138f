package monitor

import (
	"context"
	"errors"
	"testing"

	"statusdeck/pkg/apperror"
	"statusdeck/pkg/eventbus"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeStore struct {
	createID  uuid.UUID
	createErr error
	created   []CreateMonitorCmd
	snap      Snapshot
	snapErr   error
	updateErr error
	deleteErr error
	deleted   []uuid.UUID
}

func (f *fakeStore) Create(ctx context.Context, cmd CreateMonitorCmd) (uuid.UUID, error) {
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	f.created = append(f.created, cmd)
	return f.createID, nil
}

func (f *fakeStore) GetSnapshot(ctx context.Context, monitorID uuid.UUID) (Snapshot, error) {
	if f.snapErr != nil {
		return Snapshot{}, f.snapErr
	}
	return f.snap, nil
}

func (f *fakeStore) Exists(ctx context.Context, monitorID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakeStore) ListActive(ctx context.Context) ([]Snapshot, error) {
	return []Snapshot{f.snap}, nil
}

func (f *fakeStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]OrgMonitor, error) {
	return nil, nil
}

func (f *fakeStore) Update(ctx context.Context, monitorID uuid.UUID, cmd UpdateMonitorCmd) error {
	return f.updateErr
}

func (f *fakeStore) Delete(ctx context.Context, monitorID uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, monitorID)
	return nil
}

type signal struct {
	channel string
	payload any
}

type fakeSignalBus struct {
	signals []signal
}

func (f *fakeSignalBus) Publish(ctx context.Context, channel string, payload any) error {
	f.signals = append(f.signals, signal{channel: channel, payload: payload})
	return nil
}

type fakePurgeTracker struct {
	resets []uuid.UUID
	err    error
}

func (f *fakePurgeTracker) ResetFailures(ctx context.Context, monitorID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.resets = append(f.resets, monitorID)
	return nil
}

func newServiceFixture() (*Service, *fakeStore, *fakeSignalBus, *fakePurgeTracker) {
	store := &fakeStore{createID: uuid.New()}
	store.snap = Snapshot{
		Monitor: Monitor{
			ID:          store.createID,
			ServiceID:   uuid.New(),
			Name:        "checkout api",
			URL:         "https://api.example.com/health",
			Method:      "GET",
			IntervalSec: 60,
			Active:      true,
		},
		ServiceName:    "payments",
		OrganizationID: uuid.New(),
	}
	bus := &fakeSignalBus{}
	tracker := &fakePurgeTracker{}
	logger := zerolog.Nop()
	return NewService(store, bus, tracker, &logger), store, bus, tracker
}

func TestCreateMonitorSignalsSchedulers(t *testing.T) {
	svc, store, bus, _ := newServiceFixture()

	id, err := svc.CreateMonitor(context.Background(), CreateMonitorCmd{Name: "checkout api"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != store.createID {
		t.Errorf("expected %s but got %s", store.createID, id)
	}

	if len(bus.signals) != 1 {
		t.Fatalf("expected 1 signal but got %d", len(bus.signals))
	}
	if bus.signals[0].channel != eventbus.MonitorCreatedChannel {
		t.Errorf("expected channel %q but got %q", eventbus.MonitorCreatedChannel, bus.signals[0].channel)
	}
	// Control signals carry the bare id, not an envelope.
	if got, ok := bus.signals[0].payload.(string); !ok || got != id.String() {
		t.Errorf("expected bare id %q but got %#v", id.String(), bus.signals[0].payload)
	}
}

func TestCreateMonitorFailureSignalsNothing(t *testing.T) {
	svc, store, bus, _ := newServiceFixture()
	store.createErr = apperror.New(apperror.DatabaseErr, "repo.monitor.create", errors.New("connection reset"))

	if _, err := svc.CreateMonitor(context.Background(), CreateMonitorCmd{}); err == nil {
		t.Error("expected an error but got nil")
	}
	if len(bus.signals) != 0 {
		t.Errorf("failed creation must not signal, got %d", len(bus.signals))
	}
}

func TestUpdateMonitorSignalsAndReturnsSnapshot(t *testing.T) {
	svc, store, bus, _ := newServiceFixture()
	id := store.snap.ID

	snap, err := svc.UpdateMonitor(context.Background(), id, UpdateMonitorCmd{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ID != id || snap.ServiceName != "payments" {
		t.Errorf("expected the fresh snapshot, got %+v", snap)
	}

	if len(bus.signals) != 1 || bus.signals[0].channel != eventbus.MonitorUpdatedChannel {
		t.Fatalf("expected one %s signal, got %+v", eventbus.MonitorUpdatedChannel, bus.signals)
	}
	if got := bus.signals[0].payload.(string); got != id.String() {
		t.Errorf("expected bare id %q but got %q", id.String(), got)
	}
}

func TestUpdateMonitorFailureSignalsNothing(t *testing.T) {
	svc, store, bus, _ := newServiceFixture()
	store.updateErr = apperror.New(apperror.NotFound, "repo.monitor.update", errors.New("no rows"))

	if _, err := svc.UpdateMonitor(context.Background(), store.snap.ID, UpdateMonitorCmd{}); err == nil {
		t.Error("expected an error but got nil")
	}
	if len(bus.signals) != 0 {
		t.Errorf("failed update must not signal, got %d", len(bus.signals))
	}
}

func TestDeleteMonitorPurgesTrackingAndSignals(t *testing.T) {
	svc, store, bus, tracker := newServiceFixture()
	id := store.snap.ID

	if err := svc.DeleteMonitor(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tracker.resets) != 1 || tracker.resets[0] != id {
		t.Errorf("expected failure state purged for %s, got %v", id, tracker.resets)
	}
	if len(bus.signals) != 1 || bus.signals[0].channel != eventbus.MonitorDeletedChannel {
		t.Fatalf("expected one %s signal, got %+v", eventbus.MonitorDeletedChannel, bus.signals)
	}
}

func TestDeleteMonitorSurvivesTrackerFailure(t *testing.T) {
	svc, store, bus, tracker := newServiceFixture()
	tracker.err = errors.New("redis gone")

	if err := svc.DeleteMonitor(context.Background(), store.snap.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.signals) != 1 {
		t.Errorf("deletion must still signal when the purge fails, got %d", len(bus.signals))
	}
}

func TestDeleteMonitorFailureSignalsNothing(t *testing.T) {
	svc, store, bus, tracker := newServiceFixture()
	store.deleteErr = apperror.New(apperror.NotFound, "repo.monitor.delete", errors.New("no rows"))

	if err := svc.DeleteMonitor(context.Background(), store.snap.ID); err == nil {
		t.Error("expected an error but got nil")
	}
	if len(tracker.resets) != 0 || len(bus.signals) != 0 {
		t.Errorf("failed deletion must not purge or signal, got resets=%d signals=%d",
			len(tracker.resets), len(bus.signals))
	}
}
