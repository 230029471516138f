package incident

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newHandlerServer(store *fakeStore) *httptest.Server {
	logger := zerolog.Nop()
	svc := NewService(store, &fakeMonitors{}, &fakeTracker{}, &fakeBus{}, nil, &logger)
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Get("/organizations/{organizationID}/incidents", h.ListOrganizationIncidents)
	return httptest.NewServer(r)
}

func TestListOrganizationIncidentsEndpoint(t *testing.T) {
	orgID := uuid.New()
	resolvedAt := time.Date(2025, 3, 1, 12, 10, 0, 0, time.UTC)
	store := &fakeStore{list: []Incident{
		{
			ID:             uuid.New(),
			OrganizationID: orgID,
			ServiceID:      uuid.New(),
			MonitorID:      uuid.New(),
			Title:          "checkout api DOWN",
			Severity:       SeverityLow,
			Status:         StatusOpen,
			AutoCreated:    true,
			CreatedAt:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:             uuid.New(),
			OrganizationID: orgID,
			ServiceID:      uuid.New(),
			MonitorID:      uuid.New(),
			Title:          "billing api DOWN",
			Severity:       SeverityHigh,
			Status:         StatusResolved,
			AutoCreated:    true,
			AutoResolved:   true,
			ResolvedAt:     &resolvedAt,
		},
	}}

	srv := newHandlerServer(store)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/organizations/" + orgID.String() + "/incidents")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", resp.StatusCode)
	}

	var envelope struct {
		Success bool               `json:"success"`
		Data    []IncidentResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !envelope.Success || len(envelope.Data) != 2 {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}

	open := envelope.Data[0]
	if open.Severity != "LOW" || open.Status != "OPEN" || !open.AutoCreated || open.ResolvedAt != nil {
		t.Errorf("unexpected open incident: %+v", open)
	}
	resolved := envelope.Data[1]
	if resolved.Status != "RESOLVED" || !resolved.AutoResolved || resolved.ResolvedAt == nil {
		t.Errorf("unexpected resolved incident: %+v", resolved)
	}
}

func TestListOrganizationIncidentsRejectsMalformedID(t *testing.T) {
	srv := newHandlerServer(&fakeStore{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/organizations/not-a-uuid/incidents")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400 but got %d", resp.StatusCode)
	}
}
