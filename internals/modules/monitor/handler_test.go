package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"statusdeck/internals/modules/result"
	"statusdeck/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeResults struct {
	outcomes []result.Outcome
	limit    int32
	offset   int32
}

func (f *fakeResults) ListByMonitor(ctx context.Context, monitorID uuid.UUID, limit, offset int32) ([]result.Outcome, error) {
	f.limit = limit
	f.offset = offset
	return f.outcomes, nil
}

type handlerFixture struct {
	store   *fakeStore
	results *fakeResults
	srv     *httptest.Server
}

func newHandlerFixture() *handlerFixture {
	store := &fakeStore{createID: uuid.New()}
	store.snap = Snapshot{
		Monitor: Monitor{
			ID:          store.createID,
			ServiceID:   uuid.New(),
			Name:        "checkout api",
			URL:         "https://api.example.com/health",
			Method:      "GET",
			Type:        "HTTP",
			IntervalSec: 60,
			Active:      true,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		},
		ServiceName:    "payments",
		OrganizationID: uuid.New(),
	}

	logger := zerolog.Nop()
	svc := NewService(store, &fakeSignalBus{}, &fakePurgeTracker{}, &logger)
	results := &fakeResults{}
	h := NewHandler(svc, results, validator.New())

	return &handlerFixture{
		store:   store,
		results: results,
		srv:     httptest.NewServer(Routes(h)),
	}
}

func TestCreateMonitorEndpoint(t *testing.T) {
	validBody := `{
		"serviceId": "11111111-1111-1111-1111-111111111111",
		"name": "checkout api",
		"url": "https://api.example.com/health",
		"interval": 60
	}`

	tests := []struct {
		Name       string
		Body       string
		WantStatus int
	}{
		{"valid monitor", validBody, http.StatusCreated},
		{"not json", "not json", http.StatusBadRequest},
		{"missing url", `{"serviceId":"11111111-1111-1111-1111-111111111111","name":"x","interval":60}`, http.StatusBadRequest},
		{"interval below minimum", `{"serviceId":"11111111-1111-1111-1111-111111111111","name":"x","url":"https://x.dev","interval":5}`, http.StatusBadRequest},
		{"bogus method", `{"serviceId":"11111111-1111-1111-1111-111111111111","name":"x","url":"https://x.dev","interval":60,"method":"BREW"}`, http.StatusBadRequest},
		{"service id not a uuid", `{"serviceId":"svc-1","name":"x","url":"https://x.dev","interval":60}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			f := newHandlerFixture()
			defer f.srv.Close()

			resp, err := http.Post(f.srv.URL+"/", "application/json", strings.NewReader(tt.Body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.WantStatus {
				t.Errorf("expected status %d but got %d", tt.WantStatus, resp.StatusCode)
			}
		})
	}
}

func TestCreateMonitorAppliesDefaults(t *testing.T) {
	f := newHandlerFixture()
	defer f.srv.Close()

	body := `{
		"serviceId": "11111111-1111-1111-1111-111111111111",
		"name": "checkout api",
		"url": "https://api.example.com/health",
		"interval": 60
	}`
	resp, err := http.Post(f.srv.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if len(f.store.created) != 1 {
		t.Fatalf("expected 1 created monitor but got %d", len(f.store.created))
	}
	cmd := f.store.created[0]
	if cmd.Method != "GET" || cmd.Type != "HTTP" || !cmd.Active {
		t.Errorf("expected GET/HTTP/active defaults, got %+v", cmd)
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !envelope.Success || envelope.Data.ID != f.store.createID.String() {
		t.Errorf("unexpected response envelope: %+v", envelope)
	}
}

func TestGetMonitorEndpoint(t *testing.T) {
	f := newHandlerFixture()
	defer f.srv.Close()

	resp, err := http.Get(f.srv.URL + "/" + f.store.snap.ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", resp.StatusCode)
	}

	var envelope struct {
		Data MonitorResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if envelope.Data.ID != f.store.snap.ID.String() || envelope.Data.ServiceName != "payments" {
		t.Errorf("unexpected monitor payload: %+v", envelope.Data)
	}
}

func TestGetMonitorRejectsMalformedID(t *testing.T) {
	f := newHandlerFixture()
	defer f.srv.Close()

	resp, err := http.Get(f.srv.URL + "/not-a-uuid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400 but got %d", resp.StatusCode)
	}
}

func TestGetMonitorMapsNotFound(t *testing.T) {
	f := newHandlerFixture()
	defer f.srv.Close()
	f.store.snapErr = apperror.New(apperror.NotFound, "repo.monitor.getSnapshot", errors.New("no rows"))

	resp, err := http.Get(f.srv.URL + "/" + uuid.New().String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404 but got %d", resp.StatusCode)
	}
}

func TestListMonitorResultsEndpoint(t *testing.T) {
	f := newHandlerFixture()
	defer f.srv.Close()

	rt := int64(42)
	code := 200
	f.results.outcomes = []result.Outcome{
		{
			MonitorID:      f.store.snap.ID,
			Status:         result.StatusUp,
			ResponseTimeMs: &rt,
			HTTPStatusCode: &code,
			CheckedAt:      time.Now().UTC(),
		},
	}

	resp, err := http.Get(f.srv.URL + "/" + f.store.snap.ID.String() + "/results?limit=25&offset=5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", resp.StatusCode)
	}
	if f.results.limit != 25 || f.results.offset != 5 {
		t.Errorf("expected limit/offset 25/5 but got %d/%d", f.results.limit, f.results.offset)
	}

	var envelope struct {
		Data []ResultResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Status != "UP" {
		t.Errorf("unexpected results payload: %+v", envelope.Data)
	}
}

func TestListMonitorResultsClampsPagination(t *testing.T) {
	f := newHandlerFixture()
	defer f.srv.Close()

	resp, err := http.Get(f.srv.URL + "/" + f.store.snap.ID.String() + "/results?limit=99999&offset=-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if f.results.limit != 500 {
		t.Errorf("expected limit clamped to 500 but got %d", f.results.limit)
	}
	if f.results.offset != 0 {
		t.Errorf("expected offset clamped to 0 but got %d", f.results.offset)
	}
}
