package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func newTestServer() (*httptest.Server, *Hub, *Hub) {
	logger := zerolog.Nop()
	monitors := NewHub("monitors", &logger)
	incidents := NewHub("incidents", &logger)
	h := NewHandler(monitors, incidents, &logger)
	return httptest.NewServer(Routes(h)), monitors, incidents
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func waitForCount(t *testing.T, hub *Hub, orgID string, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for hub.Count(orgID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections for %s but got %d", want, orgID, hub.Count(orgID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMonitorFeedDeliversDispatchedEvents(t *testing.T) {
	srv, monitors, _ := newTestServer()
	defer srv.Close()

	orgID := "11111111-1111-1111-1111-111111111111"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/monitors/"+orgID), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	waitForCount(t, monitors, orgID, 1)

	payload := `{"organization_id":"` + orgID + `","type":"monitor_update","payload":{}}`
	monitors.Dispatch(orgID, []byte(payload))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg) != payload {
		t.Errorf("expected %s but got %s", payload, msg)
	}
}

func TestIncidentFeedIsSeparateFromMonitorFeed(t *testing.T) {
	srv, monitors, incidents := newTestServer()
	defer srv.Close()

	orgID := "11111111-1111-1111-1111-111111111111"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/incidents/"+orgID), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	waitForCount(t, incidents, orgID, 1)
	if got := monitors.Count(orgID); got != 0 {
		t.Errorf("monitor hub must not see incident subscribers, got %d", got)
	}
}

func TestRejectsMalformedOrganizationID(t *testing.T) {
	srv, _, _ := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/monitors/not-a-uuid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400 but got %d", resp.StatusCode)
	}
}

func TestDisconnectUnregistersTheConnection(t *testing.T) {
	srv, monitors, _ := newTestServer()
	defer srv.Close()

	orgID := "11111111-1111-1111-1111-111111111111"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/monitors/"+orgID), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitForCount(t, monitors, orgID, 1)
	conn.Close()
	waitForCount(t, monitors, orgID, 0)
}
