package watch

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(log.New(os.Stdout, "[watch-test] ", log.LstdFlags))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("run"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, runID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?run=" + runID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitWatchers(t *testing.T, hub *Hub, runID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Watchers(runID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("watchers(%s) = %d, want %d", runID, hub.Watchers(runID), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishReachesWatcher(t *testing.T) {
	hub, srv := testHub(t)
	conn := dial(t, srv, "run-1")
	waitWatchers(t, hub, "run-1", 1)

	hub.Publish("run-1", map[string]any{"roundNumber": 2, "eventId": "POS_OUTAGE"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if got["eventId"] != "POS_OUTAGE" {
		t.Fatalf("payload = %v", got)
	}
}

func TestPublishIsScopedToRun(t *testing.T) {
	hub, srv := testHub(t)
	conn := dial(t, srv, "run-a")
	waitWatchers(t, hub, "run-a", 1)

	hub.Publish("run-b", map[string]any{"roundNumber": 1})
	hub.Publish("run-a", map[string]any{"roundNumber": 7})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatal(err)
	}
	if got["roundNumber"] != float64(7) {
		t.Fatalf("watcher received another run's update: %v", got)
	}
}

func TestDisconnectUnsubscribes(t *testing.T) {
	hub, srv := testHub(t)
	conn := dial(t, srv, "run-1")
	waitWatchers(t, hub, "run-1", 1)

	conn.Close()
	waitWatchers(t, hub, "run-1", 0)

	// Publishing to a run with no watchers is a no-op.
	hub.Publish("run-1", map[string]any{"roundNumber": 1})
}
