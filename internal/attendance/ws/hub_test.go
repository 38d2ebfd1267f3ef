package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type testLogger struct{}

func (testLogger) Infof(string, ...interface{})  {}
func (testLogger) Errorf(string, ...interface{}) {}

func serveHub(t *testing.T, hub *StatusHub, userID int64) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitConnections(t *testing.T, hub *StatusHub, userID int64, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections(userID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, got %d", want, hub.Connections(userID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatusHubPushesToEveryDevice(t *testing.T) {
	hub := NewStatusHub(testLogger{})
	url := serveHub(t, hub, 42)

	phone, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial phone: %v", err)
	}
	defer phone.Close()
	tablet, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial tablet: %v", err)
	}
	defer tablet.Close()
	waitConnections(t, hub, 42, 2)

	hub.PushStatus(42, StatusEvent{ActivityID: 7, Phase: "checked_in"})
	hub.PushStatus(43, StatusEvent{ActivityID: 7, Phase: "completed"})

	for name, conn := range map[string]*websocket.Conn{"phone": phone, "tablet": tablet} {
		var got StatusEvent
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("%s read: %v", name, err)
		}
		if got.Type != TypeStatus || got.ActivityID != 7 || got.Phase != "checked_in" {
			t.Fatalf("%s got unexpected event %+v", name, got)
		}
	}
}

func TestStatusHubPushWithoutConnections(t *testing.T) {
	hub := NewStatusHub(testLogger{})
	hub.PushStatus(1, StatusEvent{ActivityID: 1, Phase: "completed", IsPresent: true})
	if hub.Connections(1) != 0 {
		t.Fatal("expected no connections")
	}
}

func TestStatusHubKeepsIdleClientAlive(t *testing.T) {
	hub := NewStatusHub(testLogger{})
	hub.pingPeriod = 50 * time.Millisecond
	hub.pongWait = 200 * time.Millisecond
	url := serveHub(t, hub, 42)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// a browser only answers pings, it never sends anything itself
	var pings int32
	conn.SetPingHandler(func(data string) error {
		atomic.AddInt32(&pings, 1)
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	waitConnections(t, hub, 42, 1)
	time.Sleep(4 * hub.pongWait)

	if got := atomic.LoadInt32(&pings); got < 3 {
		t.Fatalf("expected server pings, got %d", got)
	}
	if hub.Connections(42) != 1 {
		t.Fatalf("idle client was dropped, connections=%d", hub.Connections(42))
	}
}

func TestStatusHubDropsUnresponsiveClient(t *testing.T) {
	hub := NewStatusHub(testLogger{})
	hub.pingPeriod = 50 * time.Millisecond
	hub.pongWait = 200 * time.Millisecond
	url := serveHub(t, hub, 42)

	// never reads, so pings are never answered
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitConnections(t, hub, 42, 1)
	waitConnections(t, hub, 42, 0)
}

func TestStatusHubPushDoesNotWaitForSlowDevice(t *testing.T) {
	hub := NewStatusHub(testLogger{})
	url := serveHub(t, hub, 42)

	stalled, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer stalled.Close()
	waitConnections(t, hub, 42, 1)

	started := time.Now()
	for i := 0; i < sendBuffer*8; i++ {
		hub.PushStatus(42, StatusEvent{ActivityID: int64(i), Phase: "checked_in"})
	}
	if elapsed := time.Since(started); elapsed > 500*time.Millisecond {
		t.Fatalf("PushStatus blocked for %s", elapsed)
	}
}
