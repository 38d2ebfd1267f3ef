package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// Logger is the logging subset used by the hub.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// StatusEvent is pushed to a user's devices after each committed transition.
type StatusEvent struct {
	Type       string    `json:"type"`
	ActivityID int64     `json:"activity_id"`
	Phase      string    `json:"phase"`
	IsPresent  bool      `json:"is_present"`
	At         time.Time `json:"at"`
}

// TypeStatus is the StatusEvent type for attendance phase changes.
const TypeStatus = "attendance_status"

// client owns one connection. Only writeLoop writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue never blocks; false means the client is gone or too slow.
func (c *client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// StatusHub keeps live connections per user. A user may be connected from
// several devices at once; every device receives every event.
type StatusHub struct {
	upgrader websocket.Upgrader
	logger   Logger

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration

	mu    sync.RWMutex
	conns map[int64]map[*client]struct{}
}

// NewStatusHub constructs a hub.
func NewStatusHub(logger Logger) *StatusHub {
	return &StatusHub{
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:     logger,
		writeWait:  writeWait,
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
		conns:      make(map[int64]map[*client]struct{}),
	}
}

// ServeWS upgrades the request and subscribes it to userID's events.
func (h *StatusHub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("attendance ws upgrade failed: %v", err)
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(userID, c)
	go h.readLoop(userID, c)
}

// Connections returns the number of live connections of a user.
func (h *StatusHub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

func (h *StatusHub) remove(userID int64, c *client) {
	c.close()
	h.mu.Lock()
	if set, ok := h.conns[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
	h.mu.Unlock()
}

func (h *StatusHub) writeLoop(userID int64, c *client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Errorf("attendance ws write to user %d failed: %v", userID, err)
				h.remove(userID, c)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.writeWait)); err != nil {
				h.remove(userID, c)
				return
			}
		}
	}
}

func (h *StatusHub) readLoop(userID int64, c *client) {
	defer h.remove(userID, c)

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	for {
		mt, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
		if mt == websocket.TextMessage && strings.EqualFold(strings.TrimSpace(string(msg)), "ping") {
			c.enqueue([]byte("pong"))
		}
	}
}

// PushStatus queues event for every connection of userID. It does not wait
// for the writes; a device whose queue is full is disconnected.
func (h *StatusHub) PushStatus(userID int64, event StatusEvent) {
	if event.Type == "" {
		event.Type = TypeStatus
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(payload) {
			h.logger.Errorf("attendance ws user %d is not keeping up, dropping connection", userID)
			h.remove(userID, c)
		}
	}
}
