package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fishbanks/internal/game"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 45 * time.Second
	wsSendBufferSize = 16
)

// Hub pushes game events to connected browsers. Messages are fire-and-forget
// hints: clients refetch state over HTTP when they see one, so a dropped
// message costs staleness, never correctness.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	nextTick time.Time
	interval time.Duration
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

type wsMessage struct {
	Type     string            `json:"type"`
	Tick     *game.TickSummary `json:"tick,omitempty"`
	NextTick *time.Time        `json:"next_tick,omitempty"`
	Interval string            `json:"interval,omitempty"`
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log:     logger,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetTickSchedule records when the next scheduled settlement lands, for the
// countdown shown to clients.
func (h *Hub) SetTickSchedule(next time.Time, interval time.Duration) {
	h.mu.Lock()
	h.nextTick = next
	h.interval = interval
	h.mu.Unlock()
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBufferSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("ws client connected", "clients", n)

	// Greeting mirrors a broadcast round: refetch hint, then the countdown.
	c.send <- mustMarshal(wsMessage{Type: "update"})
	c.send <- mustMarshal(h.tickInfoMessage())

	go c.writeLoop()
	c.readLoop(h)
}

func (h *Hub) BroadcastUpdate() {
	h.broadcast(wsMessage{Type: "update"})
}

func (h *Hub) BroadcastTick(summary game.TickSummary) {
	h.broadcast(wsMessage{Type: "tick", Tick: &summary})
	h.broadcast(h.tickInfoMessage())
}

func (h *Hub) tickInfoMessage() wsMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := wsMessage{Type: "tickInfo"}
	if !h.nextTick.IsZero() {
		next := h.nextTick
		msg.NextTick = &next
		msg.Interval = h.interval.String()
	}
	return msg
}

// broadcast fans a message out without blocking the caller. A client whose
// buffer is full is disconnected rather than allowed to stall the rest.
func (h *Hub) broadcast(msg wsMessage) {
	payload := mustMarshal(msg)

	h.mu.Lock()
	var slow []*wsClient
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range slow {
		close(c.send)
		h.log.Warn("dropping slow ws client")
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if present {
		close(c.send)
	}
}

// ClientCount is used by tests and the health endpoint.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (c *wsClient) writeLoop() {
	ping := time.NewTicker(wsPingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains and discards client frames; the protocol is one-way. It
// exists to notice disconnects and answer pings.
func (c *wsClient) readLoop(h *Hub) {
	defer h.remove(c)
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
