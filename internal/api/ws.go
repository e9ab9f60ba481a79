package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/quantclass/chartsim/internal/app"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the dashboard is served from anywhere during development
	CheckOrigin: func(*http.Request) bool { return true },
}

// client is one websocket connection with its outbound queue.
type client struct {
	conn *websocket.Conn
	send chan app.Event
}

// Hub fans session events out to every connected dashboard and feeds
// inbound commands back into the session. It implements app.Publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	state   AppState
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Bind attaches the session that inbound commands are dispatched to.
// Commands arriving before Bind are dropped.
func (h *Hub) Bind(state AppState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
}

// Publish queues the event on every client. A client that cannot keep
// up has its queue overflow and is disconnected rather than stalling
// the tick loop.
func (h *Hub) Publish(ev app.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan app.Event, 64)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("websocket client connected", "remote", conn.RemoteAddr())

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.Close()
}

// command is one inbound dashboard message.
type command struct {
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Direction  string  `json:"direction"`
	Quantity   float64 `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			slog.Debug("bad websocket command", "err", err)
			continue
		}
		h.dispatch(cmd)
	}
}

func (h *Hub) dispatch(cmd command) {
	h.mu.Lock()
	state := h.state
	h.mu.Unlock()
	if state == nil {
		return
	}

	switch cmd.Type {
	case "pointer":
		state.PointerMove(cmd.X, cmd.Y)
	case "pointer_leave":
		state.PointerLeave()
	case "resize":
		state.Resize(cmd.Width, cmd.Height)
	case "open":
		if _, err := state.OpenPosition(cmd.Direction, cmd.Quantity, cmd.Confidence); err != nil {
			h.Publish(app.Event{Type: "toast", Data: app.Toast{Level: "error", Message: err.Error()}})
		}
	case "close":
		if _, _, err := state.ClosePosition(); err != nil {
			h.Publish(app.Event{Type: "toast", Data: app.Toast{Level: "error", Message: err.Error()}})
		}
	default:
		slog.Debug("unknown websocket command", "type", cmd.Type)
	}
}

// drop removes the client and closes its connection. Safe to call from
// both pumps; the send channel is closed exactly once, guarded by map
// membership.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}
