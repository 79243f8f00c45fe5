package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

const (
	MessageSnapshot = "TOURNAMENT_SNAPSHOT"
	MessageUpdated  = "TOURNAMENT_UPDATED"
	MessageDeleted  = "TOURNAMENT_DELETED"
)

type Message struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans tournament updates out to the spectators of each tournament. One room per tournament id.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	upgrader websocket.Upgrader
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	room string
	send chan []byte
	once sync.Once
}

// NewHub accepts websocket upgrades from the given origins; "*" allows any.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{rooms: make(map[string]map[*client]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Serve upgrades the request and subscribes the connection to room.
// snapshot is sent first so a new spectator does not wait for the next change.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, room string, snapshot any) error {
	conn, err := h.upgrader.Upgrade(hijacker(w), r, nil)
	if err != nil {
		return err
	}

	c := &client{hub: h, conn: conn, room: room, send: make(chan []byte, sendBuffer)}
	h.register(c)

	if data, err := encode(MessageSnapshot, room, snapshot); err == nil {
		c.send <- data
	}

	go c.writePump()
	go c.readPump()
	return nil
}

// hijacker digs through middleware writers that expose Unwrap but not Hijack, such as the
// session manager's, to the writer that owns the connection.
func hijacker(w http.ResponseWriter) http.ResponseWriter {
	for {
		if _, ok := w.(http.Hijacker); ok {
			return w
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return w
		}
		w = u.Unwrap()
	}
}

// Publish sends payload to every spectator of room. Slow spectators miss the message instead of blocking.
func (h *Hub) Publish(room string, payload any) {
	h.broadcast(room, MessageUpdated, payload)
}

// PublishDeleted tells the spectators of room that the tournament is gone.
func (h *Hub) PublishDeleted(room string) {
	h.broadcast(room, MessageDeleted, nil)
}

func (h *Hub) broadcast(room, kind string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.rooms[room]
	if len(clients) == 0 {
		return
	}

	data, err := encode(kind, room, payload)
	if err != nil {
		slog.Error("failed to encode live message", "room", room, "error", err)
		return
	}

	for c := range clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("spectator send buffer full, dropping message", "room", room)
		}
	}
}

// Subscribers returns the number of open connections in room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[c.room]; !ok {
		h.rooms[c.room] = make(map[*client]struct{})
	}
	h.rooms[c.room][c] = struct{}{}
	slog.Debug("spectator joined", "room", c.room, "subscribers", len(h.rooms[c.room]))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
	slog.Debug("spectator left", "room", c.room, "subscribers", len(clients))
}

func encode(kind, room string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: kind, RoomID: room, Payload: payload})
}

func (c *client) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		c.conn.Close()
	})
}

// readPump only services pongs and close frames; spectators never send commands.
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("spectator connection closed", "room", c.room, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
