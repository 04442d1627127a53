package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/versemark/versemark/pkg/index"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// event is a message pushed to checklist listeners.
type event struct {
	Type        string         `json:"type"` // "snapshot", "toggle", "reload"
	Key         string         `json:"key,omitempty"`
	Read        *bool          `json:"read,omitempty"`
	Progress    index.Progress `json:"progress,omitempty"`
	Tally       *index.Tally   `json:"tally,omitempty"`
	Fingerprint string         `json:"fingerprint,omitempty"`
}

// client is one websocket connection of a signed-in user.
type client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

type userMessage struct {
	userID string // "" reaches everyone
	data   []byte
}

// Hub tracks live connections per user and fans messages out to them.
type Hub struct {
	clients    map[string]map[*client]bool
	broadcast  chan userMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        Logger
	gauge      prometheus.Gauge
}

// NewHub creates a hub. gauge may be nil.
func NewHub(log Logger, gauge prometheus.Gauge) *Hub {
	if log == nil {
		log = nopLogger{}
	}
	return &Hub{
		clients:    make(map[string]map[*client]bool),
		broadcast:  make(chan userMessage, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		log:        log,
		gauge:      gauge,
	}
}

// Run handles registration and fan-out until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*client]bool)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*client]bool)
			}
			h.clients[c.userID][c] = true
			h.mu.Unlock()
			h.adjust(1)
			h.log.Debugf("websocket client connected for user %s", c.userID)

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var full []*client
			for userID, set := range h.clients {
				if msg.userID != "" && msg.userID != userID {
					continue
				}
				for c := range set {
					select {
					case c.send <- msg.data:
					default:
						full = append(full, c)
					}
				}
			}
			h.mu.RUnlock()
			// Slow readers are dropped.
			for _, c := range full {
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	set := h.clients[c.userID]
	_, ok := set[c]
	if ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		h.adjust(-1)
		h.log.Debugf("websocket client disconnected for user %s", c.userID)
	}
}

func (h *Hub) adjust(delta float64) {
	if h.gauge != nil {
		h.gauge.Add(delta)
	}
}

// Stop closes every connection and ends Run. It is safe to call twice.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Send queues msg for every connection of userID, or for everyone when
// userID is empty.
func (h *Hub) Send(userID string, msg event) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorf("failed to marshal websocket message: %v", err)
		return
	}
	select {
	case h.broadcast <- userMessage{userID: userID, data: data}:
	case <-h.done:
	default:
		h.log.Warnf("broadcast channel full, dropping message")
	}
}

// attach registers a connection whose first message is already queued.
func (h *Hub) attach(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debugf("websocket unexpected close: %v", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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

// handleWebSocket streams the user's progress: a snapshot first, then one
// message per change.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, userID string) {
	progress, err := s.progress.ReadProgress(r.Context(), userID)
	if err != nil {
		s.serverError(w, "reading progress", err)
		return
	}
	snap := s.catalog.Current()
	tally := snap.Index.Tally(progress)
	first, err := json.Marshal(event{Type: "snapshot", Progress: progress, Tally: &tally, Fingerprint: snap.Fingerprint})
	if err != nil {
		s.serverError(w, "encoding snapshot", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{hub: s.hub, userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- first
	if !s.hub.attach(c) {
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
