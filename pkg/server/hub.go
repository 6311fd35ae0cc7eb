package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// stateMessage tells browsers that a newer state is available
type stateMessage struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub pushes state change notices to every connected browser. Publish
// never blocks; pending notices coalesce into the latest version.
type Hub struct {
	clients    map[string]*client
	register   chan *client
	unregister chan *client
	changed    chan struct{}
	done       chan struct{}
	latest     atomic.Uint64
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		changed:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Run is the event loop of the hub. It returns when ctx is canceled and
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			logging.From(ctx).Debug("websocket client connected", "id", c.id, "total", n)
			// the current version goes out first so a reconnecting page catches up
			if v := h.latest.Load(); v > 0 {
				h.sendTo(ctx, c, v)
			}
			go c.writePump(ctx)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.From(ctx).Debug("websocket client disconnected", "id", c.id, "total", n)

		case <-h.changed:
			h.broadcast(ctx, h.latest.Load())
		}
	}
}

// Publish announces a new state version
func (h *Hub) Publish(version uint64) {
	for {
		cur := h.latest.Load()
		if version <= cur || h.latest.CompareAndSwap(cur, version) {
			break
		}
	}
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// ClientCount returns the number of connected browsers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(ctx context.Context, version uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.sendTo(ctx, c, version)
	}
}

func (h *Hub) sendTo(ctx context.Context, c *client, version uint64) {
	data, err := json.Marshal(stateMessage{Type: "state", Version: version})
	if err != nil {
		logging.From(ctx).Error("failed to marshal state message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		// a queued notice already makes the browser refetch
		logging.From(ctx).Debug("websocket send buffer full", "id", c.id)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

// serveWS upgrades the request and registers the browser
func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.From(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  h,
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.readPump(context.WithoutCancel(r.Context()))
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logging.From(ctx).Debug("websocket write failed", "id", c.id, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the connection to close
func (c *client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.From(ctx).Warn("unexpected websocket close", "id", c.id, "error", err)
			}
			return
		}
	}
}
