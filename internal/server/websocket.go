package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"doodleit/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxFrameBytes = 64 * 1024
)

// client is one websocket connection; its handle doubles as the player's connection handle.
type client struct {
	handle  string
	conn    *websocket.Conn
	writeMu sync.Mutex
	limiter *rate.Limiter
	done    chan struct{}
	once    sync.Once
}

func newClient(conn *websocket.Conn, limiter *rate.Limiter) *client {
	return &client{
		handle:  uuid.NewString(),
		conn:    conn,
		limiter: limiter,
		done:    make(chan struct{}),
	}
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// wsHub tracks live connections and the room group each one belongs to.
type wsHub struct {
	mu      sync.Mutex
	clients map[*client]string
	groups  map[string]map[*client]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		clients: make(map[*client]string),
		groups:  make(map[string]map[*client]struct{}),
	}
}

func (h *wsHub) Add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = ""
}

// Join moves c into the group for room.
func (h *wsHub) Join(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveGroupLocked(c)
	group := h.groups[room]
	if group == nil {
		group = make(map[*client]struct{})
		h.groups[room] = group
	}
	group[c] = struct{}{}
	h.clients[c] = room
}

func (h *wsHub) RoomOf(c *client) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients[c]
}

// Remove forgets c and closes its connection. It returns the room c was in.
func (h *wsHub) Remove(c *client) string {
	h.mu.Lock()
	room := h.clients[c]
	h.leaveGroupLocked(c)
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
	return room
}

// DropGroup detaches every member of room without closing their connections.
func (h *wsHub) DropGroup(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.groups[room] {
		h.clients[c] = ""
	}
	delete(h.groups, room)
}

func (h *wsHub) GroupSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[room])
}

func (h *wsHub) CloseAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.Remove(c)
	}
}

func (h *wsHub) leaveGroupLocked(c *client) {
	room := h.clients[c]
	if room == "" {
		return
	}
	group := h.groups[room]
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, room)
	}
	h.clients[c] = ""
}

func (h *wsHub) Send(c *client, event string, payload any) {
	data, err := json.Marshal(outboundFrame{Event: event, Data: payload})
	if err != nil {
		return
	}
	if err := c.write(data); err != nil {
		c.close()
	}
}

// Broadcast delivers to every member of room except skip, which may be nil. A failed
// write closes the connection and leaves cleanup to its read loop.
func (h *wsHub) Broadcast(room string, skip *client, event string, payload any) {
	h.mu.Lock()
	group := h.groups[room]
	clients := make([]*client, 0, len(group))
	for c := range group {
		if c != skip {
			clients = append(clients, c)
		}
	}
	h.mu.Unlock()

	data, err := json.Marshal(outboundFrame{Event: event, Data: payload})
	if err != nil {
		return
	}
	for _, c := range clients {
		if err := c.write(data); err != nil {
			c.close()
		}
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warnw("ws upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}
	limiter := rate.NewLimiter(rate.Limit(s.cfg.EventRate), s.cfg.EventBurst)
	cl := newClient(conn, limiter)
	s.hub.Add(cl)
	s.logger.Infow("ws connected", "conn", cl.handle, "remote", c.Request.RemoteAddr)
	go s.keepAlive(cl)
	go s.readWS(cl)
}

func (s *Server) readWS(c *client) {
	defer s.disconnect(c)
	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Infow("ws disconnected", "conn", c.handle, "error", err)
			} else {
				s.logger.Debugw("ws closed", "conn", c.handle)
			}
			return
		}
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Warnw("dropping malformed frame", "conn", c.handle, "error", err)
			continue
		}
		s.dispatch(c, frame)
	}
}

func (s *Server) keepAlive(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				c.close()
				return
			}
		}
	}
}

// disconnect runs once per connection after its read loop ends.
func (s *Server) disconnect(c *client) {
	room := s.hub.Remove(c)
	if room == "" {
		return
	}
	ctx, cancel := s.eventContext(c, "disconnect")
	defer cancel()
	s.leaveRoom(ctx, c, room)
}

func (s *Server) newUpgrader() websocket.Upgrader {
	allowAll, origins := s.originPolicy()
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			_, ok := origins[origin]
			return ok
		},
	}
}

func (s *Server) eventContext(c *client, event string) (context.Context, context.CancelFunc) {
	ctx := logging.WithLogger(context.Background(), s.logger.With("conn", c.handle, "event", event))
	if s.cfg.EventTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.EventTimeout)
	}
	return context.WithCancel(ctx)
}
