package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Hub tracks socket clients and their topic subscriptions.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	auth     Authenticator
	logger   *zap.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

type client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.RWMutex
	topics map[string]bool
	closed bool
}

// NewHub creates a hub. allowedOrigins empty means any origin.
func NewHub(auth Authenticator, logger *zap.Logger, metrics *observability.Metrics, allowedOrigins ...string) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients: make(map[*client]struct{}),
		auth:    auth,
		logger:  logger,
		metrics: metrics,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP authenticates the token query parameter (or bearer header) and
// upgrades the connection. The client starts in its own user room.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	user, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:     uuid.NewString(),
		userID: user.ID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		topics: map[string]bool{UserTopic(user.ID): true},
	}
	h.register(c)
	h.logger.Info("realtime client connected", zap.String("client_id", c.id), zap.String("user_id", user.ID))

	go c.writePump()
	c.readPump()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.RealtimeConnected(1)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.close()
	h.metrics.RealtimeConnected(-1)
	h.logger.Info("realtime client disconnected", zap.String("client_id", c.id), zap.String("user_id", c.userID))
}

// Deliver sends env to every client subscribed to its topic. Clients whose
// buffer is full are disconnected.
func (h *Hub) Deliver(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Warn("encode realtime envelope failed", zap.String("event", env.Event), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.subscribed(env.Topic) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(payload) {
			h.logger.Warn("realtime client too slow, dropping", zap.String("client_id", c.id))
			h.unregister(c)
		}
	}
}

// ConnectedClients returns the number of open sockets.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.unregister(c)
	}
}

func (c *client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

func (c *client) enqueue(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read failed", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
		c.handleFrame(message)
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
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// subscriptionFrame is the JSON form of a subscription request.
type subscriptionFrame struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

// handleFrame accepts "subscribe:alerts" style text frames or
// {"type":"subscribe","topics":["alerts"]}.
func (c *client) handleFrame(message []byte) {
	var frame subscriptionFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		action, topic, ok := strings.Cut(strings.TrimSpace(string(message)), ":")
		if !ok {
			c.reply(EventError, "", "unrecognised frame")
			return
		}
		frame = subscriptionFrame{Type: action, Topics: []string{topic}}
	}

	for _, topic := range frame.Topics {
		if topic != TopicAlerts && topic != TopicTickets {
			c.reply(EventError, topic, "unknown topic")
			continue
		}
		switch frame.Type {
		case "subscribe":
			c.setTopic(topic, true)
			c.reply(EventSubscribed, topic, nil)
		case "unsubscribe":
			c.setTopic(topic, false)
			c.reply(EventUnsubscribed, topic, nil)
		default:
			c.reply(EventError, topic, "unknown action")
		}
	}
}

func (c *client) setTopic(topic string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.topics[topic] = true
		return
	}
	delete(c.topics, topic)
}

func (c *client) reply(event, topic string, data any) {
	payload, err := json.Marshal(Envelope{
		Event:     event,
		Topic:     topic,
		UserID:    c.userID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	c.enqueue(payload)
}
