// Package eventbus fans geofence events and location pings out to
// connected WebSocket subscribers, with a Redis pub/sub leg so multiple
// server instances share one broadcast stream. Grounded on
// internal/common/realtime/websocket_hub.go's register/unregister/broadcast
// channel hub, generalized from per-company scoping to the two topics this
// domain needs: location-updates and geofence-events.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"github.com/fleetops/geoguard/internal/logging"
)

// Topics this bus carries.
const (
	TopicLocationUpdates = "location-updates"
	TopicGeofenceEvents  = "geofence-events"

	redisChannel = "geoguard:eventbus"
)

// Message is the envelope every subscriber receives.
type Message struct {
	Topic     string      `json:"topic"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Client is one connected WebSocket subscriber.
type Client struct {
	id     string
	topic  string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
}

// Config tunes connection lifetime parameters.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	MaxMessageSize  int64
}

// DefaultConfig mirrors the teacher's WebSocket defaults.
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingPeriod:      54 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       10 * time.Second,
		MaxMessageSize:  512,
	}
}

// Hub is the publish/subscribe fanout. Publish is safe to call from any
// goroutine, including the trip coordinator's post-commit side-effect
// step.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	redis *redis.Client
	log   *logging.Logger
	mu    sync.RWMutex
	cfg   *Config
}

// New creates a Hub and starts its run loop. redisClient may be nil, in
// which case fanout is local-process-only.
func New(redisClient *redis.Client, cfg *Config, log *logging.Logger) *Hub {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		redis:      redisClient,
		log:        log,
		cfg:        cfg,
	}
	go h.run()
	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.Subscribe(context.Background(), redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for msg := range ch {
		h.broadcast <- []byte(msg.Payload)
	}
}

// Publish sends a message to every subscriber of topic, local and — if a
// Redis client is configured — cross-instance. Never blocks on a slow
// subscriber: a full client buffer causes that client to be dropped, not
// the publisher to stall.
func (h *Hub) Publish(ctx context.Context, topic, msgType string, data interface{}) {
	msg := Message{Topic: topic, Type: msgType, Data: data, Timestamp: time.Now()}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.LogError(err, "failed to marshal eventbus message", map[string]interface{}{"topic": topic})
		return
	}

	h.publishLocal(topic, payload)

	if h.redis != nil {
		if err := h.redis.Publish(ctx, redisChannel, payload).Err(); err != nil {
			h.log.LogError(err, "failed to publish to redis", map[string]interface{}{"topic": topic})
		}
	}
}

func (h *Hub) publishLocal(topic string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.topic != "" && c.topic != topic {
			continue
		}
		select {
		case c.send <- payload:
		default:
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// HandleWebSocket upgrades the request and registers the connection as a
// subscriber, optionally scoped to a single topic via ?topic=.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	topic := c.Query("topic")

	upgrader := websocket.Upgrader{
		ReadBufferSize:  h.cfg.ReadBufferSize,
		WriteBufferSize: h.cfg.WriteBufferSize,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to upgrade to websocket"})
		return
	}

	client := &Client{
		id:    fmt.Sprintf("%s_%d", topic, time.Now().UnixNano()),
		topic: topic,
		conn:  conn,
		send:  make(chan []byte, 256),
		hub:   h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// ConnectedClients returns the current subscriber count.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
