package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeDeadline = 10 * time.Second

// Client is one WebSocket subscriber bound to a single composition.
type Client struct {
	conn          *websocket.Conn
	compositionID string

	writeMu sync.Mutex

	// Heartbeat accounting, guarded by the hub mutex.
	missedPings uint64
	pingSeq     uint64
	lastPong    time.Time
}

func (c *Client) send(msg *Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteJSON(msg)
}

// Hub tracks subscribers per composition and broadcasts frames to them.
// Subscription hooks fire when a composition gains its first client and
// loses its last one; the bridge uses them to open and close Redis
// subscriptions.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	onFirstClient func(compositionID string)
	onLastClient  func(compositionID string)
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]map[*Client]struct{}),
	}
}

// SetSubscriptionHooks installs the first/last client callbacks. Must be
// called before any client connects.
func (h *Hub) SetSubscriptionHooks(onFirst, onLast func(compositionID string)) {
	h.onFirstClient = onFirst
	h.onLastClient = onLast
}

// HandleSubscribe upgrades the request and serves the client until it
// disconnects or is evicted.
func (h *Hub) HandleSubscribe(w http.ResponseWriter, r *http.Request, compositionID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "composition_id", compositionID, "error", err)
		return
	}
	client := h.register(compositionID, conn)
	h.serve(client)
}

func (h *Hub) register(compositionID string, conn *websocket.Conn) *Client {
	client := &Client{
		conn:          conn,
		compositionID: compositionID,
		lastPong:      time.Now(),
	}

	h.mu.Lock()
	first := len(h.clients[compositionID]) == 0
	if h.clients[compositionID] == nil {
		h.clients[compositionID] = make(map[*Client]struct{})
	}
	h.clients[compositionID][client] = struct{}{}
	h.mu.Unlock()

	if first && h.onFirstClient != nil {
		h.onFirstClient(compositionID)
	}
	h.log.Debug("client subscribed", "composition_id", compositionID)
	return client
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	set := h.clients[client.compositionID]
	if _, ok := set[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, client)
	last := len(set) == 0
	if last {
		delete(h.clients, client.compositionID)
	}
	h.mu.Unlock()

	_ = client.conn.Close()
	if last && h.onLastClient != nil {
		h.onLastClient(client.compositionID)
	}
	h.log.Debug("client unsubscribed", "composition_id", client.compositionID)
}

// serve reads frames until the connection drops. The only inbound frame
// clients send is pong.
func (h *Hub) serve(client *Client) {
	defer h.unregister(client)
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == MessagePong {
			h.mu.Lock()
			client.missedPings = 0
			client.lastPong = time.Now()
			h.mu.Unlock()
		}
	}
}

// Broadcast sends one frame to every subscriber of a composition.
// Clients whose writes fail are evicted.
func (h *Hub) Broadcast(compositionID string, msg *Message) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[compositionID]))
	for c := range h.clients[compositionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.send(msg); err != nil {
			h.log.Warn("broadcast write failed, evicting client",
				"composition_id", compositionID, "error", err)
			h.unregister(client)
		}
	}
}

// Subscribers reports the current client count for a composition.
func (h *Hub) Subscribers(compositionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[compositionID])
}
