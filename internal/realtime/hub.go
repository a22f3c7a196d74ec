package realtime

import (
	"sync"

	"robot-telemetry/internal/model"
	"robot-telemetry/internal/observability"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// TopicTelemetry is the default topic; every connection is implicitly
// subscribed to it, so telemetry reaches all connected clients exactly
// once whether or not they joined the room explicitly.
const TopicTelemetry = "telemetry"

// maxDropStreak is how many consecutive full-buffer drops a client may
// accumulate before the hub disconnects it.
const maxDropStreak = 16

var jsonFast = jsoniter.ConfigFastest

// Envelope is the wire frame for every message pushed to subscribers.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Wire event names.
const (
	EventTelemetry        = "telemetry_update"
	EventAlert            = "alert"
	EventCommandResult    = "command_result"
	EventConnectionStatus = "connection_status"
	EventSubscribed       = "subscribed"
	EventUnsubscribed     = "unsubscribed"
	EventPong             = "pong"
)

// Hub owns the live subscriber registry and decides who gets what.
// Writing bytes to a connection is the client pump's job; a slow or
// failed subscriber never blocks delivery to the others.
type Hub struct {
	mu sync.RWMutex

	// all live connections; implicit telemetry/alert audience
	clients map[*Client]bool

	// room mapping: topic -> clients
	rooms map[string]map[*Client]bool

	// reverse mapping: client -> joined topics
	clientSubs map[*Client]map[string]bool

	logger *zap.SugaredLogger
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		clientSubs: make(map[*Client]map[string]bool),
		logger:     logger,
	}
}

// Register adds a new connection to the global set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true
	if h.clientSubs[c] == nil {
		h.clientSubs[c] = make(map[string]bool)
	}
	observability.ConnectedClients.Set(float64(len(h.clients)))
}

// Subscribe joins a client to a topic. Idempotent.
func (h *Hub) Subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[topic] == nil {
		h.rooms[topic] = make(map[*Client]bool)
	}
	h.rooms[topic][c] = true

	if h.clientSubs[c] == nil {
		h.clientSubs[c] = make(map[string]bool)
	}
	h.clientSubs[c][topic] = true
}

// Unsubscribe removes a client from a topic. No-op if not subscribed.
func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room := h.rooms[topic]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, topic)
		}
	}
	if subs := h.clientSubs[c]; subs != nil {
		delete(subs, topic)
	}
}

// Disconnect removes the client from every topic and the global set
// atomically, then releases its pumps.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	for topic := range h.clientSubs[c] {
		delete(h.rooms[topic], c)
		if len(h.rooms[topic]) == 0 {
			delete(h.rooms, topic)
		}
	}
	delete(h.clientSubs, c)
	delete(h.clients, c)
	observability.ConnectedClients.Set(float64(len(h.clients)))
	h.mu.Unlock()

	c.close()
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishTelemetry delivers a sample to every live connection. Clients
// joined to the telemetry room are part of that set already; the union
// is deduplicated so nobody receives the sample twice.
func (h *Hub) PublishTelemetry(sample model.TelemetrySample) {
	h.broadcast(Envelope{Event: EventTelemetry, Data: sample})
}

// PublishAlert delivers an alert to all connections; alerts are not
// topic-scoped.
func (h *Hub) PublishAlert(event model.AlertEvent) {
	h.broadcast(Envelope{Event: EventAlert, Data: event})
}

// PublishCommandResult delivers a command outcome to all connections.
func (h *Hub) PublishCommandResult(result model.CommandResult) {
	h.broadcast(Envelope{Event: EventCommandResult, Data: result})
}

// broadcast snapshots the audience under the read lock and delivers
// outside it, so slow deliveries never block subscribe/unsubscribe.
func (h *Hub) broadcast(env Envelope) {
	msg, err := jsonFast.Marshal(env)
	if err != nil {
		h.logger.Errorw("failed to marshal broadcast envelope", "event", env.Event, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, msg)
	}
}

// deliver hands one frame to one client, isolating failures. A client
// that keeps dropping frames gets disconnected.
func (h *Hub) deliver(c *Client, msg []byte) {
	if c.enqueue(msg) {
		c.dropStreak.Store(0)
		return
	}

	observability.BroadcastDropsTotal.Inc()
	if streak := c.dropStreak.Add(1); streak >= maxDropStreak {
		h.logger.Warnw("disconnecting slow subscriber", "client", c.id, "dropped", streak)
		h.Disconnect(c)
	}
}
