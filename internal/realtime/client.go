package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Client is one live subscriber connection. The hub treats it as an
// opaque handle; the pumps below move bytes to and from the socket.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub

	send       chan []byte
	closed     chan struct{}
	closeOnce  sync.Once
	dropStreak atomic.Int32
}

// controlMessage is what subscribers send us: subscribe/unsubscribe to a
// topic, or a keep-alive ping.
type controlMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

func NewClient(conn *websocket.Conn, hub *Hub, id string) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

// ID returns the opaque connection identifier.
func (c *Client) ID() string { return c.id }

// enqueue offers a frame to the write pump without blocking. It reports
// false when the buffer is full or the client is closed.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close releases the write pump and the underlying connection. Safe to
// call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// sendEnvelope marshals and enqueues a control reply for this client only.
func (c *Client) sendEnvelope(env Envelope) {
	msg, err := jsonFast.Marshal(env)
	if err != nil {
		c.hub.logger.Errorw("failed to marshal envelope", "event", env.Event, "error", err)
		return
	}
	c.enqueue(msg)
}

// ReadPump consumes control frames until the connection dies, then
// detaches the client from the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.logger.Infow("client disconnected", "client", c.id)
		c.hub.Disconnect(c)
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warnw("read error", "client", c.id, "error", err)
			}
			return
		}

		var req controlMessage
		if err := jsonFast.Unmarshal(msg, &req); err != nil {
			c.hub.logger.Warnw("malformed control message", "client", c.id, "error", err)
			continue
		}

		topic := req.Topic
		if topic == "" {
			topic = TopicTelemetry
		}

		switch req.Action {
		case "subscribe":
			c.hub.Subscribe(c, topic)
			c.hub.logger.Infow("client subscribed", "client", c.id, "topic", topic)
			c.sendEnvelope(Envelope{Event: EventSubscribed, Data: map[string]string{
				"topic":   topic,
				"message": "Subscribed to " + topic + " updates",
			}})
		case "unsubscribe":
			c.hub.Unsubscribe(c, topic)
			c.hub.logger.Infow("client unsubscribed", "client", c.id, "topic", topic)
			c.sendEnvelope(Envelope{Event: EventUnsubscribed, Data: map[string]string{
				"topic":   topic,
				"message": "Unsubscribed from " + topic,
			}})
		case "ping":
			c.sendEnvelope(Envelope{Event: EventPong, Data: map[string]string{"message": "pong"}})
		default:
			c.hub.logger.Warnw("unknown action", "client", c.id, "action", req.Action)
		}
	}
}

// WritePump drains the send buffer onto the socket until the client is
// closed or a write fails.
func (c *Client) WritePump() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.logger.Warnw("write error", "client", c.id, "error", err)
				c.hub.Disconnect(c)
				return
			}
		case <-c.closed:
			return
		}
	}
}
