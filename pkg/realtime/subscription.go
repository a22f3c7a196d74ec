package realtime

import (
	"context"
	"errors"

	"github.com/coder/websocket/wsjson"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonFast = jsoniter.ConfigFastest

type controlMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

type envelope struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

// resubscribeAll re-joins all previously subscribed topics
func (client *Client) resubscribeAll() {
	client.mu.Lock()
	subs := append([]string(nil), client.subscriptions...)
	client.mu.Unlock()

	for _, topic := range subs {
		_ = client.sendControl("subscribe", topic)
	}
}

// Subscribe joins a topic; the default topic is "telemetry".
func (client *Client) Subscribe(topic string) error {
	if !client.IsConnected() {
		return errors.New("client not connected")
	}
	if topic == "" {
		topic = "telemetry"
	}

	client.mu.Lock()
	client.subscriptions = append(client.subscriptions, topic)
	client.mu.Unlock()

	return client.sendControl("subscribe", topic)
}

// Unsubscribe leaves a topic.
func (client *Client) Unsubscribe(topic string) error {
	if !client.IsConnected() {
		return errors.New("client not connected")
	}

	client.mu.Lock()
	for i, t := range client.subscriptions {
		if t == topic {
			client.subscriptions = append(client.subscriptions[:i], client.subscriptions[i+1:]...)
			break
		}
	}
	client.mu.Unlock()

	return client.sendControl("unsubscribe", topic)
}

func (client *Client) sendControl(action, topic string) error {
	client.mu.Lock()
	conn := client.conn
	ctx := client.ctx
	client.mu.Unlock()

	if conn == nil || ctx == nil {
		return errors.New("client not connected")
	}
	return wsjson.Write(ctx, conn, controlMessage{Action: action, Topic: topic})
}

// listenForMessages reads envelopes and dispatches them to handlers
// until the connection dies, then starts the reconnect loop.
func (client *Client) listenForMessages() {
	client.mu.Lock()
	conn := client.conn
	ctx := client.ctx
	closed := client.closed
	client.mu.Unlock()

	if conn == nil || ctx == nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		default:
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			if client.isConnectionAlive(err) {
				client.logger.Warn("Read error, connection still alive", zap.Error(err))
				continue
			}

			client.mu.Lock()
			shuttingDown := client.shutdown
			client.mu.Unlock()
			if shuttingDown {
				return
			}

			client.logger.Warn("Connection lost, reconnecting", zap.Error(err))
			_ = client.Disconnect()
			client.mu.Lock()
			client.shutdown = false // reconnect, this was not a user-requested stop
			client.mu.Unlock()
			client.reconnect(context.Background())
			return
		}

		client.dispatch(data)
	}
}

func (client *Client) dispatch(data []byte) {
	var env envelope
	if err := jsonFast.Unmarshal(data, &env); err != nil {
		client.logger.Warn("Malformed envelope", zap.Error(err))
		return
	}

	switch env.Event {
	case "telemetry_update":
		if client.handlers.OnTelemetry == nil {
			return
		}
		var update TelemetryUpdate
		if err := jsonFast.Unmarshal(env.Data, &update); err != nil {
			client.logger.Warn("Malformed telemetry update", zap.Error(err))
			return
		}
		client.handlers.OnTelemetry(update)
	case "alert":
		if client.handlers.OnAlert == nil {
			return
		}
		var alert Alert
		if err := jsonFast.Unmarshal(env.Data, &alert); err != nil {
			client.logger.Warn("Malformed alert", zap.Error(err))
			return
		}
		client.handlers.OnAlert(alert)
	case "command_result":
		if client.handlers.OnCommandResult == nil {
			return
		}
		var result CommandResult
		if err := jsonFast.Unmarshal(env.Data, &result); err != nil {
			client.logger.Warn("Malformed command result", zap.Error(err))
			return
		}
		client.handlers.OnCommandResult(result)
	case "connection_status", "subscribed", "unsubscribed", "pong":
		// control acknowledgements, nothing to dispatch
	default:
		client.logger.Debug("Unknown event", zap.String("event", env.Event))
	}
}
