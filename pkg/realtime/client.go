// Package realtime is a Go client for the robot telemetry WebSocket
// stream. It maintains the connection, resubscribes after reconnects,
// and dispatches incoming events to registered handlers.
package realtime

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// connectionState represents the WebSocket connection status
type connectionState int

const (
	stateDisconnected connectionState = iota
	stateConnecting
	stateConnected
	stateReconnecting
)

// TelemetryUpdate mirrors the server's telemetry broadcast shape.
type TelemetryUpdate struct {
	Temperature float64   `json:"temperature"`
	Battery     int       `json:"battery"`
	MotorRPM    int       `json:"motor_rpm"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// Alert mirrors the server's alert broadcast shape.
type Alert struct {
	Type      string  `json:"type"`
	Category  string  `json:"category"`
	Message   string  `json:"message"`
	Threshold float64 `json:"threshold,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// CommandResult mirrors the server's command result broadcast shape.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Command string `json:"command,omitempty"`
}

// Handlers receive pushed events. Nil handlers are skipped.
type Handlers struct {
	OnTelemetry     func(TelemetryUpdate)
	OnAlert         func(Alert)
	OnCommandResult func(CommandResult)
}

// Client is the telemetry stream WebSocket client
type Client struct {
	Url string // WebSocket URL, token included when auth is enabled

	mu       sync.Mutex
	conn     *websocket.Conn
	closed   chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	state    connectionState
	shutdown bool

	subscriptions []string
	handlers      Handlers

	logger            *zap.Logger
	reconnectMu       sync.Mutex
	dialTimeout       time.Duration
	reconnectInterval time.Duration
	heartbeatInterval time.Duration
	heartbeatCancel   context.CancelFunc
}

// NewClient initializes a client for the given ws:// or wss:// URL.
func NewClient(url string, handlers Handlers, logger *zap.Logger) *Client {
	return &Client{
		Url:               url,
		handlers:          handlers,
		logger:            logger,
		dialTimeout:       10 * time.Second,
		heartbeatInterval: 20 * time.Second,
		reconnectInterval: 500 * time.Millisecond,
		state:             stateDisconnected,
	}
}

// Connect establishes a WebSocket connection
func (client *Client) Connect() error {
	client.mu.Lock()
	if client.ctx != nil && client.state == stateConnected && client.conn != nil {
		client.mu.Unlock()
		return nil
	}

	client.ctx, client.cancel = context.WithCancel(context.Background())
	client.closed = make(chan struct{})
	client.state = stateConnecting
	client.mu.Unlock()

	if err := client.dialServer(); err != nil {
		return err
	}

	client.startHeartbeats()
	go client.listenForMessages()

	client.mu.Lock()
	client.state = stateConnected
	client.mu.Unlock()

	return nil
}

// Disconnect gracefully closes the WebSocket connection
func (client *Client) Disconnect() error {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.shutdown = true // mark client as intentionally shutting down

	if client.heartbeatCancel != nil {
		client.heartbeatCancel()
		client.heartbeatCancel = nil
	}

	if client.cancel != nil {
		client.cancel()
		client.cancel = nil
		client.ctx = nil
	}

	if client.conn != nil {
		_ = client.conn.Close(websocket.StatusNormalClosure, "client disconnect")
		client.conn = nil
	}

	if client.closed != nil {
		close(client.closed)
		client.closed = nil
	}

	client.state = stateDisconnected
	return nil
}

// IsConnected checks if the client is connected
func (client *Client) IsConnected() bool {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.state == stateConnected && client.conn != nil && client.closed != nil
}

// dialServer connects to the WebSocket server
func (client *Client) dialServer() error {
	client.mu.Lock()
	defer client.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), client.dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, client.Url, nil)
	if err != nil {
		client.logger.Error("Dial failed", zap.Error(err))
		return err
	}

	client.conn = conn
	return nil
}

// reconnect attempts to reconnect until it succeeds or the client shuts down
func (client *Client) reconnect(ctx context.Context) {
	client.reconnectMu.Lock()
	defer client.reconnectMu.Unlock()

	client.mu.Lock()
	if client.shutdown {
		client.mu.Unlock()
		client.logger.Info("Reconnect skipped: client is shutting down")
		return
	}
	client.state = stateReconnecting
	client.mu.Unlock()

	client.logger.Warn("Starting reconnect loop...")

	retryTicker := time.NewTicker(client.reconnectInterval)
	defer retryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			client.logger.Warn("Reconnect context done, giving up")
			return
		case <-retryTicker.C:
			client.mu.Lock()
			if client.shutdown {
				client.mu.Unlock()
				client.logger.Info("Reconnect stopped: client is shutting down")
				return
			}
			client.mu.Unlock()

			if err := client.Connect(); err == nil {
				client.logger.Info("Reconnected successfully")
				client.resubscribeAll()
				return
			} else {
				client.logger.Warn("Reconnect failed", zap.Error(err))
			}
		}
	}
}

// isConnectionAlive determines if a read error means a dead connection
func (client *Client) isConnectionAlive(err error) bool {
	return !(errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, new(net.Error)) ||
		errors.As(err, new(websocket.CloseError)))
}
