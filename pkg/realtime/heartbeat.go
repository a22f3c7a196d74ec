package realtime

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// startHeartbeats launches a heartbeat goroutine
func (client *Client) startHeartbeats() {
	client.mu.Lock()
	if client.heartbeatCancel != nil {
		client.heartbeatCancel()
	}

	ctx := client.ctx
	if ctx == nil {
		client.mu.Unlock()
		return
	}

	hbCtx, cancel := context.WithCancel(ctx)
	client.heartbeatCancel = cancel
	client.mu.Unlock()

	go client.heartbeatLoop(hbCtx)
}

// heartbeatLoop periodically sends ping frames so the server and any
// intermediaries keep the connection open.
func (client *Client) heartbeatLoop(ctx context.Context) {
	retryInterval := client.heartbeatInterval

	for {
		if ctx.Err() != nil {
			return
		}

		if err := client.sendHeartbeat(ctx); err != nil {
			client.logger.Error("Heartbeat failed", zap.Error(err))
			_ = client.Disconnect()
			time.Sleep(retryInterval)
			client.mu.Lock()
			client.shutdown = false
			client.mu.Unlock()
			client.reconnect(context.Background())

			retryInterval = time.Duration(math.Min(float64(retryInterval*2), float64(30*time.Second)))
			continue
		}

		retryInterval = client.heartbeatInterval

		select {
		case <-ctx.Done():
			return
		case <-time.After(client.heartbeatInterval):
		}
	}
}

func (client *Client) sendHeartbeat(ctx context.Context) error {
	client.mu.Lock()
	conn := client.conn
	client.mu.Unlock()

	if conn == nil {
		return errors.New("no connection")
	}
	return wsjson.Write(ctx, conn, controlMessage{Action: "ping"})
}
