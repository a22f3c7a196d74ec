package realtime

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // adjust for prod
	},
}

var nextClientID atomic.Uint64

// ServeWS upgrades an HTTP request to a subscriber connection.
//
// Test connection usage:
//
//	wscat -c "ws://localhost:8080/ws?token={jwt_token}"
//	{"action":"subscribe","topic":"telemetry"}
//
// An empty jwtSecret disables authentication for local use.
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	clientName := ""

	if jwtSecret != "" {
		token := r.URL.Query().Get("token")
		if token == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := VerifyToken(jwtSecret, token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		clientName = claimString(claims, "sub")
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warnw("upgrade error", "error", err)
		return
	}

	id := fmt.Sprintf("client-%d", nextClientID.Add(1))
	if clientName != "" {
		id = clientName + "/" + id
	}

	client := NewClient(conn, hub, id)
	hub.Register(client)
	hub.logger.Infow("client connected", "client", id, "total", hub.ClientCount())

	client.sendEnvelope(Envelope{Event: EventConnectionStatus, Data: map[string]string{
		"status":    "connected",
		"client_id": id,
		"message":   "Connected to Robot Telemetry WebSocket",
	}})

	go client.WritePump()
	client.ReadPump()
}
