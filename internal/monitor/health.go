package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"robot-telemetry/internal/api"
	"robot-telemetry/internal/db"
	"robot-telemetry/internal/realtime"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status           string            `json:"status"`
	Message          string            `json:"message,omitempty"`
	WebsocketClients int               `json:"websocket_clients"`
	Details          map[string]string `json:"details,omitempty"`
}

// StartServer starts the HTTP server hosting health checks, metrics,
// the REST API, and the subscriber WebSocket endpoint.
func StartServer(dbMgr *db.DBManager, hub *realtime.Hub, apiHandler *api.Handler, jwtSecret string, logger *zap.SugaredLogger, addr string) {
	mux := http.NewServeMux()

	// --- Liveness ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(HealthResponse{
			Status:           "healthy",
			Message:          "Service is running",
			WebsocketClients: hub.ClientCount(),
		})
	})

	// --- Readiness ---
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")

		healthDetails := make(map[string]string)
		var errors []string

		if err := dbMgr.Ping(ctx); err != nil {
			healthDetails["database"] = "unhealthy"
			errors = append(errors, fmt.Sprintf("DBManager unhealthy: %v", err))
		} else {
			healthDetails["database"] = "healthy"
		}

		statusCode := http.StatusOK
		statusMsg := "ready"
		if len(errors) > 0 {
			statusCode = http.StatusServiceUnavailable
			statusMsg = fmt.Sprintf("%d component(s) failing", len(errors))
		}

		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(HealthResponse{
			Status:           statusMsg,
			WebsocketClients: hub.ClientCount(),
			Details:          healthDetails,
		})
	})

	// --- WebSocket endpoint ---
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		realtime.ServeWS(hub, jwtSecret, w, r)
	})

	// --- Prometheus metrics ---
	mux.Handle("/metrics", promhttp.Handler())

	// --- REST API ---
	apiHandler.Register(mux)

	logger.Infof("starting HTTP server on %s", addr)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Errorw("HTTP server stopped", "error", err)
		}
	}()
}
