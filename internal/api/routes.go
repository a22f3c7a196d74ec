package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"robot-telemetry/internal/db"
	"robot-telemetry/internal/foxglove"
	"robot-telemetry/internal/service"

	"go.uber.org/zap"
)

// Handler serves the CRUD glue around the telemetry core: history
// queries, command submission, and the Foxglove adapter routes.
type Handler struct {
	svc    *service.TelemetryService
	mgr    *db.DBManager
	bridge *foxglove.Bridge
	logger *zap.SugaredLogger
}

func NewHandler(svc *service.TelemetryService, mgr *db.DBManager, bridge *foxglove.Bridge, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, mgr: mgr, bridge: bridge, logger: logger}
}

// Register mounts all REST routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/telemetry/latest", h.latestTelemetry)
	mux.HandleFunc("/api/telemetry/history", h.telemetryHistory)
	mux.HandleFunc("/api/robot/command", h.executeCommand)
	mux.HandleFunc("/api/robot/status", h.robotStatus)
	mux.HandleFunc("/api/commands/history", h.commandHistory)

	mux.HandleFunc("/api/foxglove/info", h.foxgloveInfo)
	mux.HandleFunc("/api/foxglove/channels", h.foxgloveChannels)
	mux.HandleFunc("/api/foxglove/telemetry", h.foxgloveTelemetry)
	mux.HandleFunc("/api/foxglove/stream", h.foxgloveStream)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) latestTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	latest, err := db.LatestTelemetry(r.Context(), h.mgr.Pool(), h.svc.RobotID())
	if err != nil {
		h.logger.Errorw("latest telemetry query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if latest == nil {
		// no persisted data yet, serve a freshly generated sample
		sample := h.svc.Generate()
		writeJSON(w, http.StatusOK, sample)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (h *Handler) telemetryHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter := db.HistoryFilter{RobotID: h.svc.RobotID(), Limit: 50}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format: "+err.Error())
			return
		}
		filter.Start = t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format: "+err.Error())
			return
		}
		filter.End = t
	}

	data, err := db.QueryTelemetryHistory(r.Context(), h.mgr.Pool(), filter)
	if err != nil {
		h.logger.Errorw("telemetry history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(data),
		"data":  data,
	})
}

type commandRequest struct {
	Command string `json:"command"`
}

func (h *Handler) executeCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusBadRequest, "missing required field: command")
		return
	}

	res := h.svc.SubmitCommand(r.Context(), req.Command)
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) robotStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state := h.svc.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     state.Mode,
		"is_running": state.Running,
	})
}

func (h *Handler) commandHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	data, err := db.QueryCommandHistory(r.Context(), h.mgr.Pool(), h.svc.RobotID(), limit)
	if err != nil {
		h.logger.Errorw("command history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(data),
		"data":  data,
	})
}
