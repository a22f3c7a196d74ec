package api

import (
	"net/http"
	"strconv"

	"robot-telemetry/internal/config"
	"robot-telemetry/internal/db"
)

func (h *Handler) foxgloveInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bridge.Info())
}

func (h *Handler) foxgloveChannels(w http.ResponseWriter, r *http.Request) {
	channels := h.bridge.Channels()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(channels),
		"channels": channels,
	})
}

func (h *Handler) foxgloveTelemetry(w http.ResponseWriter, r *http.Request) {
	latest, err := db.LatestTelemetry(r.Context(), h.mgr.Pool(), h.svc.RobotID())
	if err != nil {
		h.logger.Errorw("foxglove telemetry query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sample := h.svc.Generate()
	if latest != nil {
		sample = *latest
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": h.bridge.Convert(sample),
	})
}

func (h *Handler) foxgloveStream(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	history, err := db.QueryTelemetryHistory(r.Context(), h.mgr.Pool(), db.HistoryFilter{
		RobotID: h.svc.RobotID(),
		Limit:   limit,
	})
	if err != nil {
		h.logger.Errorw("foxglove stream query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.bridge.Export(history, config.DefaultTelemetryInterval))
}
