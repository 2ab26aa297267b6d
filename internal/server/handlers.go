package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gexview/internal/errors"
	"gexview/internal/logging"
	"gexview/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "ok",
		"ticker":    s.dash.Ticker(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if snap, ok := s.dash.Snapshot(); ok {
		body["seq"] = snap.Seq
		body["updated_at"] = snap.UpdatedAt.UTC().Format(time.RFC3339)
	} else {
		body["status"] = "waiting"
	}
	if s.hub != nil {
		body["stream"] = s.hub.Metrics()
		body["stream_running"] = s.hub.IsStarted()
	}
	if s.cfg.FeedStats != nil {
		body["feed"] = s.cfg.FeedStats()
	}
	if s.refreshes != nil {
		rs := s.refreshes.Status()
		body["refresh"] = rs
		if rs.Consecutive > 0 && body["status"] == "ok" {
			body["status"] = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// GET /api/snapshot
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.dash.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GET /api/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.dash.Summary()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/chart/{tab}
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	tab, ok := models.ParseTab(r.PathValue("tab"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown tab")
		return
	}
	state, ok := s.dash.State(tab)
	if !ok {
		writeError(w, http.StatusNotFound, "tab not shown")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// POST /api/chart/{tab}/show
func (s *Server) handleShowTab(w http.ResponseWriter, r *http.Request) {
	tab, ok := models.ParseTab(r.PathValue("tab"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown tab")
		return
	}
	if err := s.dash.ShowTab(tab); err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Str("tab", string(tab)).Msg("Show tab failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	state, _ := s.dash.State(tab)
	writeJSON(w, http.StatusOK, state)
}

// POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RefreshLimit)
	defer cancel()

	if err := s.dash.Refresh(ctx); err != nil {
		status := refreshStatus(err)
		logger := logging.FromContext(r.Context())
		logger.Warn().Err(err).Int("status", status).Msg("Requested refresh failed")
		writeError(w, status, err.Error())
		return
	}
	snap, _ := s.dash.Snapshot()
	writeJSON(w, http.StatusOK, snap)
}

func refreshStatus(err error) int {
	switch {
	case errors.Is(err, errors.ErrFeedUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errors.ErrInvalidPrice):
		return http.StatusUnprocessableEntity
	default:
		var fe *errors.FeedError
		if errors.As(err, &fe) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

// POST /api/recenter
func (s *Server) handleRecenter(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Recenter(); err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("Recenter failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type modeBody struct {
	Mode string `json:"mode"`
}

// GET /api/mode
func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modeBody{Mode: string(s.dash.Mode())})
}

// PUT /api/mode
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var body modeBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	mode, ok := models.ParseMode(body.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "mode must be 'net' or 'split'")
		return
	}
	if err := s.dash.SetMode(mode); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, modeBody{Mode: string(mode)})
}
