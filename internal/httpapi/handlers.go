package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/urlmon/urlmon/internal/domain"
	"github.com/urlmon/urlmon/internal/monitor"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	sys, err := s.Monitor.SystemStatus()
	if err != nil {
		s.Logger.Error("system_status_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not compute status")
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

func (s *Server) handleTargetStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap, err := s.Monitor.TargetStatus(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "URL not found")
			return
		}
		s.Logger.Error("target_status_failed", zap.String("target", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not compute status")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTargetHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	th, err := s.Monitor.TargetHistory(name, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "URL not found")
			return
		}
		s.Logger.Error("target_history_failed", zap.String("target", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func (s *Server) handleMonitoringStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"running": s.Monitor.Running()})
}

func (s *Server) handleMonitoringStart(w http.ResponseWriter, r *http.Request) {
	if err := s.Monitor.Start(); err != nil {
		if errors.Is(err, monitor.ErrAlreadyRunning) {
			writeError(w, http.StatusBadRequest, "Monitoring is already running")
			return
		}
		s.Logger.Error("monitoring_start_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not start monitoring")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleMonitoringStop(w http.ResponseWriter, r *http.Request) {
	if err := s.Monitor.Stop(); err != nil {
		if errors.Is(err, monitor.ErrNotRunning) {
			writeError(w, http.StatusBadRequest, "Monitoring is not running")
			return
		}
		s.Logger.Error("monitoring_stop_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not stop monitoring")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	// Build the export first; a failed export must stay a clean 404.
	var buf bytes.Buffer
	if err := s.Monitor.ExportCSV(&buf, name); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "URL not found")
		case errors.Is(err, monitor.ErrNoData):
			writeError(w, http.StatusNotFound, "No monitoring data available")
		default:
			s.Logger.Error("csv_export_failed", zap.String("target", name), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not export history")
		}
		return
	}

	filename := "all-history.csv"
	if name != "" {
		filename = name + "-history.csv"
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
