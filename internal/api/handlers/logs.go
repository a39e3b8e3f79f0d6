package handlers

import (
	"net/http"
	"strconv"

	"phishscan/internal/infrastructure/database/repository"
	"phishscan/pkg/logger"
)

const defaultLogLimit = 50

// LogsHandler serves the scan audit trail
type LogsHandler struct {
	scanLogs *repository.ScanLogRepository
	logger   *logger.Logger
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(scanLogs *repository.ScanLogRepository, log *logger.Logger) *LogsHandler {
	return &LogsHandler{
		scanLogs: scanLogs,
		logger:   log.WithComponent("logs-handler"),
	}
}

// List handles GET /api/v1/logs
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if h.scanLogs == nil {
		respondError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	logs, err := h.scanLogs.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list scan logs")
		respondError(w, http.StatusInternalServerError, "failed to list scan logs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(logs),
		"logs":  logs,
	})
}
