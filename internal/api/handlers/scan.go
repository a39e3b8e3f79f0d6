package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"phishscan/internal/domain/models"
	"phishscan/internal/domain/services"
	"phishscan/internal/infrastructure/database/repository"
	"phishscan/pkg/logger"
)

// ScanHandler handles URL scan API requests
type ScanHandler struct {
	scans      *services.ScanService
	detections *repository.DetectionRepository
	scanLogs   *repository.ScanLogRepository
	logger     *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scans *services.ScanService, detections *repository.DetectionRepository, scanLogs *repository.ScanLogRepository, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		scans:      scans,
		detections: detections,
		scanLogs:   scanLogs,
		logger:     log.WithComponent("scan-handler"),
	}
}

// Scan handles POST /api/v1/scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.scans.Scan(r.Context(), req.URL, models.PlatformUserScan)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, services.ErrScoring):
			h.logger.Error().Err(err).Str("url", req.URL).Msg("scoring failed")
			respondError(w, http.StatusInternalServerError, "failed to score URL")
		case errors.Is(err, services.ErrPersistence):
			h.logger.Error().Err(err).Str("url", req.URL).Msg("failed to record scan")
			respondError(w, http.StatusInternalServerError, "failed to record scan")
		default:
			h.logger.Error().Err(err).Str("url", req.URL).Msg("scan failed")
			respondError(w, http.StatusInternalServerError, "failed to scan URL")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetScan handles GET /api/v1/scan/{detect_id}
func (h *ScanHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	detectID, err := uuid.Parse(chi.URLParam(r, "detect_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid detect_id")
		return
	}

	if h.detections == nil || h.scanLogs == nil {
		respondError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	detection, err := h.detections.GetByID(r.Context(), detectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "scan not found")
			return
		}
		h.logger.Error().Err(err).Str("detect_id", detectID.String()).Msg("failed to load detection")
		respondError(w, http.StatusInternalServerError, "failed to load scan")
		return
	}

	scanLog, err := h.scanLogs.GetByDetectID(r.Context(), detectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "scan not found")
			return
		}
		h.logger.Error().Err(err).Str("detect_id", detectID.String()).Msg("failed to load scan log")
		respondError(w, http.StatusInternalServerError, "failed to load scan")
		return
	}

	respondJSON(w, http.StatusOK, models.ScanRecord{
		Detection: *detection,
		Log:       *scanLog,
	})
}
