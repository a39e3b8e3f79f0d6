package handlers

import (
	"encoding/json"
	"net/http"

	"phishscan/internal/domain/models"
	"phishscan/internal/domain/services"
	"phishscan/pkg/logger"
)

// SMSHandler handles SMS scan API requests
type SMSHandler struct {
	analyzer *services.SMSAnalyzer
	logger   *logger.Logger
}

// NewSMSHandler creates a new SMS handler
func NewSMSHandler(analyzer *services.SMSAnalyzer, log *logger.Logger) *SMSHandler {
	return &SMSHandler{
		analyzer: analyzer,
		logger:   log.WithComponent("sms-handler"),
	}
}

// Scan handles POST /api/v1/scan/sms
func (h *SMSHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.SMSScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result := h.analyzer.Analyze(r.Context(), &req)
	respondJSON(w, http.StatusOK, result)
}
