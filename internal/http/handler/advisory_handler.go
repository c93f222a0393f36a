package handler

import (
	"encoding/json"
	"net/http"

	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/service"
	"go.uber.org/zap"
)

// AdvisoryHandler handles AI-assisted analysis requests
type AdvisoryHandler struct {
	advisoryService *service.AdvisoryService
	logger          *zap.Logger
}

// NewAdvisoryHandler creates a new advisory handler instance
func NewAdvisoryHandler(advisoryService *service.AdvisoryService, logger *zap.Logger) *AdvisoryHandler {
	return &AdvisoryHandler{
		advisoryService: advisoryService,
		logger:          logger,
	}
}

// Analyze godoc
// @Summary Analyze procurement data
// @Description Produce an executive summary of the supplied procurement data. Falls back to a static message when the AI provider is not configured.
// @Tags Advisory
// @Accept json
// @Produce json
// @Param request body domain.AdvisoryRequest true "Analysis context"
// @Success 200 {object} domain.AdvisoryResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /ai/analyze [post]
func (h *AdvisoryHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req domain.AdvisoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp := h.advisoryService.Analyze(r.Context(), &req)
	respondJSON(w, http.StatusOK, resp)
}
