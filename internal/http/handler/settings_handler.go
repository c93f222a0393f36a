package handler

import (
	"encoding/json"
	"net/http"

	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/mapper"
	"github.com/itqan-erp/procurement-api/internal/service"
	"go.uber.org/zap"
)

// SettingsHandler handles HTTP requests for system settings
type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new settings handler instance
func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// Get godoc
// @Summary Get system settings
// @Tags Settings
// @Produce json
// @Success 200 {object} domain.SystemSettingsDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /settings [get]
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to get settings", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get settings",
		})
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToSystemSettingsDTO(settings))
}

// Update godoc
// @Summary Update system settings
// @Description Partially update system settings. Admin only.
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body domain.UpdateSystemSettingsRequest true "Settings data"
// @Success 200 {object} domain.SystemSettingsDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /settings [put]
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSystemSettingsRequest
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

	settings, err := h.settingsService.Update(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to update settings", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update settings",
		})
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToSystemSettingsDTO(settings))
}
