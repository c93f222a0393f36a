package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/service"
	"go.uber.org/zap"
)

// MaterialRequestHandler handles HTTP requests for material requests
type MaterialRequestHandler struct {
	procurementService *service.ProcurementService
	logger             *zap.Logger
}

// NewMaterialRequestHandler creates a new material request handler instance
func NewMaterialRequestHandler(procurementService *service.ProcurementService, logger *zap.Logger) *MaterialRequestHandler {
	return &MaterialRequestHandler{
		procurementService: procurementService,
		logger:             logger,
	}
}

// List godoc
// @Summary List material requests
// @Tags MaterialRequests
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param projectId query string false "Filter by project" format(uuid)
// @Param status query string false "Filter by status" Enums(DRAFT, PENDING_TECHNICAL, APPROVED_TECHNICAL, IN_PROCUREMENT, COMPLETED, REJECTED)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.MaterialRequestDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /material-requests [get]
func (h *MaterialRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	var projectID *uuid.UUID
	if p := r.URL.Query().Get("projectId"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid project ID format",
			})
			return
		}
		projectID = &id
	}

	var status *domain.RequestStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.RequestStatus(s)
		status = &st
	}

	requests, total, err := h.procurementService.ListMaterialRequests(r.Context(), page, pageSize, projectID, status)
	if err != nil {
		h.logger.Error("failed to list material requests", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list material requests",
		})
		return
	}

	respondJSON(w, http.StatusOK, paginated(requests, total, page, pageSize))
}

// GetByID godoc
// @Summary Get material request by ID
// @Tags MaterialRequests
// @Produce json
// @Param id path string true "Material request ID" format(uuid)
// @Success 200 {object} domain.MaterialRequestDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /material-requests/{id} [get]
func (h *MaterialRequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid material request ID format",
		})
		return
	}

	request, err := h.procurementService.GetMaterialRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Material request not found",
			})
			return
		}
		h.logger.Error("failed to get material request", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get material request",
		})
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// Create godoc
// @Summary Create material request
// @Description Submit a material request for technical review
// @Tags MaterialRequests
// @Accept json
// @Produce json
// @Param request body domain.CreateMaterialRequestRequest true "Request data"
// @Success 201 {object} domain.MaterialRequestDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /material-requests [post]
func (h *MaterialRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMaterialRequestRequest
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

	request, err := h.procurementService.CreateMaterialRequest(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			respondJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Authentication required",
			})
			return
		}
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create material request", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create material request",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/material-requests/"+request.ID.String())
	respondJSON(w, http.StatusCreated, request)
}

// Review godoc
// @Summary Review material request
// @Description Approve or reject a material request pending technical review
// @Tags MaterialRequests
// @Accept json
// @Produce json
// @Param id path string true "Material request ID" format(uuid)
// @Param request body domain.ReviewMaterialRequestRequest true "Review decision"
// @Success 200 {object} domain.MaterialRequestDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Request is not pending review"
// @Security BearerAuth
// @Router /material-requests/{id}/review [post]
func (h *MaterialRequestHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid material request ID format",
		})
		return
	}

	var req domain.ReviewMaterialRequestRequest
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

	request, err := h.procurementService.ReviewMaterialRequest(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Material request not found",
			})
			return
		}
		if errors.Is(err, service.ErrInvalidState) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to review material request", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to review material request",
		})
		return
	}

	respondJSON(w, http.StatusOK, request)
}
