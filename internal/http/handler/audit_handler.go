package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"github.com/itqan-erp/procurement-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles HTTP requests for the audit trail
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler instance
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit log entries
// @Description Get paginated audit log entries, newest first. Admin only.
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param userId query string false "Filter by user" format(uuid)
// @Param action query string false "Filter by action"
// @Param category query string false "Filter by category" Enums(AUTH, PROCUREMENT, PROJECTS, SYSTEM)
// @Param from query string false "Start of time range (RFC3339)"
// @Param to query string false "End of time range (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AuditLogDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filter := &repository.AuditLogFilter{
		Action: r.URL.Query().Get("action"),
	}

	if u := r.URL.Query().Get("userId"); u != "" {
		id, err := uuid.Parse(u)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid user ID format",
			})
			return
		}
		filter.UserID = &id
	}

	if c := r.URL.Query().Get("category"); c != "" {
		category := domain.AuditCategory(c)
		filter.Category = &category
	}

	if f := r.URL.Query().Get("from"); f != "" {
		t, err := time.Parse(time.RFC3339, f)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid from timestamp, expected RFC3339",
			})
			return
		}
		filter.StartTime = &t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid to timestamp, expected RFC3339",
			})
			return
		}
		filter.EndTime = &t
	}

	logs, total, err := h.auditService.List(r.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list audit logs", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list audit logs",
		})
		return
	}

	respondJSON(w, http.StatusOK, paginated(logs, total, page, pageSize))
}

// ListByUser godoc
// @Summary List audit log entries for one user
// @Description Get paginated audit log entries recorded for a single user, newest first. Admin only.
// @Tags Audit
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AuditLogDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/audit [get]
func (h *AuditHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid user ID format",
		})
		return
	}

	page, pageSize := parsePagination(r)
	logs, total, err := h.auditService.ListByUser(r.Context(), id, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list audit logs for user", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list audit logs",
		})
		return
	}

	respondJSON(w, http.StatusOK, paginated(logs, total, page, pageSize))
}
