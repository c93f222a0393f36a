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

// ItemHandler handles HTTP requests for the item catalog
type ItemHandler struct {
	itemService *service.ItemService
	logger      *zap.Logger
}

// NewItemHandler creates a new item handler instance
func NewItemHandler(itemService *service.ItemService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// List godoc
// @Summary List items
// @Description Get paginated list of catalog items
// @Tags Items
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by name or SKU"
// @Param category query string false "Filter by category"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ItemDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /items [get]
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	items, total, err := h.itemService.List(r.Context(), page, pageSize,
		r.URL.Query().Get("search"), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("failed to list items", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list items",
		})
		return
	}

	respondJSON(w, http.StatusOK, paginated(items, total, page, pageSize))
}

// GetByID godoc
// @Summary Get item by ID
// @Tags Items
// @Produce json
// @Param id path string true "Item ID" format(uuid)
// @Success 200 {object} domain.ItemDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /items/{id} [get]
func (h *ItemHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid item ID format",
		})
		return
	}

	item, err := h.itemService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Item not found",
			})
			return
		}
		h.logger.Error("failed to get item", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get item",
		})
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// Create godoc
// @Summary Create item
// @Tags Items
// @Accept json
// @Produce json
// @Param request body domain.CreateItemRequest true "Item data"
// @Success 201 {object} domain.ItemDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Duplicate SKU"
// @Security BearerAuth
// @Router /items [post]
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateItemRequest
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

	item, err := h.itemService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "An item with this SKU already exists",
			})
			return
		}
		h.logger.Error("failed to create item", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create item",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/items/"+item.ID.String())
	respondJSON(w, http.StatusCreated, item)
}

// Update godoc
// @Summary Update item
// @Tags Items
// @Accept json
// @Produce json
// @Param id path string true "Item ID" format(uuid)
// @Param request body domain.UpdateItemRequest true "Item data"
// @Success 200 {object} domain.ItemDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /items/{id} [put]
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid item ID format",
		})
		return
	}

	var req domain.UpdateItemRequest
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

	item, err := h.itemService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Item not found",
			})
			return
		}
		h.logger.Error("failed to update item", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update item",
		})
		return
	}

	respondJSON(w, http.StatusOK, item)
}
