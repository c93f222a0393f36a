package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/policy"
	"github.com/itqan-erp/procurement-api/internal/service"
	"go.uber.org/zap"
)

// PurchaseOrderHandler handles HTTP requests for purchase orders and receipts
type PurchaseOrderHandler struct {
	procurementService *service.ProcurementService
	logger             *zap.Logger
}

// NewPurchaseOrderHandler creates a new purchase order handler instance
func NewPurchaseOrderHandler(procurementService *service.ProcurementService, logger *zap.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		procurementService: procurementService,
		logger:             logger,
	}
}

// List godoc
// @Summary List purchase orders
// @Tags PurchaseOrders
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param projectId query string false "Filter by project" format(uuid)
// @Param supplierId query string false "Filter by supplier" format(uuid)
// @Param status query string false "Filter by status" Enums(PENDING_APPROVAL, APPROVED, SENT_TO_SUPPLIER, PARTIALLY_RECEIVED, RECEIVED, CANCELLED)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PurchaseOrderDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /purchase-orders [get]
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	var projectID, supplierID *uuid.UUID
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
	if s := r.URL.Query().Get("supplierId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid supplier ID format",
			})
			return
		}
		supplierID = &id
	}

	var status *domain.POStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.POStatus(s)
		status = &st
	}

	orders, total, err := h.procurementService.ListPurchaseOrders(r.Context(), page, pageSize, projectID, supplierID, status)
	if err != nil {
		h.logger.Error("failed to list purchase orders", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list purchase orders",
		})
		return
	}

	respondJSON(w, http.StatusOK, paginated(orders, total, page, pageSize))
}

// GetByID godoc
// @Summary Get purchase order by ID
// @Description Get a purchase order including lines and receipts
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	order, err := h.procurementService.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Purchase order not found",
			})
			return
		}
		h.logger.Error("failed to get purchase order", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Create godoc
// @Summary Create purchase order
// @Description Create a purchase order directly, outside the RFQ flow
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param request body domain.CreatePurchaseOrderRequest true "Order data"
// @Success 201 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /purchase-orders [post]
func (h *PurchaseOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePurchaseOrderRequest
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

	order, err := h.procurementService.CreatePurchaseOrder(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create purchase order", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create purchase order",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/purchase-orders/"+order.ID.String())
	respondJSON(w, http.StatusCreated, order)
}

// Approve godoc
// @Summary Approve purchase order
// @Description Approve a pending purchase order. Subject to the caller's role and approval limit.
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Caller may not approve this amount"
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Order is not pending approval"
// @Security BearerAuth
// @Router /purchase-orders/{id}/approve [post]
func (h *PurchaseOrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	order, err := h.procurementService.ApprovePurchaseOrder(r.Context(), id)
	if err != nil {
		var forbidden *policy.ForbiddenError
		if errors.As(err, &forbidden) {
			respondJSON(w, http.StatusForbidden, domain.ErrorResponse{
				Error:   "Forbidden",
				Message: forbidden.Error(),
			})
			return
		}
		if errors.Is(err, service.ErrUnauthorized) {
			respondJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Authentication required",
			})
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Purchase order not found",
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
		h.logger.Error("failed to approve purchase order", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to approve purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Send godoc
// @Summary Send purchase order
// @Description Mark an approved purchase order as sent to the supplier
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Order is not approved"
// @Security BearerAuth
// @Router /purchase-orders/{id}/send [post]
func (h *PurchaseOrderHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	order, err := h.procurementService.SendPurchaseOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Purchase order not found",
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
		h.logger.Error("failed to send purchase order", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to send purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Cancel godoc
// @Summary Cancel purchase order
// @Description Cancel an order that has not received any goods yet
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Success 200 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Order can no longer be cancelled"
// @Security BearerAuth
// @Router /purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	order, err := h.procurementService.CancelPurchaseOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Purchase order not found",
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
		h.logger.Error("failed to cancel purchase order", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to cancel purchase order",
		})
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// RecordReceipt godoc
// @Summary Record goods receipt
// @Description Record a goods receipt against a purchase order. The receipt is all-or-nothing: any unknown item or over-receipt rejects the whole receipt.
// @Tags PurchaseOrders
// @Accept json
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Param request body domain.RecordReceiptRequest true "Receipt data"
// @Success 201 {object} domain.ReceiptDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Quantity exceeded or order not receivable"
// @Security BearerAuth
// @Router /purchase-orders/{id}/receipts [post]
func (h *PurchaseOrderHandler) RecordReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	var req domain.RecordReceiptRequest
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

	receipt, err := h.procurementService.RecordReceipt(r.Context(), id, &req)
	if err != nil {
		var exceeded *policy.QuantityExceededError
		if errors.As(err, &exceeded) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: exceeded.Error(),
			})
			return
		}
		var unknown *policy.UnknownItemError
		if errors.As(err, &unknown) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: unknown.Error(),
			})
			return
		}
		if errors.Is(err, service.ErrUnauthorized) {
			respondJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Authentication required",
			})
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Purchase order not found",
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
		h.logger.Error("failed to record receipt", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to record receipt",
		})
		return
	}

	respondJSON(w, http.StatusCreated, receipt)
}

// ListReceipts godoc
// @Summary List receipts for a purchase order
// @Tags PurchaseOrders
// @Produce json
// @Param id path string true "Purchase order ID" format(uuid)
// @Success 200 {array} domain.ReceiptDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /purchase-orders/{id}/receipts [get]
func (h *PurchaseOrderHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid purchase order ID format",
		})
		return
	}

	receipts, err := h.procurementService.ListReceipts(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list receipts", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list receipts",
		})
		return
	}

	respondJSON(w, http.StatusOK, receipts)
}
