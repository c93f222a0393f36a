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

// InvoiceHandler handles HTTP requests for supplier invoices
type InvoiceHandler struct {
	procurementService *service.ProcurementService
	logger             *zap.Logger
}

// NewInvoiceHandler creates a new invoice handler instance
func NewInvoiceHandler(procurementService *service.ProcurementService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		procurementService: procurementService,
		logger:             logger,
	}
}

// List godoc
// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param orderId query string false "Filter by purchase order" format(uuid)
// @Param status query string false "Filter by status" Enums(PENDING_MATCH, MATCHED, MISMATCH)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.InvoiceDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	var orderID *uuid.UUID
	if o := r.URL.Query().Get("orderId"); o != "" {
		id, err := uuid.Parse(o)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid purchase order ID format",
			})
			return
		}
		orderID = &id
	}

	var status *domain.InvoiceStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.InvoiceStatus(s)
		status = &st
	}

	invoices, total, err := h.procurementService.ListInvoices(r.Context(), page, pageSize, orderID, status)
	if err != nil {
		h.logger.Error("failed to list invoices", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list invoices",
		})
		return
	}

	respondJSON(w, http.StatusOK, paginated(invoices, total, page, pageSize))
}

// GetByID godoc
// @Summary Get invoice by ID
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID" format(uuid)
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid invoice ID format",
		})
		return
	}

	invoice, err := h.procurementService.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Invoice not found",
			})
			return
		}
		h.logger.Error("failed to get invoice", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get invoice",
		})
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// Post godoc
// @Summary Post invoice
// @Description Post a supplier invoice against a purchase order. Runs the three-way match immediately.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body domain.PostInvoiceRequest true "Invoice data"
// @Success 201 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req domain.PostInvoiceRequest
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

	invoice, err := h.procurementService.PostInvoice(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Purchase order not found",
			})
			return
		}
		h.logger.Error("failed to post invoice", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to post invoice",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/invoices/"+invoice.ID.String())
	respondJSON(w, http.StatusCreated, invoice)
}

// Rematch godoc
// @Summary Rematch invoice
// @Description Re-run the three-way match for an invoice against the current received quantities
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID" format(uuid)
// @Success 200 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id}/rematch [post]
func (h *InvoiceHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid invoice ID format",
		})
		return
	}

	invoice, err := h.procurementService.RematchInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Invoice not found",
			})
			return
		}
		h.logger.Error("failed to rematch invoice", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to rematch invoice",
		})
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}
