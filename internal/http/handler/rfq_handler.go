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

// RFQHandler handles HTTP requests for RFQs and quotations
type RFQHandler struct {
	procurementService *service.ProcurementService
	logger             *zap.Logger
}

// NewRFQHandler creates a new RFQ handler instance
func NewRFQHandler(procurementService *service.ProcurementService, logger *zap.Logger) *RFQHandler {
	return &RFQHandler{
		procurementService: procurementService,
		logger:             logger,
	}
}

// List godoc
// @Summary List RFQs
// @Tags RFQs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(OPEN, CLOSED)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.RFQDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfqs [get]
func (h *RFQHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	var status *domain.RFQStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.RFQStatus(s)
		status = &st
	}

	rfqs, total, err := h.procurementService.ListRFQs(r.Context(), page, pageSize, status)
	if err != nil {
		h.logger.Error("failed to list rfqs", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list RFQs",
		})
		return
	}

	respondJSON(w, http.StatusOK, paginated(rfqs, total, page, pageSize))
}

// GetByID godoc
// @Summary Get RFQ by ID
// @Description Get an RFQ including its quotations
// @Tags RFQs
// @Produce json
// @Param id path string true "RFQ ID" format(uuid)
// @Success 200 {object} domain.RFQDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /rfqs/{id} [get]
func (h *RFQHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid RFQ ID format",
		})
		return
	}

	rfq, err := h.procurementService.GetRFQ(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "RFQ not found",
			})
			return
		}
		h.logger.Error("failed to get rfq", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get RFQ",
		})
		return
	}

	respondJSON(w, http.StatusOK, rfq)
}

// Open godoc
// @Summary Open RFQ
// @Description Open an RFQ for a technically approved material request. Moves the request into procurement.
// @Tags RFQs
// @Accept json
// @Produce json
// @Param request body domain.OpenRFQRequest true "RFQ data"
// @Success 201 {object} domain.RFQDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Material request is not approved"
// @Security BearerAuth
// @Router /rfqs [post]
func (h *RFQHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenRFQRequest
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

	rfq, err := h.procurementService.OpenRFQ(r.Context(), &req)
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
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to open rfq", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to open RFQ",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/rfqs/"+rfq.ID.String())
	respondJSON(w, http.StatusCreated, rfq)
}

// RecordQuotation godoc
// @Summary Record quotation
// @Description Record a supplier quotation against an open RFQ
// @Tags RFQs
// @Accept json
// @Produce json
// @Param id path string true "RFQ ID" format(uuid)
// @Param request body domain.RecordQuotationRequest true "Quotation data"
// @Success 201 {object} domain.QuotationDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "RFQ is closed"
// @Security BearerAuth
// @Router /rfqs/{id}/quotations [post]
func (h *RFQHandler) RecordQuotation(w http.ResponseWriter, r *http.Request) {
	rfqID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid RFQ ID format",
		})
		return
	}

	var req domain.RecordQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}
	req.RFQID = &rfqID

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.procurementService.RecordQuotation(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: err.Error(),
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
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to record quotation", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to record quotation",
		})
		return
	}

	respondJSON(w, http.StatusCreated, quote)
}

// CreateQuotation godoc
// @Summary Record standalone quotation
// @Description Record a supplier quotation, optionally linked to an RFQ via the body
// @Tags RFQs
// @Accept json
// @Produce json
// @Param request body domain.RecordQuotationRequest true "Quotation data"
// @Success 201 {object} domain.QuotationDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotations [post]
func (h *RFQHandler) CreateQuotation(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordQuotationRequest
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

	quote, err := h.procurementService.RecordQuotation(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: err.Error(),
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
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to record quotation", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to record quotation",
		})
		return
	}

	respondJSON(w, http.StatusCreated, quote)
}

// SelectWinner godoc
// @Summary Select winning quotation
// @Description Select the winning quotation for an RFQ. Closes the RFQ and generates a purchase order pending approval.
// @Tags RFQs
// @Produce json
// @Param id path string true "RFQ ID" format(uuid)
// @Param quotationId path string true "Quotation ID" format(uuid)
// @Success 201 {object} domain.PurchaseOrderDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "RFQ is closed or quotation does not belong to it"
// @Security BearerAuth
// @Router /rfqs/{id}/select/{quotationId} [post]
func (h *RFQHandler) SelectWinner(w http.ResponseWriter, r *http.Request) {
	rfqID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid RFQ ID format",
		})
		return
	}

	quotationID, err := uuid.Parse(chi.URLParam(r, "quotationId"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid quotation ID format",
		})
		return
	}

	order, err := h.procurementService.SelectWinningQuotation(r.Context(), rfqID, quotationID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, service.ErrInvalidState) || errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to select winning quotation", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to select winning quotation",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/purchase-orders/"+order.ID.String())
	respondJSON(w, http.StatusCreated, order)
}
