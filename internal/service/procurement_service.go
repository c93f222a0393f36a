package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/auth"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/mapper"
	"github.com/itqan-erp/procurement-api/internal/policy"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProcurementService orchestrates the procurement lifecycle: material
// requests, RFQs and quotations, purchase orders, goods receipts and
// three-way invoice matching. Lifecycle transitions run inside database
// transactions; the pure decision rules live in the policy package.
type ProcurementService struct {
	db          *gorm.DB
	requestRepo *repository.MaterialRequestRepository
	rfqRepo     *repository.RFQRepository
	quoteRepo   *repository.QuotationRepository
	orderRepo   *repository.PurchaseOrderRepository
	receiptRepo *repository.ReceiptRepository
	invoiceRepo *repository.InvoiceRepository
	projectRepo *repository.ProjectRepository
	itemRepo    *repository.ItemRepository
	userRepo    *repository.UserRepository
	auditRepo   *repository.AuditLogRepository
	matcher     *policy.Matcher
	currency    string
	logger      *zap.Logger
}

// NewProcurementService creates a new procurement service instance
func NewProcurementService(
	db *gorm.DB,
	requestRepo *repository.MaterialRequestRepository,
	rfqRepo *repository.RFQRepository,
	quoteRepo *repository.QuotationRepository,
	orderRepo *repository.PurchaseOrderRepository,
	receiptRepo *repository.ReceiptRepository,
	invoiceRepo *repository.InvoiceRepository,
	projectRepo *repository.ProjectRepository,
	itemRepo *repository.ItemRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditLogRepository,
	matcher *policy.Matcher,
	currency string,
	logger *zap.Logger,
) *ProcurementService {
	return &ProcurementService{
		db:          db,
		requestRepo: requestRepo,
		rfqRepo:     rfqRepo,
		quoteRepo:   quoteRepo,
		orderRepo:   orderRepo,
		receiptRepo: receiptRepo,
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		matcher:     matcher,
		currency:    currency,
		logger:      logger,
	}
}

// ============================================================================
// Material Requests
// ============================================================================

// CreateMaterialRequest records a site request for materials. The request is
// created in PENDING_TECHNICAL, awaiting technical review.
func (s *ProcurementService) CreateMaterialRequest(ctx context.Context, req *domain.CreateMaterialRequestRequest) (*domain.MaterialRequestDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, req.ProjectID)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	itemIDs := make([]uuid.UUID, len(req.Lines))
	for i, line := range req.Lines {
		itemIDs[i] = line.ItemID
	}
	items, err := s.itemRepo.GetByIDs(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up items: %w", err)
	}
	known := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}
	for _, line := range req.Lines {
		if !known[line.ItemID] {
			return nil, fmt.Errorf("%w: item %s", ErrNotFound, line.ItemID)
		}
	}

	request := &domain.MaterialRequest{
		ProjectID:   req.ProjectID,
		RequesterID: userCtx.UserID,
		Status:      domain.RequestStatusPendingTechnical,
		Notes:       req.Notes,
	}
	for _, line := range req.Lines {
		request.Lines = append(request.Lines, domain.RequestLine{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
		})
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create material request: %w", err)
	}

	request, err = s.requestRepo.GetByID(ctx, request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload material request: %w", err)
	}

	s.audit(ctx, "MATERIAL_REQUEST_CREATED",
		fmt.Sprintf("Material request %s created with %d lines", request.ID, len(request.Lines)))

	dto := mapper.ToMaterialRequestDTO(request)
	return &dto, nil
}

// ReviewMaterialRequest applies the technical review verdict to a pending
// request: approve moves it to APPROVED_TECHNICAL, reject to REJECTED.
func (s *ProcurementService) ReviewMaterialRequest(ctx context.Context, id uuid.UUID, req *domain.ReviewMaterialRequestRequest) (*domain.MaterialRequestDTO, error) {
	verdict := domain.RequestStatusApprovedTechnical
	action := "MATERIAL_REQUEST_APPROVED"
	if !req.Approve {
		verdict = domain.RequestStatusRejected
		action = "MATERIAL_REQUEST_REJECTED"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		request, err := s.requestRepo.GetForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: material request %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to get material request: %w", err)
		}

		if request.Status != domain.RequestStatusPendingTechnical {
			return fmt.Errorf("%w: request is %s, expected %s",
				ErrInvalidState, request.Status, domain.RequestStatusPendingTechnical)
		}

		return tx.Model(&domain.MaterialRequest{}).
			Where("id = ?", id).
			Update("status", verdict).Error
	})
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload material request: %w", err)
	}

	details := fmt.Sprintf("Material request %s reviewed: %s", id, verdict)
	if req.Notes != "" {
		details = fmt.Sprintf("%s. Notes: %s", details, req.Notes)
	}
	s.audit(ctx, action, details)

	dto := mapper.ToMaterialRequestDTO(request)
	return &dto, nil
}

// GetMaterialRequest returns one material request with its lines
func (s *ProcurementService) GetMaterialRequest(ctx context.Context, id uuid.UUID) (*domain.MaterialRequestDTO, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: material request %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get material request: %w", err)
	}
	dto := mapper.ToMaterialRequestDTO(request)
	return &dto, nil
}

// ListMaterialRequests returns a page of material requests
func (s *ProcurementService) ListMaterialRequests(ctx context.Context, page, pageSize int, projectID *uuid.UUID, status *domain.RequestStatus) ([]domain.MaterialRequestDTO, int64, error) {
	requests, total, err := s.requestRepo.List(ctx, page, pageSize, projectID, status, repository.DefaultSortConfig())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list material requests: %w", err)
	}
	dtos := make([]domain.MaterialRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = mapper.ToMaterialRequestDTO(&requests[i])
	}
	return dtos, total, nil
}

// ============================================================================
// RFQs and Quotations
// ============================================================================

// OpenRFQ opens a tender round for a technically approved material request
// and moves the request into IN_PROCUREMENT.
func (s *ProcurementService) OpenRFQ(ctx context.Context, req *domain.OpenRFQRequest) (*domain.RFQDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	deadline, err := time.Parse(time.RFC3339, req.Deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: deadline must be RFC 3339", ErrInvalidInput)
	}

	rfq := &domain.RFQ{
		MaterialRequestID: req.MaterialRequestID,
		CreatedByID:       userCtx.UserID,
		Status:            domain.RFQStatusOpen,
		Deadline:          deadline,
	}

	// The status check and transition run under a row lock so two concurrent
	// calls cannot both open an RFQ for the same request.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		request, err := s.requestRepo.GetForUpdate(tx, req.MaterialRequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: material request %s", ErrNotFound, req.MaterialRequestID)
			}
			return fmt.Errorf("failed to get material request: %w", err)
		}

		if request.Status != domain.RequestStatusApprovedTechnical {
			return fmt.Errorf("%w: request is %s, expected %s",
				ErrInvalidState, request.Status, domain.RequestStatusApprovedTechnical)
		}

		if err := tx.Create(rfq).Error; err != nil {
			return fmt.Errorf("failed to create rfq: %w", err)
		}
		if err := tx.Model(&domain.MaterialRequest{}).
			Where("id = ?", request.ID).
			Update("status", domain.RequestStatusInProcurement).Error; err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rfq, err = s.rfqRepo.GetByID(ctx, rfq.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload rfq: %w", err)
	}

	s.audit(ctx, "RFQ_OPENED",
		fmt.Sprintf("RFQ %s opened for material request %s, deadline %s",
			rfq.ID, req.MaterialRequestID, deadline.Format(time.RFC3339)))

	dto := mapper.ToRFQDTO(rfq)
	return &dto, nil
}

// GetRFQ returns one RFQ with its quotations
func (s *ProcurementService) GetRFQ(ctx context.Context, id uuid.UUID) (*domain.RFQDTO, error) {
	rfq, err := s.rfqRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rfq %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get rfq: %w", err)
	}
	dto := mapper.ToRFQDTO(rfq)
	return &dto, nil
}

// ListRFQs returns a page of RFQs
func (s *ProcurementService) ListRFQs(ctx context.Context, page, pageSize int, status *domain.RFQStatus) ([]domain.RFQDTO, int64, error) {
	rfqs, total, err := s.rfqRepo.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rfqs: %w", err)
	}
	dtos := make([]domain.RFQDTO, len(rfqs))
	for i := range rfqs {
		dtos[i] = mapper.ToRFQDTO(&rfqs[i])
	}
	return dtos, total, nil
}

// CloseExpiredRFQs closes all open RFQs whose deadline has passed and
// returns how many were closed. Quotes already recorded remain attached.
func (s *ProcurementService) CloseExpiredRFQs(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.rfqRepo.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired rfqs: %w", err)
	}

	closed := 0
	for i := range expired {
		rfq := &expired[i]
		rfq.Status = domain.RFQStatusClosed
		if err := s.rfqRepo.Update(ctx, rfq); err != nil {
			s.logger.Error("failed to close expired rfq",
				zap.String("rfq_id", rfq.ID.String()),
				zap.Error(err))
			continue
		}
		s.audit(ctx, "RFQ_EXPIRED", fmt.Sprintf("RFQ %s closed past deadline %s", rfq.ID, rfq.Deadline.Format(time.RFC3339)))
		closed++
	}

	if closed > 0 {
		s.logger.Info("closed expired rfqs", zap.Int("count", closed))
	}
	return closed, nil
}

// RecordQuotation records a supplier quote, against an open RFQ or
// free-standing for direct sourcing. Currency falls back to the configured
// default when the supplier did not state one.
func (s *ProcurementService) RecordQuotation(ctx context.Context, req *domain.RecordQuotationRequest) (*domain.QuotationDTO, error) {
	if req.RFQID != nil {
		rfq, err := s.rfqRepo.GetByID(ctx, *req.RFQID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: rfq %s", ErrNotFound, *req.RFQID)
			}
			return nil, fmt.Errorf("failed to get rfq: %w", err)
		}
		if rfq.Status != domain.RFQStatusOpen {
			return nil, fmt.Errorf("%w: rfq is %s, expected %s", ErrInvalidState, rfq.Status, domain.RFQStatusOpen)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	quote := &domain.Quotation{
		RFQID:       req.RFQID,
		SupplierID:  req.SupplierID,
		TotalAmount: req.TotalAmount,
		Currency:    currency,
	}
	if req.ValidUntil != nil {
		validUntil, err := time.Parse(time.RFC3339, *req.ValidUntil)
		if err != nil {
			return nil, fmt.Errorf("%w: validUntil must be RFC 3339", ErrInvalidInput)
		}
		quote.ValidUntil = &validUntil
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	quote, err := s.quoteRepo.GetByID(ctx, quote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quotation: %w", err)
	}

	s.audit(ctx, "QUOTATION_RECORDED",
		fmt.Sprintf("Quotation %s recorded from supplier %s for %.2f %s",
			quote.ID, quote.SupplierID, quote.TotalAmount, quote.Currency))

	dto := mapper.ToQuotationDTO(quote)
	return &dto, nil
}

// SelectWinningQuotation marks one quotation as the winner, closes the RFQ
// and synthesizes a purchase order in PENDING_APPROVAL. The quote's lump sum
// is allocated evenly across the requested lines: each ordered line carries
// total divided by line count as its unit price.
func (s *ProcurementService) SelectWinningQuotation(ctx context.Context, rfqID, quotationID uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	order := &domain.PurchaseOrder{
		Status: domain.POStatusPendingApproval,
	}

	// All precondition reads run under a row lock on the RFQ: two concurrent
	// selections serialize, the second one sees CLOSED and fails, and the RFQ
	// never ends up with more than one selected quotation.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		rfq, err := s.rfqRepo.GetForUpdate(tx, rfqID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: rfq %s", ErrNotFound, rfqID)
			}
			return fmt.Errorf("failed to get rfq: %w", err)
		}

		var quote *domain.Quotation
		for i := range rfq.Quotations {
			if rfq.Quotations[i].ID == quotationID {
				quote = &rfq.Quotations[i]
				break
			}
		}
		if quote == nil {
			return fmt.Errorf("%w: quotation %s for rfq %s", ErrNotFound, quotationID, rfqID)
		}

		if rfq.Status != domain.RFQStatusOpen {
			return fmt.Errorf("%w: rfq is %s, expected %s", ErrInvalidState, rfq.Status, domain.RFQStatusOpen)
		}

		request, err := s.requestRepo.GetForUpdate(tx, rfq.MaterialRequestID)
		if err != nil {
			return fmt.Errorf("failed to get material request: %w", err)
		}

		// Lump sum quotes carry no line prices, so allocate evenly.
		avgPrice := 0.0
		if len(request.Lines) > 0 {
			avgPrice = quote.TotalAmount / float64(len(request.Lines))
		}

		order.ProjectID = request.ProjectID
		order.SupplierID = quote.SupplierID
		order.MaterialRequestID = &request.ID
		order.QuotationID = &quote.ID
		order.TotalAmount = quote.TotalAmount
		for _, line := range request.Lines {
			order.Lines = append(order.Lines, domain.POLine{
				ItemID:   line.ItemID,
				Quantity: line.Quantity,
				Price:    avgPrice,
			})
		}

		if err := tx.Model(&domain.Quotation{}).
			Where("id = ?", quote.ID).
			Update("is_selected", true).Error; err != nil {
			return fmt.Errorf("failed to mark quotation selected: %w", err)
		}
		if err := tx.Model(&domain.RFQ{}).
			Where("id = ?", rfq.ID).
			Update("status", domain.RFQStatusClosed).Error; err != nil {
			return fmt.Errorf("failed to close rfq: %w", err)
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err = s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase order: %w", err)
	}

	s.audit(ctx, "QUOTATION_SELECTED",
		fmt.Sprintf("Quotation %s won RFQ %s, purchase order %s created for %.2f",
			quotationID, rfqID, order.ID, order.TotalAmount))

	dto := mapper.ToPurchaseOrderDTO(order)
	return &dto, nil
}

// ============================================================================
// Purchase Orders
// ============================================================================

// CreatePurchaseOrder creates an order directly, without a tender round. The
// total is computed from the lines. A material request or quotation may be
// referenced for traceability; a referenced quotation is marked as the
// selected one and its parent RFQ, if any, is closed.
func (s *ProcurementService) CreatePurchaseOrder(ctx context.Context, req *domain.CreatePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, req.ProjectID)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if req.MaterialRequestID != nil {
		if _, err := s.requestRepo.GetByID(ctx, *req.MaterialRequestID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: material request %s", ErrNotFound, *req.MaterialRequestID)
			}
			return nil, fmt.Errorf("failed to get material request: %w", err)
		}
	}

	var total float64
	order := &domain.PurchaseOrder{
		ProjectID:         req.ProjectID,
		SupplierID:        req.SupplierID,
		MaterialRequestID: req.MaterialRequestID,
		QuotationID:       req.QuotationID,
		Status:            domain.POStatusPendingApproval,
	}
	for _, line := range req.Lines {
		total += line.Quantity * line.Price
		order.Lines = append(order.Lines, domain.POLine{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}
	order.TotalAmount = total

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.QuotationID != nil {
			var quote domain.Quotation
			if err := tx.Where("id = ?", *req.QuotationID).First(&quote).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: quotation %s", ErrNotFound, *req.QuotationID)
				}
				return fmt.Errorf("failed to get quotation: %w", err)
			}
			if err := tx.Model(&domain.Quotation{}).
				Where("id = ?", quote.ID).
				Update("is_selected", true).Error; err != nil {
				return fmt.Errorf("failed to mark quotation selected: %w", err)
			}
			if quote.RFQID != nil {
				if err := tx.Model(&domain.RFQ{}).
					Where("id = ?", *quote.RFQID).
					Update("status", domain.RFQStatusClosed).Error; err != nil {
					return fmt.Errorf("failed to close rfq: %w", err)
				}
			}
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err = s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase order: %w", err)
	}

	s.audit(ctx, "PURCHASE_ORDER_CREATED",
		fmt.Sprintf("Purchase order %s created for %.2f", order.ID, order.TotalAmount))

	dto := mapper.ToPurchaseOrderDTO(order)
	return &dto, nil
}

// GetPurchaseOrder returns one purchase order with its full aggregate
func (s *ProcurementService) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: purchase order %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	dto := mapper.ToPurchaseOrderDTO(order)
	return &dto, nil
}

// ListPurchaseOrders returns a page of purchase orders
func (s *ProcurementService) ListPurchaseOrders(ctx context.Context, page, pageSize int, projectID, supplierID *uuid.UUID, status *domain.POStatus) ([]domain.PurchaseOrderDTO, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, page, pageSize, projectID, supplierID, status, repository.DefaultSortConfig())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	dtos := make([]domain.PurchaseOrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToPurchaseOrderDTO(&orders[i])
	}
	return dtos, total, nil
}

// ApprovePurchaseOrder approves a pending order on behalf of the calling
// user. Authority is decided by policy.CanApprove: role precedence first,
// then the personal approval limit.
func (s *ProcurementService) ApprovePurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Status check and transition run under a row lock so two concurrent
	// approvals cannot both pass the PENDING_APPROVAL gate.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.GetForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: purchase order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to get purchase order: %w", err)
		}

		if order.Status != domain.POStatusPendingApproval {
			return fmt.Errorf("%w: order is %s, expected %s",
				ErrInvalidState, order.Status, domain.POStatusPendingApproval)
		}

		if err := policy.CanApprove(user, order.TotalAmount); err != nil {
			s.audit(ctx, "PURCHASE_ORDER_APPROVAL_DENIED",
				fmt.Sprintf("Approval of order %s (%.2f) denied for role %s", id, order.TotalAmount, user.Role))
			return err
		}

		now := time.Now()
		return tx.Model(&domain.PurchaseOrder{}).
			Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"status":         domain.POStatusApproved,
				"approved_by_id": user.ID,
				"approved_at":    now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase order: %w", err)
	}

	s.audit(ctx, "PURCHASE_ORDER_APPROVED",
		fmt.Sprintf("Purchase order %s for %.2f approved by %s", id, order.TotalAmount, user.Name))

	dto := mapper.ToPurchaseOrderDTO(order)
	return &dto, nil
}

// SendPurchaseOrder marks an approved order as sent to the supplier
func (s *ProcurementService) SendPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.GetForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: purchase order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to get purchase order: %w", err)
		}

		if order.Status != domain.POStatusApproved {
			return fmt.Errorf("%w: order is %s, expected %s",
				ErrInvalidState, order.Status, domain.POStatusApproved)
		}

		return tx.Model(&domain.PurchaseOrder{}).
			Where("id = ?", order.ID).
			Update("status", domain.POStatusSentToSupplier).Error
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase order: %w", err)
	}

	s.audit(ctx, "PURCHASE_ORDER_SENT", fmt.Sprintf("Purchase order %s sent to supplier", id))

	dto := mapper.ToPurchaseOrderDTO(order)
	return &dto, nil
}

// CancelPurchaseOrder cancels an order that has not received any goods yet
func (s *ProcurementService) CancelPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.GetForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: purchase order %s", ErrNotFound, id)
			}
			return fmt.Errorf("failed to get purchase order: %w", err)
		}

		switch order.Status {
		case domain.POStatusPendingApproval, domain.POStatusApproved, domain.POStatusSentToSupplier:
		default:
			return fmt.Errorf("%w: order is %s and can no longer be cancelled", ErrInvalidState, order.Status)
		}

		return tx.Model(&domain.PurchaseOrder{}).
			Where("id = ?", order.ID).
			Update("status", domain.POStatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase order: %w", err)
	}

	s.audit(ctx, "PURCHASE_ORDER_CANCELLED", fmt.Sprintf("Purchase order %s cancelled", id))

	dto := mapper.ToPurchaseOrderDTO(order)
	return &dto, nil
}

// ============================================================================
// Goods Receipts
// ============================================================================

// RecordReceipt books a goods receipt against an order. The whole receipt is
// validated and applied atomically: if any line would over-receive, nothing
// is booked. Received quantities also roll up into the project BOQ.
func (s *ProcurementService) RecordReceipt(ctx context.Context, orderID uuid.UUID, req *domain.RecordReceiptRequest) (*domain.ReceiptDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	var receiptID uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.GetForUpdate(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: purchase order %s", ErrNotFound, orderID)
			}
			return fmt.Errorf("failed to get purchase order: %w", err)
		}

		if !order.Status.ReceivableStatus() {
			return fmt.Errorf("%w: order is %s and cannot receive goods", ErrInvalidState, order.Status)
		}

		receipt := &domain.Receipt{
			PurchaseOrderID: order.ID,
			ReceivedByID:    userCtx.UserID,
			ReceivedAt:      time.Now(),
		}
		for _, line := range req.Lines {
			receipt.Lines = append(receipt.Lines, domain.ReceiptLine{
				ItemID:   line.ItemID,
				Quantity: line.Quantity,
			})
		}

		if err := policy.ApplyReceipt(order, receipt.Lines); err != nil {
			return err
		}

		for i := range order.Lines {
			line := &order.Lines[i]
			if err := tx.Model(&domain.POLine{}).
				Where("id = ?", line.ID).
				Update("received_quantity", line.ReceivedQuantity).Error; err != nil {
				return fmt.Errorf("failed to update order line: %w", err)
			}
		}
		if err := tx.Model(&domain.PurchaseOrder{}).
			Where("id = ?", order.ID).
			Update("status", order.Status).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		if err := tx.Create(receipt).Error; err != nil {
			return fmt.Errorf("failed to create receipt: %w", err)
		}
		receiptID = receipt.ID

		for _, line := range receipt.Lines {
			if err := tx.Model(&domain.ProjectBOQ{}).
				Where("project_id = ? AND item_id = ?", order.ProjectID, line.ItemID).
				Update("received_quantity", gorm.Expr("received_quantity + ?", line.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to roll up boq quantity: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload receipt: %w", err)
	}

	s.audit(ctx, "RECEIPT_RECORDED",
		fmt.Sprintf("Receipt %s recorded against purchase order %s with %d lines",
			receipt.ID, orderID, len(receipt.Lines)))

	dto := mapper.ToReceiptDTO(receipt)
	return &dto, nil
}

// ListReceipts returns the receipts recorded against a purchase order
func (s *ProcurementService) ListReceipts(ctx context.Context, orderID uuid.UUID) ([]domain.ReceiptDTO, error) {
	receipts, err := s.receiptRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	dtos := make([]domain.ReceiptDTO, len(receipts))
	for i := range receipts {
		dtos[i] = mapper.ToReceiptDTO(&receipts[i])
	}
	return dtos, nil
}

// ============================================================================
// Invoices and Three-Way Match
// ============================================================================

// PostInvoice records a supplier invoice against a purchase order and
// immediately runs the three-way match against the goods received so far.
func (s *ProcurementService) PostInvoice(ctx context.Context, req *domain.PostInvoiceRequest) (*domain.InvoiceDTO, error) {
	order, err := s.orderRepo.GetByID(ctx, req.PurchaseOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: purchase order %s", ErrNotFound, req.PurchaseOrderID)
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	invoice := &domain.Invoice{
		PurchaseOrderID:       order.ID,
		SupplierInvoiceNumber: req.SupplierInvoiceNumber,
		TotalAmount:           req.TotalAmount,
		Status:                domain.InvoiceStatusPendingMatch,
	}

	result := s.matcher.Match(order, invoice)
	invoice.Status = result.Status
	invoice.MatchDetails = result.Details

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("three-way match completed",
		zap.String("invoiceID", invoice.ID.String()),
		zap.String("orderID", order.ID.String()),
		zap.String("status", string(invoice.Status)),
		zap.Float64("variance", result.Variance))

	s.audit(ctx, "INVOICE_POSTED",
		fmt.Sprintf("Invoice %s for %.2f posted against order %s: %s",
			invoice.ID, invoice.TotalAmount, order.ID, invoice.Status))

	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

// RematchInvoice reruns the three-way match for an existing invoice, used
// after further receipts arrive. The run is idempotent for an unchanged
// order.
func (s *ProcurementService) RematchInvoice(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	order, err := s.orderRepo.GetByID(ctx, invoice.PurchaseOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	result := s.matcher.Match(order, invoice)
	invoice.Status = result.Status
	invoice.MatchDetails = result.Details

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	s.audit(ctx, "INVOICE_REMATCHED",
		fmt.Sprintf("Invoice %s rematched against order %s: %s", id, order.ID, invoice.Status))

	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

// GetInvoice returns one invoice
func (s *ProcurementService) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

// ListInvoices returns a page of invoices
func (s *ProcurementService) ListInvoices(ctx context.Context, page, pageSize int, orderID *uuid.UUID, status *domain.InvoiceStatus) ([]domain.InvoiceDTO, int64, error) {
	invoices, total, err := s.invoiceRepo.List(ctx, page, pageSize, orderID, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i])
	}
	return dtos, total, nil
}

// ============================================================================
// Helpers
// ============================================================================

// audit writes an audit trail entry, logging rather than failing on error
func (s *ProcurementService) audit(ctx context.Context, action, details string) {
	entry := &domain.AuditLog{
		Action:   action,
		Details:  details,
		Category: domain.AuditCategoryProcurement,
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		entry.UserID = &userCtx.UserID
		entry.UserName = userCtx.DisplayName
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
