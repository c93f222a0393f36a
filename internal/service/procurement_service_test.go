package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/auth"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/policy"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"github.com/itqan-erp/procurement-api/internal/service"
	"github.com/itqan-erp/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newProcurementService(t *testing.T) (*service.ProcurementService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	svc := service.NewProcurementService(
		db,
		repository.NewMaterialRequestRepository(db),
		repository.NewRFQRepository(db),
		repository.NewQuotationRepository(db),
		repository.NewPurchaseOrderRepository(db),
		repository.NewReceiptRepository(db),
		repository.NewInvoiceRepository(db),
		repository.NewProjectRepository(db),
		repository.NewItemRepository(db),
		repository.NewUserRepository(db),
		repository.NewAuditLogRepository(db),
		policy.NewMatcher(100.0),
		"SAR",
		zap.NewNop(),
	)
	return svc, db
}

func contextForUser(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      user.ID,
		DisplayName: user.Name,
		Email:       user.Email,
		Role:        user.Role,
	})
}

func TestCreateMaterialRequest(t *testing.T) {
	svc, db := newProcurementService(t)
	engineer := testutil.CreateTestUser(t, db, "engineer", domain.RoleEngineer, 0)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)

	ctx := contextForUser(engineer)
	dto, err := svc.CreateMaterialRequest(ctx, &domain.CreateMaterialRequestRequest{
		ProjectID: project.ID,
		Notes:     "ground floor slab",
		Lines: []domain.CreateRequestLineRequest{
			{ItemID: item.ID, Quantity: 100},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPendingTechnical, dto.Status)
	assert.Equal(t, engineer.ID, dto.RequesterID)
	require.Len(t, dto.Lines, 1)
	assert.Equal(t, 100.0, dto.Lines[0].Quantity)
}

func TestCreateMaterialRequest_UnknownItem(t *testing.T) {
	svc, db := newProcurementService(t)
	engineer := testutil.CreateTestUser(t, db, "engineer", domain.RoleEngineer, 0)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)

	_, err := svc.CreateMaterialRequest(contextForUser(engineer), &domain.CreateMaterialRequestRequest{
		ProjectID: project.ID,
		Lines: []domain.CreateRequestLineRequest{
			{ItemID: uuid.New(), Quantity: 5},
		},
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateMaterialRequest_RequiresUser(t *testing.T) {
	svc, _ := newProcurementService(t)

	_, err := svc.CreateMaterialRequest(context.Background(), &domain.CreateMaterialRequestRequest{
		ProjectID: uuid.New(),
	})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestReviewMaterialRequest(t *testing.T) {
	svc, db := newProcurementService(t)
	engineer := testutil.CreateTestUser(t, db, "engineer", domain.RoleEngineer, 0)
	surveyor := testutil.CreateTestUser(t, db, "surveyor", domain.RoleQuantitySurveyor, 0)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)

	request, err := svc.CreateMaterialRequest(contextForUser(engineer), &domain.CreateMaterialRequestRequest{
		ProjectID: project.ID,
		Lines:     []domain.CreateRequestLineRequest{{ItemID: item.ID, Quantity: 50}},
	})
	require.NoError(t, err)

	reviewed, err := svc.ReviewMaterialRequest(contextForUser(surveyor), request.ID, &domain.ReviewMaterialRequestRequest{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApprovedTechnical, reviewed.Status)

	// A second review of the same request is rejected
	_, err = svc.ReviewMaterialRequest(contextForUser(surveyor), request.ID, &domain.ReviewMaterialRequestRequest{Approve: false})
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestReviewMaterialRequest_Reject(t *testing.T) {
	svc, db := newProcurementService(t)
	engineer := testutil.CreateTestUser(t, db, "engineer", domain.RoleEngineer, 0)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)

	request, err := svc.CreateMaterialRequest(contextForUser(engineer), &domain.CreateMaterialRequestRequest{
		ProjectID: project.ID,
		Lines:     []domain.CreateRequestLineRequest{{ItemID: item.ID, Quantity: 50}},
	})
	require.NoError(t, err)

	reviewed, err := svc.ReviewMaterialRequest(contextForUser(engineer), request.ID, &domain.ReviewMaterialRequestRequest{
		Approve: false,
		Notes:   "quantities look wrong",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, reviewed.Status)
}

// approvedRequest walks a fresh request through technical approval
func approvedRequest(t *testing.T, svc *service.ProcurementService, db *gorm.DB, project *domain.Project, items []*domain.Item, quantities []float64) (*domain.MaterialRequestDTO, *domain.User) {
	t.Helper()
	engineer := testutil.CreateTestUser(t, db, "requester-"+uuid.NewString()[:8], domain.RoleEngineer, 0)

	lines := make([]domain.CreateRequestLineRequest, len(items))
	for i, item := range items {
		lines[i] = domain.CreateRequestLineRequest{ItemID: item.ID, Quantity: quantities[i]}
	}
	request, err := svc.CreateMaterialRequest(contextForUser(engineer), &domain.CreateMaterialRequestRequest{
		ProjectID: project.ID,
		Lines:     lines,
	})
	require.NoError(t, err)

	approved, err := svc.ReviewMaterialRequest(contextForUser(engineer), request.ID, &domain.ReviewMaterialRequestRequest{Approve: true})
	require.NoError(t, err)
	return approved, engineer
}

func TestOpenRFQ(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	request, engineer := approvedRequest(t, svc, db, project, []*domain.Item{item}, []float64{100})

	deadline := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	rfq, err := svc.OpenRFQ(contextForUser(engineer), &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RFQStatusOpen, rfq.Status)

	// The request moves into procurement
	reloaded, err := svc.GetMaterialRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusInProcurement, reloaded.Status)

	// A second RFQ on the same request is rejected
	_, err = svc.OpenRFQ(contextForUser(engineer), &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          deadline,
	})
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestOpenRFQ_BadDeadline(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	request, engineer := approvedRequest(t, svc, db, project, []*domain.Item{item}, []float64{100})

	_, err := svc.OpenRFQ(contextForUser(engineer), &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          "next tuesday",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRecordQuotation_DefaultCurrency(t *testing.T) {
	svc, db := newProcurementService(t)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")

	quote, err := svc.RecordQuotation(context.Background(), &domain.RecordQuotationRequest{
		SupplierID:  supplier.ID,
		TotalAmount: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, "SAR", quote.Currency)
	assert.Nil(t, quote.RFQID)
	assert.False(t, quote.Selected)
}

func TestRecordQuotation_ClosedRFQ(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	request, engineer := approvedRequest(t, svc, db, project, []*domain.Item{item}, []float64{100})

	rfq, err := svc.OpenRFQ(contextForUser(engineer), &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.RFQ{}).Where("id = ?", rfq.ID).
		Update("status", domain.RFQStatusClosed).Error)

	_, err = svc.RecordQuotation(context.Background(), &domain.RecordQuotationRequest{
		RFQID:       &rfq.ID,
		SupplierID:  supplier.ID,
		TotalAmount: 5000,
	})
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestSelectWinningQuotation(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	cement := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	steel := testutil.CreateTestItem(t, db, "STL-001", "Rebar", 80)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	request, engineer := approvedRequest(t, svc, db, project, []*domain.Item{cement, steel}, []float64{100, 40})

	ctx := contextForUser(engineer)
	rfq, err := svc.OpenRFQ(ctx, &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	quote, err := svc.RecordQuotation(ctx, &domain.RecordQuotationRequest{
		RFQID:       &rfq.ID,
		SupplierID:  supplier.ID,
		TotalAmount: 9000,
	})
	require.NoError(t, err)

	order, err := svc.SelectWinningQuotation(ctx, rfq.ID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusPendingApproval, order.Status)
	assert.Equal(t, 9000.0, order.TotalAmount)
	assert.Equal(t, supplier.ID, order.SupplierID)
	require.NotNil(t, order.QuotationID)
	assert.Equal(t, quote.ID, *order.QuotationID)

	// The lump sum is spread evenly across the two lines
	require.Len(t, order.Lines, 2)
	assert.Equal(t, 4500.0, order.Lines[0].Price)
	assert.Equal(t, 4500.0, order.Lines[1].Price)

	// The RFQ is closed and the quote marked selected
	closedRFQ, err := svc.GetRFQ(ctx, rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RFQStatusClosed, closedRFQ.Status)
	require.Len(t, closedRFQ.Quotations, 1)
	assert.True(t, closedRFQ.Quotations[0].Selected)

	// A second selection against the closed RFQ is rejected
	_, err = svc.SelectWinningQuotation(ctx, rfq.ID, quote.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestSelectWinningQuotation_WrongRFQ(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	request, engineer := approvedRequest(t, svc, db, project, []*domain.Item{item}, []float64{100})

	ctx := contextForUser(engineer)
	rfq, err := svc.OpenRFQ(ctx, &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	// Free-standing quote not attached to the RFQ
	stray, err := svc.RecordQuotation(ctx, &domain.RecordQuotationRequest{
		SupplierID:  supplier.ID,
		TotalAmount: 5000,
	})
	require.NoError(t, err)

	_, err = svc.SelectWinningQuotation(ctx, rfq.ID, stray.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSelectWinningQuotation_OnlyOneWinnerPerRFQ(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	supplierA := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	supplierB := testutil.CreateTestSupplier(t, db, "Jeddah Supplies")
	request, engineer := approvedRequest(t, svc, db, project, []*domain.Item{item}, []float64{100})

	ctx := contextForUser(engineer)
	rfq, err := svc.OpenRFQ(ctx, &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	quoteA, err := svc.RecordQuotation(ctx, &domain.RecordQuotationRequest{
		RFQID: &rfq.ID, SupplierID: supplierA.ID, TotalAmount: 5000,
	})
	require.NoError(t, err)
	quoteB, err := svc.RecordQuotation(ctx, &domain.RecordQuotationRequest{
		RFQID: &rfq.ID, SupplierID: supplierB.ID, TotalAmount: 4500,
	})
	require.NoError(t, err)

	_, err = svc.SelectWinningQuotation(ctx, rfq.ID, quoteA.ID)
	require.NoError(t, err)

	// The losing selection sees the closed RFQ and must not touch anything
	_, err = svc.SelectWinningQuotation(ctx, rfq.ID, quoteB.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)

	var selectedCount int64
	require.NoError(t, db.Model(&domain.Quotation{}).
		Where("rfq_id = ? AND is_selected = ?", rfq.ID, true).
		Count(&selectedCount).Error)
	assert.EqualValues(t, 1, selectedCount)

	var orderCount int64
	require.NoError(t, db.Model(&domain.PurchaseOrder{}).
		Where("material_request_id = ?", request.ID).
		Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)
}

func TestSelectWinningQuotation_NoRequestLines(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	engineer := testutil.CreateTestUser(t, db, "engineer", domain.RoleEngineer, 0)

	// A lump-sum service request carries no item lines
	request := &domain.MaterialRequest{
		ProjectID:   project.ID,
		RequesterID: engineer.ID,
		Status:      domain.RequestStatusApprovedTechnical,
	}
	require.NoError(t, db.Create(request).Error)

	ctx := contextForUser(engineer)
	rfq, err := svc.OpenRFQ(ctx, &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	quote, err := svc.RecordQuotation(ctx, &domain.RecordQuotationRequest{
		RFQID: &rfq.ID, SupplierID: supplier.ID, TotalAmount: 12000,
	})
	require.NoError(t, err)

	order, err := svc.SelectWinningQuotation(ctx, rfq.ID, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 12000.0, order.TotalAmount)
	assert.Empty(t, order.Lines)
}

func TestCreatePurchaseOrder_WithQuotationReference(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	request, engineer := approvedRequest(t, svc, db, project, []*domain.Item{item}, []float64{100})

	ctx := contextForUser(engineer)
	rfq, err := svc.OpenRFQ(ctx, &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	quote, err := svc.RecordQuotation(ctx, &domain.RecordQuotationRequest{
		RFQID: &rfq.ID, SupplierID: supplier.ID, TotalAmount: 2500,
	})
	require.NoError(t, err)

	// Direct order with explicit line prices, tracing back to the quote
	order, err := svc.CreatePurchaseOrder(ctx, &domain.CreatePurchaseOrderRequest{
		ProjectID:         project.ID,
		SupplierID:        supplier.ID,
		MaterialRequestID: &request.ID,
		QuotationID:       &quote.ID,
		Lines:             []domain.CreatePOLineRequest{{ItemID: item.ID, Quantity: 100, Price: 25}},
	})
	require.NoError(t, err)
	require.NotNil(t, order.MaterialRequestID)
	assert.Equal(t, request.ID, *order.MaterialRequestID)
	require.NotNil(t, order.QuotationID)
	assert.Equal(t, quote.ID, *order.QuotationID)

	// The referenced quote is marked selected and its RFQ closed
	reloadedRFQ, err := svc.GetRFQ(ctx, rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RFQStatusClosed, reloadedRFQ.Status)
	require.Len(t, reloadedRFQ.Quotations, 1)
	assert.True(t, reloadedRFQ.Quotations[0].Selected)
}

func TestCreatePurchaseOrder_UnknownQuotation(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)

	missing := uuid.New()
	_, err := svc.CreatePurchaseOrder(contextForUser(admin), &domain.CreatePurchaseOrderRequest{
		ProjectID:   project.ID,
		SupplierID:  supplier.ID,
		QuotationID: &missing,
		Lines:       []domain.CreatePOLineRequest{{ItemID: item.ID, Quantity: 1, Price: 25}},
	})
	assert.ErrorIs(t, err, service.ErrNotFound)

	var orderCount int64
	require.NoError(t, db.Model(&domain.PurchaseOrder{}).Count(&orderCount).Error)
	assert.EqualValues(t, 0, orderCount)
}

func TestCreatePurchaseOrder_UnknownMaterialRequest(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)

	missing := uuid.New()
	_, err := svc.CreatePurchaseOrder(contextForUser(admin), &domain.CreatePurchaseOrderRequest{
		ProjectID:         project.ID,
		SupplierID:        supplier.ID,
		MaterialRequestID: &missing,
		Lines:             []domain.CreatePOLineRequest{{ItemID: item.ID, Quantity: 1, Price: 25}},
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestApprovePurchaseOrder_RoleMatrix(t *testing.T) {
	cases := []struct {
		name      string
		role      domain.UserRole
		limit     float64
		amount    float64
		forbidden bool
	}{
		{"admin approves any amount", domain.RoleAdmin, 0, 1000000, false},
		{"general manager approves any amount", domain.RoleGeneralManager, 0, 1000000, false},
		{"procurement manager within limit", domain.RoleProcurementManager, 50000, 40000, false},
		{"procurement manager over limit", domain.RoleProcurementManager, 50000, 60000, true},
		{"supervisor never approves", domain.RoleSupervisor, 1000000, 10, true},
		{"engineer never approves", domain.RoleEngineer, 1000000, 10, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, db := newProcurementService(t)
			project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
			supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
			item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
			approver := testutil.CreateTestUser(t, db, "approver", tc.role, tc.limit)

			order, err := svc.CreatePurchaseOrder(contextForUser(approver), &domain.CreatePurchaseOrderRequest{
				ProjectID:  project.ID,
				SupplierID: supplier.ID,
				Lines: []domain.CreatePOLineRequest{
					{ItemID: item.ID, Quantity: 1, Price: tc.amount},
				},
			})
			require.NoError(t, err)

			approved, err := svc.ApprovePurchaseOrder(contextForUser(approver), order.ID)
			if tc.forbidden {
				var forbidden *policy.ForbiddenError
				assert.ErrorAs(t, err, &forbidden)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.POStatusApproved, approved.Status)
			require.NotNil(t, approved.ApprovedByID)
			assert.Equal(t, approver.ID, *approved.ApprovedByID)
			assert.NotNil(t, approved.ApprovedAt)
		})
	}
}

func TestApprovePurchaseOrder_AlreadyApproved(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)

	ctx := contextForUser(admin)
	order, err := svc.CreatePurchaseOrder(ctx, &domain.CreatePurchaseOrderRequest{
		ProjectID:  project.ID,
		SupplierID: supplier.ID,
		Lines:      []domain.CreatePOLineRequest{{ItemID: item.ID, Quantity: 10, Price: 25}},
	})
	require.NoError(t, err)

	_, err = svc.ApprovePurchaseOrder(ctx, order.ID)
	require.NoError(t, err)

	_, err = svc.ApprovePurchaseOrder(ctx, order.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

// sentOrder creates and approves an order, then marks it sent
func sentOrder(t *testing.T, svc *service.ProcurementService, ctx context.Context, project *domain.Project, supplier *domain.Supplier, lines []domain.CreatePOLineRequest) *domain.PurchaseOrderDTO {
	t.Helper()
	order, err := svc.CreatePurchaseOrder(ctx, &domain.CreatePurchaseOrderRequest{
		ProjectID:  project.ID,
		SupplierID: supplier.ID,
		Lines:      lines,
	})
	require.NoError(t, err)
	_, err = svc.ApprovePurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	sent, err := svc.SendPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.POStatusSentToSupplier, sent.Status)
	return sent
}

func TestRecordReceipt_PartialThenFull(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order := sentOrder(t, svc, ctx, project, supplier, []domain.CreatePOLineRequest{
		{ItemID: item.ID, Quantity: 100, Price: 25},
	})

	receipt, err := svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: item.ID, Quantity: 40}},
	})
	require.NoError(t, err)
	require.Len(t, receipt.Lines, 1)

	partial, err := svc.GetPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusPartiallyReceived, partial.Status)
	assert.Equal(t, 40.0, partial.Lines[0].ReceivedQuantity)

	_, err = svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: item.ID, Quantity: 60}},
	})
	require.NoError(t, err)

	full, err := svc.GetPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusReceived, full.Status)
	assert.Equal(t, 100.0, full.Lines[0].ReceivedQuantity)

	receipts, err := svc.ListReceipts(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, receipts, 2)
}

func TestRecordReceipt_OverReceiptRejectsWholeReceipt(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	cement := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	steel := testutil.CreateTestItem(t, db, "STL-001", "Rebar", 80)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order := sentOrder(t, svc, ctx, project, supplier, []domain.CreatePOLineRequest{
		{ItemID: cement.ID, Quantity: 100, Price: 25},
		{ItemID: steel.ID, Quantity: 40, Price: 80},
	})

	// Second line over-receives, so the first line must not be booked either
	_, err := svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{
			{ItemID: cement.ID, Quantity: 50},
			{ItemID: steel.ID, Quantity: 41},
		},
	})
	var exceeded *policy.QuantityExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, steel.ID, exceeded.ItemID)

	reloaded, err := svc.GetPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusSentToSupplier, reloaded.Status)
	for _, line := range reloaded.Lines {
		assert.Equal(t, 0.0, line.ReceivedQuantity)
	}

	receipts, err := svc.ListReceipts(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestRecordReceipt_MixedLinesRemainderThenOverflow(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	cement := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	steel := testutil.CreateTestItem(t, db, "STL-001", "Rebar", 80)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order := sentOrder(t, svc, ctx, project, supplier, []domain.CreatePOLineRequest{
		{ItemID: cement.ID, Quantity: 100, Price: 25},
		{ItemID: steel.ID, Quantity: 50, Price: 80},
	})

	// First delivery: all of the cement, part of the steel
	_, err := svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{
			{ItemID: cement.ID, Quantity: 100},
			{ItemID: steel.ID, Quantity: 20},
		},
	})
	require.NoError(t, err)

	partial, err := svc.GetPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusPartiallyReceived, partial.Status)

	// Second delivery: the exact steel remainder completes the order
	_, err = svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: steel.ID, Quantity: 30}},
	})
	require.NoError(t, err)

	full, err := svc.GetPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusReceived, full.Status)

	// A fully received order accepts nothing more
	_, err = svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: steel.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestRecordReceipt_UnknownItem(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	other := testutil.CreateTestItem(t, db, "STL-001", "Rebar", 80)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order := sentOrder(t, svc, ctx, project, supplier, []domain.CreatePOLineRequest{
		{ItemID: item.ID, Quantity: 100, Price: 25},
	})

	_, err := svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: other.ID, Quantity: 5}},
	})
	var unknown *policy.UnknownItemError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, other.ID, unknown.ItemID)
}

func TestRecordReceipt_PendingOrderRejected(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order, err := svc.CreatePurchaseOrder(ctx, &domain.CreatePurchaseOrderRequest{
		ProjectID:  project.ID,
		SupplierID: supplier.ID,
		Lines:      []domain.CreatePOLineRequest{{ItemID: item.ID, Quantity: 10, Price: 25}},
	})
	require.NoError(t, err)

	_, err = svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: item.ID, Quantity: 5}},
	})
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestRecordReceipt_RollsUpProjectBOQ(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	boq := &domain.ProjectBOQ{ProjectID: project.ID, ItemID: item.ID, TotalQuantity: 500}
	require.NoError(t, db.Create(boq).Error)

	order := sentOrder(t, svc, ctx, project, supplier, []domain.CreatePOLineRequest{
		{ItemID: item.ID, Quantity: 100, Price: 25},
	})

	_, err := svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: item.ID, Quantity: 30}},
	})
	require.NoError(t, err)

	var reloaded domain.ProjectBOQ
	require.NoError(t, db.First(&reloaded, "id = ?", boq.ID).Error)
	assert.Equal(t, 30.0, reloaded.ReceivedQuantity)
}

func TestCancelPurchaseOrder(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order, err := svc.CreatePurchaseOrder(ctx, &domain.CreatePurchaseOrderRequest{
		ProjectID:  project.ID,
		SupplierID: supplier.ID,
		Lines:      []domain.CreatePOLineRequest{{ItemID: item.ID, Quantity: 10, Price: 25}},
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusCancelled, cancelled.Status)

	_, err = svc.CancelPurchaseOrder(ctx, order.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestCancelPurchaseOrder_AfterReceiptRejected(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order := sentOrder(t, svc, ctx, project, supplier, []domain.CreatePOLineRequest{
		{ItemID: item.ID, Quantity: 10, Price: 25},
	})
	_, err := svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: item.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	_, err = svc.CancelPurchaseOrder(ctx, order.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestPostInvoice_MatchWithinTolerance(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order := sentOrder(t, svc, ctx, project, supplier, []domain.CreatePOLineRequest{
		{ItemID: item.ID, Quantity: 100, Price: 25},
	})
	_, err := svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: item.ID, Quantity: 100}},
	})
	require.NoError(t, err)

	// GRN value is 2500; 2580 is within the 100 tolerance
	invoice, err := svc.PostInvoice(ctx, &domain.PostInvoiceRequest{
		PurchaseOrderID:       order.ID,
		SupplierInvoiceNumber: "INV-2026-001",
		TotalAmount:           2580,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusMatched, invoice.Status)
	assert.Contains(t, invoice.MatchDetails, "Success")
}

func TestPostInvoice_MismatchAndRematch(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	order := sentOrder(t, svc, ctx, project, supplier, []domain.CreatePOLineRequest{
		{ItemID: item.ID, Quantity: 100, Price: 25},
	})

	// Nothing received yet, so the full invoice amount is a mismatch
	invoice, err := svc.PostInvoice(ctx, &domain.PostInvoiceRequest{
		PurchaseOrderID: order.ID,
		TotalAmount:     2500,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusMismatch, invoice.Status)

	// After the goods arrive, rerunning the match flips the verdict
	_, err = svc.RecordReceipt(ctx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: item.ID, Quantity: 100}},
	})
	require.NoError(t, err)

	rematched, err := svc.RematchInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusMatched, rematched.Status)

	// Rematching an unchanged order is idempotent
	again, err := svc.RematchInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, rematched.Status, again.Status)
	assert.Equal(t, rematched.MatchDetails, again.MatchDetails)
}

func TestCloseExpiredRFQs(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	request, engineer := approvedRequest(t, svc, db, project, []*domain.Item{item}, []float64{100})

	ctx := contextForUser(engineer)
	rfq, err := svc.OpenRFQ(ctx, &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	// Not yet expired
	closed, err := svc.CloseExpiredRFQs(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, closed)

	closed, err = svc.CloseExpiredRFQs(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	reloaded, err := svc.GetRFQ(ctx, rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RFQStatusClosed, reloaded.Status)

	// The sweep is idempotent
	closed, err = svc.CloseExpiredRFQs(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
}

func TestListPurchaseOrders_Filters(t *testing.T) {
	svc, db := newProcurementService(t)
	projectA := testutil.CreateTestProject(t, db, "PRJ-A", "Tower A", 1000000)
	projectB := testutil.CreateTestProject(t, db, "PRJ-B", "Tower B", 1000000)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	admin := testutil.CreateTestUser(t, db, "admin", domain.RoleAdmin, 0)
	ctx := contextForUser(admin)

	for _, project := range []*domain.Project{projectA, projectA, projectB} {
		_, err := svc.CreatePurchaseOrder(ctx, &domain.CreatePurchaseOrderRequest{
			ProjectID:  project.ID,
			SupplierID: supplier.ID,
			Lines:      []domain.CreatePOLineRequest{{ItemID: item.ID, Quantity: 1, Price: 100}},
		})
		require.NoError(t, err)
	}

	orders, total, err := svc.ListPurchaseOrders(ctx, 1, 20, &projectA.ID, nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 2)

	pending := domain.POStatusPendingApproval
	_, total, err = svc.ListPurchaseOrders(ctx, 1, 20, nil, nil, &pending)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestProcurementLifecycle_EndToEnd(t *testing.T) {
	svc, db := newProcurementService(t)
	project := testutil.CreateTestProject(t, db, "PRJ-1", "Tower A", 1000000)
	item := testutil.CreateTestItem(t, db, "CEM-001", "Cement", 25)
	supplier := testutil.CreateTestSupplier(t, db, "Al Riyadh Trading")
	engineer := testutil.CreateTestUser(t, db, "engineer", domain.RoleEngineer, 0)
	manager := testutil.CreateTestUser(t, db, "manager", domain.RoleProcurementManager, 50000)

	engCtx := contextForUser(engineer)
	mgrCtx := contextForUser(manager)

	// A single line of quantity 1 so the evenly-allocated line price equals
	// the quoted lump sum and a full receipt values the goods at exactly 4800.
	request, err := svc.CreateMaterialRequest(engCtx, &domain.CreateMaterialRequestRequest{
		ProjectID: project.ID,
		Lines:     []domain.CreateRequestLineRequest{{ItemID: item.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.ReviewMaterialRequest(mgrCtx, request.ID, &domain.ReviewMaterialRequestRequest{Approve: true})
	require.NoError(t, err)

	rfq, err := svc.OpenRFQ(mgrCtx, &domain.OpenRFQRequest{
		MaterialRequestID: request.ID,
		Deadline:          time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)

	quote, err := svc.RecordQuotation(mgrCtx, &domain.RecordQuotationRequest{
		RFQID:       &rfq.ID,
		SupplierID:  supplier.ID,
		TotalAmount: 4800,
	})
	require.NoError(t, err)

	order, err := svc.SelectWinningQuotation(mgrCtx, rfq.ID, quote.ID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 4800.0, order.Lines[0].Price)

	_, err = svc.ApprovePurchaseOrder(mgrCtx, order.ID)
	require.NoError(t, err)
	_, err = svc.SendPurchaseOrder(mgrCtx, order.ID)
	require.NoError(t, err)

	_, err = svc.RecordReceipt(engCtx, order.ID, &domain.RecordReceiptRequest{
		Lines: []domain.ReceiptLineRequest{{ItemID: item.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	invoice, err := svc.PostInvoice(mgrCtx, &domain.PostInvoiceRequest{
		PurchaseOrderID:       order.ID,
		SupplierInvoiceNumber: "INV-4711",
		TotalAmount:           4800,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusMatched, invoice.Status)

	final, err := svc.GetPurchaseOrder(mgrCtx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusReceived, final.Status)

	// The whole trail is audited
	var auditCount int64
	require.NoError(t, db.Model(&domain.AuditLog{}).
		Where("category = ?", domain.AuditCategoryProcurement).
		Count(&auditCount).Error)
	assert.GreaterOrEqual(t, auditCount, int64(8))
}
