package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// purchaseOrderSortableFields maps API field names to database column names
var purchaseOrderSortableFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"status":      "status",
	"totalAmount": "total_amount",
}

// PurchaseOrderRepository handles purchase order data access operations
type PurchaseOrderRepository struct {
	db *gorm.DB
}

// NewPurchaseOrderRepository creates a new purchase order repository instance
func NewPurchaseOrderRepository(db *gorm.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

// Create creates a purchase order together with its lines
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *domain.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

// GetByID retrieves a purchase order with its full aggregate preloaded:
// lines with items, receipts with lines, project and supplier. Approval,
// receipt and matching all operate on this shape.
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Lines.Item").
		Preload("Receipts.Lines").
		Preload("Project").
		Preload("Supplier").
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// GetForUpdate retrieves a purchase order with its lines inside the given
// transaction, holding a row lock where the dialect supports it. Use this
// for receipt and approval flows that read-modify-write quantities.
func (r *PurchaseOrderRepository) GetForUpdate(tx *gorm.DB, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := lockForUpdate(tx).
		Preload("Lines").
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// Update updates an existing purchase order in the database
func (r *PurchaseOrderRepository) Update(ctx context.Context, po *domain.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

// List returns a paginated list of purchase orders, optionally filtered by
// project, supplier and status
func (r *PurchaseOrderRepository) List(ctx context.Context, page, pageSize int, projectID, supplierID *uuid.UUID, status *domain.POStatus, sort SortConfig) ([]domain.PurchaseOrder, int64, error) {
	var orders []domain.PurchaseOrder
	var total int64

	page, pageSize = normalizePage(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{})
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, purchaseOrderSortableFields, "created_at")

	offset := (page - 1) * pageSize
	err := query.
		Preload("Lines.Item").
		Preload("Project").
		Preload("Supplier").
		Offset(offset).Limit(pageSize).Order(orderClause).
		Find(&orders).Error

	return orders, total, err
}
