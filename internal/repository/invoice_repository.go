package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// InvoiceRepository handles supplier invoice data access operations
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create creates a new invoice in the database
func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// GetByID retrieves an invoice by its ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Update updates an existing invoice in the database
func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

// List returns a paginated list of invoices, optionally filtered by order
// and status
func (r *InvoiceRepository) List(ctx context.Context, page, pageSize int, orderID *uuid.UUID, status *domain.InvoiceStatus) ([]domain.Invoice, int64, error) {
	var invoices []domain.Invoice
	var total int64

	page, pageSize = normalizePage(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.Invoice{})
	if orderID != nil {
		query = query.Where("purchase_order_id = ?", *orderID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&invoices).Error

	return invoices, total, err
}
