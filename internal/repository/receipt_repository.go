package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// ReceiptRepository handles goods receipt data access operations
type ReceiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository instance
func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Create creates a receipt together with its lines
func (r *ReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

// GetByID retrieves a receipt with its lines preloaded
func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := r.db.WithContext(ctx).
		Preload("Lines.Item").
		Preload("ReceivedBy").
		Where("id = ?", id).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListByOrder returns every receipt recorded against a purchase order
func (r *ReceiptRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Receipt, error) {
	var receipts []domain.Receipt
	err := r.db.WithContext(ctx).
		Preload("Lines.Item").
		Preload("ReceivedBy").
		Where("purchase_order_id = ?", orderID).
		Order("received_at ASC").
		Find(&receipts).Error
	return receipts, err
}
