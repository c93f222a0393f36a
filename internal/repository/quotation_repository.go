package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// QuotationRepository handles supplier quotation data access operations
type QuotationRepository struct {
	db *gorm.DB
}

// NewQuotationRepository creates a new quotation repository instance
func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// Create creates a new quotation in the database
func (r *QuotationRepository) Create(ctx context.Context, q *domain.Quotation) error {
	return r.db.WithContext(ctx).Create(q).Error
}

// GetByID retrieves a quotation with its supplier preloaded
func (r *QuotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	var q domain.Quotation
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("RFQ").
		Where("id = ?", id).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Update updates an existing quotation in the database
func (r *QuotationRepository) Update(ctx context.Context, q *domain.Quotation) error {
	return r.db.WithContext(ctx).Save(q).Error
}

// ListByRFQ returns every quotation recorded against an RFQ
func (r *QuotationRepository) ListByRFQ(ctx context.Context, rfqID uuid.UUID) ([]domain.Quotation, error) {
	var quotes []domain.Quotation
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("rfq_id = ?", rfqID).
		Order("total_amount ASC").
		Find(&quotes).Error
	return quotes, err
}

// HasSelectedForRFQ reports whether any quotation on the RFQ is already
// marked as the winner
func (r *QuotationRepository) HasSelectedForRFQ(ctx context.Context, rfqID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Where("rfq_id = ?", rfqID).
		Where("is_selected = ?", true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
