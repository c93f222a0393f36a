package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// RFQRepository handles request-for-quotation data access operations
type RFQRepository struct {
	db *gorm.DB
}

// NewRFQRepository creates a new RFQ repository instance
func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

// Create creates a new RFQ in the database
func (r *RFQRepository) Create(ctx context.Context, rfq *domain.RFQ) error {
	return r.db.WithContext(ctx).Create(rfq).Error
}

// GetByID retrieves an RFQ with its quotations and suppliers preloaded
func (r *RFQRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RFQ, error) {
	var rfq domain.RFQ
	err := r.db.WithContext(ctx).
		Preload("Quotations.Supplier").
		Preload("MaterialRequest").
		Where("id = ?", id).
		First(&rfq).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}

// GetForUpdate retrieves an RFQ with its quotations inside the given
// transaction, holding a row lock where the dialect supports it. Winner
// selection reads the status and writes the outcome under this lock.
func (r *RFQRepository) GetForUpdate(tx *gorm.DB, id uuid.UUID) (*domain.RFQ, error) {
	var rfq domain.RFQ
	err := lockForUpdate(tx).
		Preload("Quotations").
		Where("id = ?", id).
		First(&rfq).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}

// Update updates an existing RFQ in the database
func (r *RFQRepository) Update(ctx context.Context, rfq *domain.RFQ) error {
	return r.db.WithContext(ctx).Save(rfq).Error
}

// List returns a paginated list of RFQs, optionally filtered by status
func (r *RFQRepository) List(ctx context.Context, page, pageSize int, status *domain.RFQStatus) ([]domain.RFQ, int64, error) {
	var rfqs []domain.RFQ
	var total int64

	page, pageSize = normalizePage(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.RFQ{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Quotations.Supplier").
		Offset(offset).Limit(pageSize).Order("created_at DESC").
		Find(&rfqs).Error

	return rfqs, total, err
}

// CountOpenByRequest counts open RFQs attached to a material request
func (r *RFQRepository) CountOpenByRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RFQ{}).
		Where("material_request_id = ?", requestID).
		Where("status = ?", domain.RFQStatusOpen).
		Count(&count).Error
	return count, err
}

// ListExpired returns open RFQs whose deadline has passed
func (r *RFQRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.RFQ, error) {
	var rfqs []domain.RFQ
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.RFQStatusOpen).
		Where("deadline < ?", now).
		Find(&rfqs).Error
	return rfqs, err
}
