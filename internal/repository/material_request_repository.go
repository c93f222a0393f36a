package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// materialRequestSortableFields maps API field names to database column names
var materialRequestSortableFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"status":    "status",
}

// MaterialRequestRepository handles material request data access operations
type MaterialRequestRepository struct {
	db *gorm.DB
}

// NewMaterialRequestRepository creates a new material request repository instance
func NewMaterialRequestRepository(db *gorm.DB) *MaterialRequestRepository {
	return &MaterialRequestRepository{db: db}
}

// Create creates a material request together with its lines
func (r *MaterialRequestRepository) Create(ctx context.Context, req *domain.MaterialRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetByID retrieves a material request with lines, items, project and
// requester preloaded. Lifecycle decisions need the full aggregate, so this
// is the only read path.
func (r *MaterialRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaterialRequest, error) {
	var req domain.MaterialRequest
	err := r.db.WithContext(ctx).
		Preload("Lines.Item").
		Preload("Project").
		Preload("Requester").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetForUpdate retrieves a material request with its lines inside the given
// transaction, holding a row lock where the dialect supports it.
func (r *MaterialRequestRepository) GetForUpdate(tx *gorm.DB, id uuid.UUID) (*domain.MaterialRequest, error) {
	var req domain.MaterialRequest
	err := lockForUpdate(tx).
		Preload("Lines").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Update updates an existing material request in the database
func (r *MaterialRequestRepository) Update(ctx context.Context, req *domain.MaterialRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// List returns a paginated list of material requests, optionally filtered by
// project and status
func (r *MaterialRequestRepository) List(ctx context.Context, page, pageSize int, projectID *uuid.UUID, status *domain.RequestStatus, sort SortConfig) ([]domain.MaterialRequest, int64, error) {
	var requests []domain.MaterialRequest
	var total int64

	page, pageSize = normalizePage(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.MaterialRequest{})
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, materialRequestSortableFields, "created_at")

	offset := (page - 1) * pageSize
	err := query.
		Preload("Lines.Item").
		Preload("Project").
		Preload("Requester").
		Offset(offset).Limit(pageSize).Order(orderClause).
		Find(&requests).Error

	return requests, total, err
}
