package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// projectSortableFields maps API field names to database column names for projects
var projectSortableFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"code":      "code",
	"budget":    "budget",
	"status":    "status",
}

// ProjectRepository handles project data access operations
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository instance
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project together with its BOQ lines
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetByID retrieves a project by its ID
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetWithBOQ retrieves a project with its bill-of-quantities lines preloaded
func (r *ProjectRepository) GetWithBOQ(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).
		Preload("BOQItems.Item").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Update updates an existing project in the database
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Project{}, "id = ?", id).Error
}

// List returns a paginated list of projects
func (r *ProjectRepository) List(ctx context.Context, page, pageSize int, search string, status *domain.ProjectStatus, sort SortConfig) ([]domain.Project, int64, error) {
	var projects []domain.Project
	var total int64

	page, pageSize = normalizePage(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.Project{})
	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", searchPattern, searchPattern)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, projectSortableFields, "updated_at")

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order(orderClause).Find(&projects).Error

	return projects, total, err
}

// AddSpent increments the project spend counter, kept informational only
func (r *ProjectRepository) AddSpent(ctx context.Context, id uuid.UUID, amount float64) error {
	return r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ?", id).
		Update("spent", gorm.Expr("spent + ?", amount)).Error
}

// AddBOQReceived increments the received quantity on a project BOQ line for
// the given item, no-op when the project has no BOQ line for it
func (r *ProjectRepository) AddBOQReceived(ctx context.Context, projectID, itemID uuid.UUID, qty float64) error {
	return r.db.WithContext(ctx).Model(&domain.ProjectBOQ{}).
		Where("project_id = ? AND item_id = ?", projectID, itemID).
		Update("received_quantity", gorm.Expr("received_quantity + ?", qty)).Error
}
