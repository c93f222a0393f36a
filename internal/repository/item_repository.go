package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// itemSortableFields maps API field names to database column names for items
var itemSortableFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"sku":       "sku",
	"basePrice": "base_price",
	"category":  "category",
}

// ItemRepository handles catalog item data access operations
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository instance
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new item in the database
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID retrieves an item by its ID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	var item domain.Item
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDs retrieves items for a set of IDs
func (r *ItemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Item, error) {
	var items []domain.Item
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// GetBySKU finds an item by SKU, nil when none exists
func (r *ItemRepository) GetBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	var item domain.Item
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Update updates an existing item in the database
func (r *ItemRepository) Update(ctx context.Context, item *domain.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete removes an item
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Item{}, "id = ?", id).Error
}

// List returns a paginated list of items
func (r *ItemRepository) List(ctx context.Context, page, pageSize int, search, category string, sort SortConfig) ([]domain.Item, int64, error) {
	var items []domain.Item
	var total int64

	page, pageSize = normalizePage(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.Item{})
	if search != "" {
		searchPattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", searchPattern, searchPattern)
	}
	if category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, itemSortableFields, "name")

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order(orderClause).Find(&items).Error

	return items, total, err
}
