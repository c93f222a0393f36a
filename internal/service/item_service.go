package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/mapper"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ItemService handles business logic for catalog items
type ItemService struct {
	itemRepo *repository.ItemRepository
	logger   *zap.Logger
}

// NewItemService creates a new item service instance
func NewItemService(itemRepo *repository.ItemRepository, logger *zap.Logger) *ItemService {
	return &ItemService{itemRepo: itemRepo, logger: logger}
}

// Create registers a new catalog item. SKUs are unique when given.
func (s *ItemService) Create(ctx context.Context, req *domain.CreateItemRequest) (*domain.ItemDTO, error) {
	if req.SKU != "" {
		existing, err := s.itemRepo.GetBySKU(ctx, req.SKU)
		if err != nil {
			return nil, fmt.Errorf("failed to look up sku: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: sku %s already exists", ErrConflict, req.SKU)
		}
	}

	item := &domain.Item{
		SKU:       req.SKU,
		Name:      req.Name,
		Unit:      req.Unit,
		BasePrice: req.BasePrice,
		Category:  req.Category,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("item created", zap.String("itemID", item.ID.String()), zap.String("sku", item.SKU))

	dto := mapper.ToItemDTO(item)
	return &dto, nil
}

// Get returns one item
func (s *ItemService) Get(ctx context.Context, id uuid.UUID) (*domain.ItemDTO, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	dto := mapper.ToItemDTO(item)
	return &dto, nil
}

// Update applies a partial update to an item
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateItemRequest) (*domain.ItemDTO, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.BasePrice != nil {
		item.BasePrice = *req.BasePrice
	}
	if req.Category != nil {
		item.Category = *req.Category
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	dto := mapper.ToItemDTO(item)
	return &dto, nil
}

// List returns a page of items
func (s *ItemService) List(ctx context.Context, page, pageSize int, search, category string) ([]domain.ItemDTO, int64, error) {
	items, total, err := s.itemRepo.List(ctx, page, pageSize, search, category, repository.DefaultSortConfig())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	dtos := make([]domain.ItemDTO, len(items))
	for i := range items {
		dtos[i] = mapper.ToItemDTO(&items[i])
	}
	return dtos, total, nil
}
