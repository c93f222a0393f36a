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

// SupplierService handles business logic for suppliers
type SupplierService struct {
	supplierRepo *repository.SupplierRepository
	logger       *zap.Logger
}

// NewSupplierService creates a new supplier service instance
func NewSupplierService(supplierRepo *repository.SupplierRepository, logger *zap.Logger) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo, logger: logger}
}

// Create registers a new supplier. Rating defaults to 5.0 when not given.
func (s *SupplierService) Create(ctx context.Context, req *domain.CreateSupplierRequest) (*domain.SupplierDTO, error) {
	rating := req.Rating
	if rating == 0 {
		rating = 5.0
	}

	supplier := &domain.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Rating:        rating,
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	s.logger.Info("supplier created", zap.String("supplierID", supplier.ID.String()))

	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// Get returns one supplier
func (s *SupplierService) Get(ctx context.Context, id uuid.UUID) (*domain.SupplierDTO, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// Update applies a partial update to a supplier
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateSupplierRequest) (*domain.SupplierDTO, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = *req.ContactPerson
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Rating != nil {
		supplier.Rating = *req.Rating
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}

	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// Delete removes a supplier unless orders are still in flight against it
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.supplierRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: supplier %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get supplier: %w", err)
	}

	hasOpen, err := s.supplierRepo.HasOpenOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check supplier orders: %w", err)
	}
	if hasOpen {
		return ErrSupplierHasOpenOrders
	}

	return s.supplierRepo.Delete(ctx, id)
}

// List returns a page of suppliers
func (s *SupplierService) List(ctx context.Context, page, pageSize int, search string) ([]domain.SupplierDTO, int64, error) {
	suppliers, total, err := s.supplierRepo.List(ctx, page, pageSize, search, repository.DefaultSortConfig())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list suppliers: %w", err)
	}
	dtos := make([]domain.SupplierDTO, len(suppliers))
	for i := range suppliers {
		dtos[i] = mapper.ToSupplierDTO(&suppliers[i])
	}
	return dtos, total, nil
}
