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

// DefaultApprovalLimit is the approval limit assigned to procurement roles
// when none is given at creation time.
const DefaultApprovalLimit = 50000

// UserService handles user management
type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service instance
func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// Create registers a new user with a hashed password
func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	role := domain.UserRole(req.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %s", ErrInvalidInput, req.Role)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	limit := req.ApprovalLimit
	if limit == 0 && (role == domain.RoleProcurementManager || role == domain.RoleQuantitySurveyor) {
		limit = DefaultApprovalLimit
	}

	user := &domain.User{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          role,
		ApprovalLimit: limit,
		IsActive:      true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", zap.String("userID", user.ID.String()), zap.String("role", string(user.Role)))

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Update applies a partial update to a user
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %s", ErrInvalidInput, *req.Role)
		}
		user.Role = role
	}
	if req.ApprovalLimit != nil {
		user.ApprovalLimit = *req.ApprovalLimit
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, page, pageSize int, search string) ([]domain.UserDTO, int64, error) {
	users, total, err := s.userRepo.List(ctx, page, pageSize, search, repository.DefaultSortConfig())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, total, nil
}
