package service

import (
	"context"
	"fmt"

	"github.com/itqan-erp/procurement-api/internal/auth"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/mapper"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles login and credential checks
type AuthService struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditLogRepository
	tokens    *auth.TokenManager
	logger    *zap.Logger
}

// NewAuthService creates a new auth service instance
func NewAuthService(userRepo *repository.UserRepository, auditRepo *repository.AuditLogRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		tokens:    tokens,
		logger:    logger,
	}
}

// Login verifies credentials and returns a signed token with the user profile
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login failed", zap.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	entry := &domain.AuditLog{
		UserID:   &user.ID,
		UserName: user.Name,
		Action:   "LOGIN",
		Details:  fmt.Sprintf("User %s logged in", user.Email),
		Category: domain.AuditCategoryAuth,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.Error(err))
	}

	return &domain.LoginResponse{
		Token: token,
		User:  mapper.ToUserDTO(user),
	}, nil
}

// HashPassword hashes a plaintext password for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
