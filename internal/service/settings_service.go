package service

import (
	"context"
	"fmt"

	"github.com/itqan-erp/procurement-api/internal/auth"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"go.uber.org/zap"
)

// SettingsService manages the singleton system settings row
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	auditRepo    *repository.AuditLogRepository
	logger       *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo *repository.SettingsRepository, auditRepo *repository.AuditLogRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		auditRepo:    auditRepo,
		logger:       logger,
	}
}

// Get returns the current system settings, creating defaults on first use
func (s *SettingsService) Get(ctx context.Context) (*domain.SystemSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get system settings: %w", err)
	}
	return settings, nil
}

// Update applies a partial update to the system settings
func (s *SettingsService) Update(ctx context.Context, req *domain.UpdateSystemSettingsRequest) (*domain.SystemSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get system settings: %w", err)
	}

	if req.CompanyName != nil {
		settings.CompanyName = *req.CompanyName
	}
	if req.TaxNumber != nil {
		settings.TaxNumber = *req.TaxNumber
	}
	if req.Currency != nil {
		settings.Currency = *req.Currency
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update system settings: %w", err)
	}

	s.audit(ctx, "SETTINGS_UPDATED", fmt.Sprintf("System settings updated, currency %s", settings.Currency))

	return settings, nil
}

func (s *SettingsService) audit(ctx context.Context, action, details string) {
	log := &domain.AuditLog{
		Action:   action,
		Category: domain.AuditCategorySystem,
		Details:  details,
	}
	if uc, ok := auth.FromContext(ctx); ok {
		log.UserID = &uc.UserID
		log.UserName = uc.DisplayName
	}
	if err := s.auditRepo.Create(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
