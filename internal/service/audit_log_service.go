package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/mapper"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"go.uber.org/zap"
)

// AuditLogService exposes the audit trail for administrators
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// List returns a page of audit log entries matching the filter
func (s *AuditLogService) List(ctx context.Context, filter *repository.AuditLogFilter, page, pageSize int) ([]domain.AuditLogDTO, int64, error) {
	logs, total, err := s.auditRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToAuditLogDTO(&logs[i])
	}
	return dtos, total, nil
}

// ListByUser returns a page of audit log entries for a single user
func (s *AuditLogService) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.AuditLogDTO, int64, error) {
	return s.List(ctx, &repository.AuditLogFilter{UserID: &userID}, page, pageSize)
}

// Purge removes audit log entries older than the given cutoff
func (s *AuditLogService) Purge(ctx context.Context, before time.Time) (int64, error) {
	removed, err := s.auditRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit logs: %w", err)
	}
	if removed > 0 {
		s.logger.Info("purged audit logs", zap.Int64("removed", removed), zap.Time("before", before))
	}
	return removed, nil
}
