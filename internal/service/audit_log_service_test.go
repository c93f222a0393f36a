package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"github.com/itqan-erp/procurement-api/internal/service"
	"github.com/itqan-erp/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuditLogService(t *testing.T) (*service.AuditLogService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := service.NewAuditLogService(repository.NewAuditLogRepository(db), zap.NewNop())
	return svc, db
}

func createAuditEntry(t *testing.T, db *gorm.DB, userID *uuid.UUID, action string, category domain.AuditCategory) {
	t.Helper()
	require.NoError(t, db.Create(&domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  action + " happened",
	}).Error)
}

func TestAuditLogList_CategoryFilter(t *testing.T) {
	svc, db := newAuditLogService(t)
	createAuditEntry(t, db, nil, "LOGIN", domain.AuditCategoryAuth)
	createAuditEntry(t, db, nil, "RFQ_OPENED", domain.AuditCategoryProcurement)
	createAuditEntry(t, db, nil, "PURCHASE_ORDER_APPROVED", domain.AuditCategoryProcurement)

	category := domain.AuditCategoryProcurement
	logs, total, err := svc.List(context.Background(), &repository.AuditLogFilter{Category: &category}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	for _, log := range logs {
		assert.Equal(t, domain.AuditCategoryProcurement, log.Category)
	}
}

func TestAuditLogList_ActionFilter(t *testing.T) {
	svc, db := newAuditLogService(t)
	createAuditEntry(t, db, nil, "LOGIN", domain.AuditCategoryAuth)
	createAuditEntry(t, db, nil, "RFQ_OPENED", domain.AuditCategoryProcurement)

	logs, total, err := svc.List(context.Background(), &repository.AuditLogFilter{Action: "LOGIN"}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "LOGIN", logs[0].Action)
}

func TestAuditLogListByUser(t *testing.T) {
	svc, db := newAuditLogService(t)
	alice := uuid.New()
	bob := uuid.New()
	createAuditEntry(t, db, &alice, "LOGIN", domain.AuditCategoryAuth)
	createAuditEntry(t, db, &alice, "RFQ_OPENED", domain.AuditCategoryProcurement)
	createAuditEntry(t, db, &bob, "LOGIN", domain.AuditCategoryAuth)
	createAuditEntry(t, db, nil, "SETTINGS_UPDATED", domain.AuditCategorySystem)

	logs, total, err := svc.ListByUser(context.Background(), alice, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	for _, log := range logs {
		require.NotNil(t, log.UserID)
		assert.Equal(t, alice, *log.UserID)
	}

	// Pagination carries through to the repository
	logs, total, err = svc.ListByUser(context.Background(), alice, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, logs, 1)
}

func TestAuditLogPurge(t *testing.T) {
	svc, db := newAuditLogService(t)
	createAuditEntry(t, db, nil, "OLD_ENTRY", domain.AuditCategorySystem)
	require.NoError(t, db.Model(&domain.AuditLog{}).
		Where("action = ?", "OLD_ENTRY").
		Update("created_at", time.Now().AddDate(0, 0, -100)).Error)
	createAuditEntry(t, db, nil, "FRESH_ENTRY", domain.AuditCategorySystem)

	removed, err := svc.Purge(context.Background(), time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, total, err := svc.List(context.Background(), nil, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
