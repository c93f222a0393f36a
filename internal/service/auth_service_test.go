package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/itqan-erp/procurement-api/internal/auth"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"github.com/itqan-erp/procurement-api/internal/service"
	"github.com/itqan-erp/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*service.AuthService, *gorm.DB, *auth.TokenManager) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tokens := auth.NewTokenManager("test-secret-key", "procurement-api", time.Hour)
	svc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewAuditLogRepository(db),
		tokens,
		zap.NewNop(),
	)
	return svc, db, tokens
}

func TestLogin(t *testing.T) {
	svc, db, tokens := newAuthService(t)
	user := testutil.CreateTestUser(t, db, "fatima", domain.RoleProcurementManager, 50000)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, domain.RoleProcurementManager, resp.User.Role)

	uc, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uc.UserID)
	assert.Equal(t, user.Email, uc.Email)
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	svc, db, _ := newAuthService(t)
	testutil.CreateTestUser(t, db, "fatima", domain.RoleAdmin, 0)

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "FATIMA@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, db, _ := newAuthService(t)
	user := testutil.CreateTestUser(t, db, "fatima", domain.RoleAdmin, 0)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    user.Email,
		Password: "not-the-password",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, db, _ := newAuthService(t)
	user := testutil.CreateTestUser(t, db, "fatima", domain.RoleAdmin, 0)
	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", user.ID).
		Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_WritesAuditTrail(t *testing.T) {
	svc, db, _ := newAuthService(t)
	user := testutil.CreateTestUser(t, db, "fatima", domain.RoleAdmin, 0)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    user.Email,
		Password: "password123",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.AuditLog{}).
		Where("action = ? AND category = ?", "LOGIN", domain.AuditCategoryAuth).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
