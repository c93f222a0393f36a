package service_test

import (
	"context"
	"testing"

	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/repository"
	"github.com/itqan-erp/procurement-api/internal/service"
	"github.com/itqan-erp/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSettingsService(t *testing.T) *service.SettingsService {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return service.NewSettingsService(
		repository.NewSettingsRepository(db),
		repository.NewAuditLogRepository(db),
		zap.NewNop(),
	)
}

func TestSettingsGet_CreatesDefaults(t *testing.T) {
	svc := newSettingsService(t)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "My Enterprise", settings.CompanyName)
	assert.Equal(t, "SAR", settings.Currency)
}

func TestSettingsUpdate_Partial(t *testing.T) {
	svc := newSettingsService(t)
	ctx := context.Background()

	name := "Itqan Contracting Co."
	updated, err := svc.Update(ctx, &domain.UpdateSystemSettingsRequest{CompanyName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.CompanyName)
	// Untouched fields keep their defaults
	assert.Equal(t, "SAR", updated.Currency)

	currency := "USD"
	updated, err = svc.Update(ctx, &domain.UpdateSystemSettingsRequest{Currency: &currency})
	require.NoError(t, err)
	assert.Equal(t, name, updated.CompanyName)
	assert.Equal(t, "USD", updated.Currency)
}
