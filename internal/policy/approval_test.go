package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itqan-erp/procurement-api/internal/domain"
)

func TestCanApprove_RoleMatrix(t *testing.T) {
	tests := []struct {
		name    string
		role    domain.UserRole
		limit   float64
		amount  float64
		allowed bool
	}{
		{"admin ignores limit", domain.RoleAdmin, 0, 1_000_000, true},
		{"general manager ignores limit", domain.RoleGeneralManager, 0, 1_000_000, true},
		{"supervisor always denied", domain.RoleSupervisor, 1_000_000, 10, false},
		{"engineer always denied", domain.RoleEngineer, 1_000_000, 10, false},
		{"procurement manager within limit", domain.RoleProcurementManager, 50_000, 50_000, true},
		{"procurement manager over limit", domain.RoleProcurementManager, 50_000, 50_000.01, false},
		{"quantity surveyor within limit", domain.RoleQuantitySurveyor, 20_000, 19_999, true},
		{"quantity surveyor over limit", domain.RoleQuantitySurveyor, 20_000, 20_001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &domain.User{Role: tt.role, ApprovalLimit: tt.limit}
			err := CanApprove(user, tt.amount)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCanApprove_ForbiddenErrorCarriesContext(t *testing.T) {
	user := &domain.User{Role: domain.RoleProcurementManager, ApprovalLimit: 1000}
	err := CanApprove(user, 2500)
	require.Error(t, err)

	var forbidden *ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	assert.Equal(t, domain.RoleProcurementManager, forbidden.Role)
	assert.Equal(t, 2500.0, forbidden.Amount)
	assert.Equal(t, 1000.0, forbidden.Limit)
}

func TestCapabilityFor(t *testing.T) {
	assert.Equal(t, ApproveUnlimited, CapabilityFor(domain.RoleAdmin))
	assert.Equal(t, ApproveUnlimited, CapabilityFor(domain.RoleGeneralManager))
	assert.Equal(t, ApproveNever, CapabilityFor(domain.RoleSupervisor))
	assert.Equal(t, ApproveNever, CapabilityFor(domain.RoleEngineer))
	assert.Equal(t, ApproveWithinLimit, CapabilityFor(domain.RoleProcurementManager))
	assert.Equal(t, ApproveWithinLimit, CapabilityFor(domain.RoleQuantitySurveyor))
}

func TestCanApprove_DenialDoesNotDependOnOrdering(t *testing.T) {
	// An engineer with a generous limit is still denied: role precedence
	// beats the amount check.
	user := &domain.User{Role: domain.RoleEngineer, ApprovalLimit: 1_000_000}
	assert.Error(t, CanApprove(user, 1))
}
