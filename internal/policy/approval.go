// Package policy holds the pure procurement decision rules: purchase order
// approval authority, receipt quantity reconciliation, and three-way invoice
// matching. Nothing here touches the database; services load the aggregates
// and call in.
package policy

import (
	"fmt"

	"github.com/itqan-erp/procurement-api/internal/domain"
)

// ForbiddenError is returned when a user lacks the authority to approve a
// purchase order of the given amount.
type ForbiddenError struct {
	Role   domain.UserRole
	Amount float64
	Limit  float64
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %s cannot approve order of %.2f (limit %.2f)", e.Role, e.Amount, e.Limit)
}

// RoleCapability classifies a role's purchase order approval authority.
type RoleCapability int

const (
	// ApproveWithinLimit approves amounts up to the user's personal limit.
	ApproveWithinLimit RoleCapability = iota
	// ApproveUnlimited approves any amount, regardless of the limit.
	ApproveUnlimited
	// ApproveNever denies approval, regardless of the limit.
	ApproveNever
)

// roleCapabilities is the approval authority table. Roles not listed fall
// back to ApproveWithinLimit.
var roleCapabilities = map[domain.UserRole]RoleCapability{
	domain.RoleAdmin:          ApproveUnlimited,
	domain.RoleGeneralManager: ApproveUnlimited,
	domain.RoleSupervisor:     ApproveNever,
	domain.RoleEngineer:       ApproveNever,
}

// CapabilityFor returns the approval capability of a role.
func CapabilityFor(role domain.UserRole) RoleCapability {
	if c, ok := roleCapabilities[role]; ok {
		return c
	}
	return ApproveWithinLimit
}

// CanApprove decides whether user may approve a purchase order of the given
// amount. The role capability wins over the limit in both directions: a
// GENERAL_MANAGER with limit 0 still approves, an ENGINEER with a huge limit
// still does not.
func CanApprove(user *domain.User, amount float64) error {
	switch CapabilityFor(user.Role) {
	case ApproveUnlimited:
		return nil
	case ApproveNever:
		return &ForbiddenError{Role: user.Role, Amount: amount, Limit: 0}
	}
	if amount > user.ApprovalLimit {
		return &ForbiddenError{Role: user.Role, Amount: amount, Limit: user.ApprovalLimit}
	}
	return nil
}
