package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidState is returned when a lifecycle operation targets an
	// aggregate in the wrong status
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email already in use")

	// ErrSupplierHasOpenOrders is returned when deleting a supplier with
	// orders still in flight
	ErrSupplierHasOpenOrders = errors.New("supplier has open purchase orders")
)
