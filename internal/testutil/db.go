// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/itqan-erp/procurement-api/internal/database"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory SQLite database and migrates the
// full schema into it. Each call returns a fresh database so tests do not
// share state.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test schema")

	return db
}

// CreateTestUser inserts a user with the given role and approval limit.
// The password for all test users is "password123".
func CreateTestUser(t *testing.T, db *gorm.DB, name string, role domain.UserRole, approvalLimit float64) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		Name:          name,
		Email:         name + "@example.com",
		PasswordHash:  string(hash),
		Role:          role,
		ApprovalLimit: approvalLimit,
		IsActive:      true,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}

// CreateTestSupplier inserts a supplier
func CreateTestSupplier(t *testing.T, db *gorm.DB, name string) *domain.Supplier {
	t.Helper()

	supplier := &domain.Supplier{
		Name:          name,
		ContactPerson: "Contact Person",
		Email:         "supplier@example.com",
		Phone:         "+966500000000",
		Rating:        5.0,
	}
	require.NoError(t, db.Create(supplier).Error)
	return supplier
}

// CreateTestItem inserts a catalog item
func CreateTestItem(t *testing.T, db *gorm.DB, sku, name string, basePrice float64) *domain.Item {
	t.Helper()

	item := &domain.Item{
		SKU:       sku,
		Name:      name,
		Unit:      "pcs",
		BasePrice: basePrice,
		Category:  "General",
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

// CreateTestProject inserts an active project
func CreateTestProject(t *testing.T, db *gorm.DB, code, name string, budget float64) *domain.Project {
	t.Helper()

	project := &domain.Project{
		Code:   code,
		Name:   name,
		Budget: budget,
		Status: domain.ProjectStatusActive,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}
