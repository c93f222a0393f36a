package repository

import (
	"context"

	"github.com/itqan-erp/procurement-api/internal/domain"
	"gorm.io/gorm"
)

// settingsRowID is the fixed primary key of the single settings row
const settingsRowID = "1"

// SettingsRepository handles the single system settings row
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository instance
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row, creating it with defaults on first access
func (r *SettingsRepository) Get(ctx context.Context) (*domain.SystemSettings, error) {
	var settings domain.SystemSettings
	err := r.db.WithContext(ctx).Where("id = ?", settingsRowID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = domain.SystemSettings{
			ID:          settingsRowID,
			CompanyName: "My Enterprise",
			Currency:    "SAR",
		}
		if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update saves the settings row
func (r *SettingsRepository) Update(ctx context.Context, settings *domain.SystemSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
