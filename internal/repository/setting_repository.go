package repository

import (
	"context"
	"time"

	"ai-board-of-directors/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository interface {
	List(ctx context.Context) ([]models.SystemSetting, error)
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, key, value string) (*models.SystemSetting, error)
}

type GormSettingRepository struct {
	db *gorm.DB
}

func NewGormSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

func (r *GormSettingRepository) List(ctx context.Context) ([]models.SystemSetting, error) {
	var settings []models.SystemSetting
	err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error
	return settings, err
}

func (r *GormSettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var s models.SystemSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormSettingRepository) Upsert(ctx context.Context, key, value string) (*models.SystemSetting, error) {
	s := models.SystemSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, key)
}
