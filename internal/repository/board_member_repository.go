package repository

import (
	"context"

	"ai-board-of-directors/backend/internal/models"

	"gorm.io/gorm"
)

type BoardMemberRepository interface {
	Create(ctx context.Context, member *models.BoardMember) error
	CreateBatch(ctx context.Context, members []models.BoardMember) error
	GetByID(ctx context.Context, userID, id uint) (*models.BoardMember, error)
	ListActive(ctx context.Context, userID uint) ([]models.BoardMember, error)
	CountActive(ctx context.Context, userID uint) (int64, error)
	FindActive(ctx context.Context, userID uint, ids []uint) ([]models.BoardMember, error)
	Save(ctx context.Context, member *models.BoardMember) error
	Deactivate(ctx context.Context, userID, id uint) error
}

type GormBoardMemberRepository struct {
	db *gorm.DB
}

func NewGormBoardMemberRepository(db *gorm.DB) *GormBoardMemberRepository {
	return &GormBoardMemberRepository{db: db}
}

func (r *GormBoardMemberRepository) Create(ctx context.Context, member *models.BoardMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *GormBoardMemberRepository) CreateBatch(ctx context.Context, members []models.BoardMember) error {
	if len(members) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&members).Error
}

// GetByID returns the member only if it belongs to userID, active or not
func (r *GormBoardMemberRepository) GetByID(ctx context.Context, userID, id uint) (*models.BoardMember, error) {
	var m models.BoardMember
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *GormBoardMemberRepository) ListActive(ctx context.Context, userID uint) ([]models.BoardMember, error) {
	var members []models.BoardMember
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC, id ASC").
		Find(&members).Error
	return members, err
}

func (r *GormBoardMemberRepository) CountActive(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BoardMember{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&n).Error
	return n, err
}

// FindActive returns the subset of ids that are active members of userID, in no particular order
func (r *GormBoardMemberRepository) FindActive(ctx context.Context, userID uint, ids []uint) ([]models.BoardMember, error) {
	var members []models.BoardMember
	if len(ids) == 0 {
		return members, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND id IN ?", userID, true, ids).
		Find(&members).Error
	return members, err
}

func (r *GormBoardMemberRepository) Save(ctx context.Context, member *models.BoardMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *GormBoardMemberRepository) Deactivate(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.BoardMember{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
