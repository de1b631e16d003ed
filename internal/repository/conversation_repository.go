package repository

import (
	"context"
	"time"

	"ai-board-of-directors/backend/internal/models"

	"gorm.io/gorm"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, userID, id uint) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	Touch(ctx context.Context, id uint, at time.Time) error
	// StartWithMessage stores a new conversation and its first message atomically
	StartWithMessage(ctx context.Context, conv *models.Conversation, first *models.Message) error
}

type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	if conv.LastActivity.IsZero() {
		conv.LastActivity = time.Now()
	}
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *GormConversationRepository) GetByID(ctx context.Context, userID, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&conv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

func (r *GormConversationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_activity DESC, id DESC").
		Find(&convs).Error
	return convs, err
}

func (r *GormConversationRepository) StartWithMessage(ctx context.Context, conv *models.Conversation, first *models.Message) error {
	if conv.LastActivity.IsZero() {
		conv.LastActivity = time.Now()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		first.ConversationID = conv.ID
		return tx.Create(first).Error
	})
}

// Touch moves last_activity forward. It never moves it backwards when concurrent replies race.
func (r *GormConversationRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ? AND (last_activity IS NULL OR last_activity < ?)", id, at).
		Update("last_activity", at).Error
}
