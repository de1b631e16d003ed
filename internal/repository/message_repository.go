package repository

import (
	"context"
	"time"

	"ai-board-of-directors/backend/internal/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByConversation(ctx context.Context, conversationID uint) ([]models.Message, error)
	// Tail returns the last n messages oldest-first, skipping excludeID when it is non-zero
	Tail(ctx context.Context, conversationID uint, n int, excludeID uint) ([]models.Message, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *GormMessageRepository) ListByConversation(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) Tail(ctx context.Context, conversationID uint, n int, excludeID uint) ([]models.Message, error) {
	var messages []models.Message
	if n <= 0 {
		return messages, nil
	}

	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Order("created_at DESC, id DESC").Limit(n).Find(&messages).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *GormMessageRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}
