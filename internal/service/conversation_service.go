package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/repository"
)

// DefaultConversationTitle is used when a conversation is created without one
const DefaultConversationTitle = "New Conversation"

type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
}

func NewConversationService(conversations repository.ConversationRepository, messages repository.MessageRepository) *ConversationService {
	return &ConversationService{conversations: conversations, messages: messages}
}

func (s *ConversationService) List(ctx context.Context, userID uint) ([]models.Conversation, error) {
	return s.conversations.ListByUser(ctx, userID)
}

func (s *ConversationService) Create(ctx context.Context, userID uint, title string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultConversationTitle
	}

	conv := &models.Conversation{UserID: userID, Title: title}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// Get returns the conversation if the user owns it
func (s *ConversationService) Get(ctx context.Context, userID, id uint) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	return conv, err
}

// Messages returns the whole log, or the last limit messages when limit > 0, oldest first
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID uint, limit int) ([]models.Message, error) {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if limit > 0 {
		return s.messages.Tail(ctx, conversationID, limit, 0)
	}
	return s.messages.ListByConversation(ctx, conversationID)
}
