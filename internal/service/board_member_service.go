package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/persona"
	"ai-board-of-directors/backend/internal/repository"
	"ai-board-of-directors/backend/pkg/logger"
)

// TierLimits maps a subscription tier to the number of active board members it allows
type TierLimits func(tier string) int

// BoardMemberService manages each user's board
type BoardMemberService struct {
	members repository.BoardMemberRepository
	users   repository.UserRepository
	limits  TierLimits
	log     *logger.Logger
}

func NewBoardMemberService(members repository.BoardMemberRepository, users repository.UserRepository, limits TierLimits, log *logger.Logger) *BoardMemberService {
	return &BoardMemberService{members: members, users: users, limits: limits, log: log}
}

func (s *BoardMemberService) List(ctx context.Context, userID uint) ([]models.BoardMember, error) {
	return s.members.ListActive(ctx, userID)
}

// Create adds a board member after checking the owner's tier limit
func (s *BoardMemberService) Create(ctx context.Context, userID uint, req models.CreateBoardMemberRequest) (*models.BoardMember, error) {
	if err := s.checkLimit(ctx, userID, 1); err != nil {
		return nil, err
	}

	kind, description, err := resolveKind(req.Personality, req.CustomDescription)
	if err != nil {
		return nil, err
	}

	member := &models.BoardMember{
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		Personality:  kind,
		Description:  description,
		AvatarURL:    req.AvatarURL,
		SystemPrompt: persona.Resolve(kind, description),
		IsActive:     true,
	}
	if member.AvatarURL == "" {
		if t, ok := persona.Lookup(kind); ok {
			member.AvatarURL = t.AvatarURL
		}
	}

	if err := s.members.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("create board member: %w", err)
	}

	s.log.Info("Board member created", "user_id", userID, "member_id", member.ID, "personality", string(kind))
	return member, nil
}

// Update changes a member and re-resolves its system prompt
func (s *BoardMemberService) Update(ctx context.Context, userID, id uint, req models.UpdateBoardMemberRequest) (*models.BoardMember, error) {
	member, err := s.members.GetByID(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !member.IsActive) {
		return nil, ErrBoardMemberNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		member.Name = strings.TrimSpace(*req.Name)
	}
	if req.AvatarURL != nil {
		member.AvatarURL = *req.AvatarURL
	}

	kindTag := string(member.Personality)
	if req.Personality != nil {
		kindTag = *req.Personality
	}
	description := member.Description
	if req.CustomDescription != nil {
		description = *req.CustomDescription
	}

	kind, description, err := resolveKind(kindTag, description)
	if err != nil {
		return nil, err
	}
	member.Personality = kind
	member.Description = description
	member.SystemPrompt = persona.Resolve(kind, description)

	if err := s.members.Save(ctx, member); err != nil {
		return nil, fmt.Errorf("update board member: %w", err)
	}
	return member, nil
}

// Delete soft-deletes a member so past replies keep a valid sender
func (s *BoardMemberService) Delete(ctx context.Context, userID, id uint) error {
	err := s.members.Deactivate(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBoardMemberNotFound
	}
	return err
}

// InitializeDefaults seeds the first templates for a user with an empty board.
// A user who already has an active member gets the existing set back and nothing is created.
func (s *BoardMemberService) InitializeDefaults(ctx context.Context, userID uint) ([]models.BoardMember, bool, error) {
	existing, err := s.members.ListActive(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return existing, false, nil
	}

	defaults := persona.Defaults(persona.DefaultSeedCount)
	seed := make([]models.BoardMember, 0, len(defaults))
	for _, t := range defaults {
		seed = append(seed, models.BoardMember{
			UserID:       userID,
			Name:         t.Name,
			Personality:  t.Kind,
			Description:  t.Description,
			AvatarURL:    t.AvatarURL,
			SystemPrompt: persona.Resolve(t.Kind, ""),
			IsActive:     true,
		})
	}

	if err := s.members.CreateBatch(ctx, seed); err != nil {
		return nil, false, fmt.Errorf("seed default board: %w", err)
	}

	s.log.Info("Default board initialized", "user_id", userID, "count", len(seed))
	return seed, true, nil
}

// Limit returns the number of active members the user's tier allows
func (s *BoardMemberService) Limit(ctx context.Context, userID uint) (int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return s.limits(user.SubscriptionTier), nil
}

func (s *BoardMemberService) checkLimit(ctx context.Context, userID uint, adding int) error {
	limit, err := s.Limit(ctx, userID)
	if err != nil {
		return err
	}
	count, err := s.members.CountActive(ctx, userID)
	if err != nil {
		return err
	}
	if int(count)+adding > limit {
		return &LimitError{Limit: limit}
	}
	return nil
}

// resolveKind validates the tag and description pair. Template kinds fall back to the
// template's own description; unknown tags become the default template.
func resolveKind(tag, description string) (persona.Kind, string, error) {
	kind, _ := persona.ParseKind(tag)
	description = strings.TrimSpace(description)

	if kind == persona.Custom {
		if description == "" {
			return "", "", ErrCustomDescription
		}
		return kind, description, nil
	}

	if description == "" {
		t, _ := persona.Lookup(kind)
		description = t.Description
	}
	return kind, description, nil
}
