package service

import (
	"context"
	"math"
	"time"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/repository"
)

// Analytics is the admin dashboard summary
type Analytics struct {
	TotalUsers     int64   `json:"totalUsers"`
	TodayMessages  int64   `json:"todayMessages"`
	PremiumUsers   int64   `json:"premiumUsers"`
	ConversionRate float64 `json:"conversionRate"`
}

type AdminService struct {
	settings repository.SettingRepository
	users    repository.UserRepository
	messages repository.MessageRepository
	now      func() time.Time
}

func NewAdminService(settings repository.SettingRepository, users repository.UserRepository, messages repository.MessageRepository) *AdminService {
	return &AdminService{settings: settings, users: users, messages: messages, now: time.Now}
}

func (s *AdminService) Settings(ctx context.Context) ([]models.SystemSetting, error) {
	return s.settings.List(ctx)
}

func (s *AdminService) UpdateSetting(ctx context.Context, key, value string) (*models.SystemSetting, error) {
	return s.settings.Upsert(ctx, key, value)
}

// Analytics counts users, messages since local midnight and paid users.
// The conversion rate is a percentage rounded to one decimal.
func (s *AdminService) Analytics(ctx context.Context) (*Analytics, error) {
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	paid, err := s.users.CountByTier(ctx, models.TierPremium, models.TierPro)
	if err != nil {
		return nil, err
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.messages.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	out := &Analytics{TotalUsers: total, TodayMessages: today, PremiumUsers: paid}
	if total > 0 {
		out.ConversionRate = math.Round(float64(paid)/float64(total)*1000) / 10
	}
	return out, nil
}
