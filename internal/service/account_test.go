package service

import (
	"context"
	"testing"
	"time"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/repository"
	"ai-board-of-directors/backend/internal/testutil"
	"ai-board-of-directors/backend/pkg/jwt"
	"ai-board-of-directors/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceRegisterAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	tokens := jwt.NewService("test-secret", time.Hour)
	svc := NewUserService(repository.NewGormUserRepository(db), tokens, logger.Discard())
	ctx := context.Background()

	user, token, err := svc.CreateUser(ctx, &models.CreateUserRequest{Name: "Ann", Email: " Ann@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, models.TierFree, user.SubscriptionTier)
	assert.NotEqual(t, "password123", user.Password)

	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.CreateUser(ctx, &models.CreateUserRequest{Name: "Ann", Email: "ann@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	logged, token, err := svc.Login(ctx, &models.LoginRequest{Email: "ANN@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, logged.LastLogin)

	_, _, err = svc.Login(ctx, &models.LoginRequest{Email: "ann@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminAnalytics(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := repository.NewGormUserRepository(db)
	messages := repository.NewGormMessageRepository(db)
	svc := NewAdminService(repository.NewGormSettingRepository(db), users, messages)

	empty, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.ConversionRate)

	testutil.CreateUser(t, db, "a@example.com", models.TierFree)
	testutil.CreateUser(t, db, "b@example.com", models.TierPremium)
	testutil.CreateUser(t, db, "c@example.com", models.TierPro)

	conv := &models.Conversation{UserID: 1, Title: "t"}
	require.NoError(t, repository.NewGormConversationRepository(db).Create(ctx, conv))
	require.NoError(t, messages.Create(ctx, &models.Message{ConversationID: conv.ID, SenderType: models.SenderUser, Content: "today", MessageType: models.KindText}))
	require.NoError(t, messages.Create(ctx, &models.Message{
		ConversationID: conv.ID, SenderType: models.SenderUser, Content: "old", MessageType: models.KindText,
		CreatedAt: time.Now().AddDate(0, 0, -2),
	}))

	a, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), a.TotalUsers)
	assert.Equal(t, int64(2), a.PremiumUsers)
	assert.Equal(t, int64(1), a.TodayMessages)
	assert.Equal(t, 66.7, a.ConversionRate)
}

func TestAdminSettings(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewAdminService(repository.NewGormSettingRepository(db), repository.NewGormUserRepository(db), repository.NewGormMessageRepository(db))

	_, err := svc.UpdateSetting(ctx, "maintenance", "off")
	require.NoError(t, err)
	s, err := svc.UpdateSetting(ctx, "maintenance", "on")
	require.NoError(t, err)
	assert.Equal(t, "on", s.Value)

	all, err := svc.Settings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "on", all[0].Value)
}

func TestConversationService(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewConversationService(repository.NewGormConversationRepository(db), repository.NewGormMessageRepository(db))
	owner := testutil.CreateUser(t, db, "conv@example.com", models.TierFree)
	other := testutil.CreateUser(t, db, "peek@example.com", models.TierFree)

	conv, err := svc.Create(ctx, owner.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultConversationTitle, conv.Title)

	_, err = svc.Get(ctx, other.ID, conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = svc.Messages(ctx, other.ID, conv.ID, 0)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	list, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
