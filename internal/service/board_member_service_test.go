package service

import (
	"context"
	"testing"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/persona"
	"ai-board-of-directors/backend/internal/repository"
	"ai-board-of-directors/backend/internal/testutil"
	"ai-board-of-directors/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testLimits(tier string) int {
	switch tier {
	case models.TierPro:
		return 10
	case models.TierPremium:
		return 5
	default:
		return 3
	}
}

func newBoardService(t *testing.T) (*BoardMemberService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewBoardMemberService(
		repository.NewGormBoardMemberRepository(db),
		repository.NewGormUserRepository(db),
		testLimits,
		logger.Discard(),
	)
	return svc, db
}

func TestInitializeDefaults(t *testing.T) {
	svc, db := newBoardService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "seed@example.com", models.TierFree)

	members, created, err := svc.InitializeDefaults(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, members, persona.DefaultSeedCount)
	assert.Equal(t, persona.EmpatheticCounselor, members[0].Personality)
	assert.NotEmpty(t, members[0].SystemPrompt)

	again, created, err := svc.InitializeDefaults(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, again, persona.DefaultSeedCount)

	list, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, persona.DefaultSeedCount)
}

func TestCreateBoardMember(t *testing.T) {
	svc, db := newBoardService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "create@example.com", models.TierFree)

	t.Run("template kind gets template defaults", func(t *testing.T) {
		m, err := svc.Create(ctx, user.ID, models.CreateBoardMemberRequest{Name: " Sage ", Personality: string(persona.WiseMentor)})
		require.NoError(t, err)
		tmpl, _ := persona.Lookup(persona.WiseMentor)
		assert.Equal(t, "Sage", m.Name)
		assert.Equal(t, tmpl.Description, m.Description)
		assert.Equal(t, tmpl.AvatarURL, m.AvatarURL)
		assert.Equal(t, tmpl.Prompt(), m.SystemPrompt)
	})

	t.Run("unknown kind falls back to default", func(t *testing.T) {
		m, err := svc.Create(ctx, user.ID, models.CreateBoardMemberRequest{Name: "Who", Personality: "grumpy_cat"})
		require.NoError(t, err)
		assert.Equal(t, persona.DefaultKind, m.Personality)
	})

	t.Run("custom needs description", func(t *testing.T) {
		_, err := svc.Create(ctx, user.ID, models.CreateBoardMemberRequest{Name: "Blank", Personality: string(persona.Custom)})
		assert.ErrorIs(t, err, ErrCustomDescription)
	})

	t.Run("custom uses description as prompt", func(t *testing.T) {
		m, err := svc.Create(ctx, user.ID, models.CreateBoardMemberRequest{
			Name: "Pirate", Personality: string(persona.Custom), CustomDescription: "Talks like a pirate",
		})
		require.NoError(t, err)
		assert.Contains(t, m.SystemPrompt, "Talks like a pirate")
	})
}

func TestCreateBoardMemberLimit(t *testing.T) {
	svc, db := newBoardService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "limit@example.com", models.TierFree)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, user.ID, models.CreateBoardMemberRequest{Name: "M", Personality: string(persona.CreativeFriend)})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, user.ID, models.CreateBoardMemberRequest{Name: "Fourth", Personality: string(persona.CreativeFriend)})
	require.ErrorIs(t, err, ErrPersonaLimitReached)
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 3, limitErr.Limit)

	// deleting frees a slot
	list, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, user.ID, list[0].ID))

	_, err = svc.Create(ctx, user.ID, models.CreateBoardMemberRequest{Name: "Fourth", Personality: string(persona.CreativeFriend)})
	assert.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("subscription_tier", models.TierPremium).Error)
	limit, err := svc.Limit(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)
}

func TestUpdateAndDeleteBoardMember(t *testing.T) {
	svc, db := newBoardService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner@example.com", models.TierFree)
	other := testutil.CreateUser(t, db, "other@example.com", models.TierFree)

	m, err := svc.Create(ctx, owner.ID, models.CreateBoardMemberRequest{Name: "Riley", Personality: string(persona.CreativeFriend)})
	require.NoError(t, err)

	name := "Riley Two"
	kind := string(persona.Custom)
	desc := "A stoic philosopher"
	updated, err := svc.Update(ctx, owner.ID, m.ID, models.UpdateBoardMemberRequest{Name: &name, Personality: &kind, CustomDescription: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Riley Two", updated.Name)
	assert.Equal(t, persona.Custom, updated.Personality)
	assert.Contains(t, updated.SystemPrompt, desc)

	_, err = svc.Update(ctx, other.ID, m.ID, models.UpdateBoardMemberRequest{Name: &name})
	assert.ErrorIs(t, err, ErrBoardMemberNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, other.ID, m.ID), ErrBoardMemberNotFound)
	require.NoError(t, svc.Delete(ctx, owner.ID, m.ID))

	_, err = svc.Update(ctx, owner.ID, m.ID, models.UpdateBoardMemberRequest{Name: &name})
	assert.ErrorIs(t, err, ErrBoardMemberNotFound)

	// the row survives for message history
	var count int64
	require.NoError(t, db.Model(&models.BoardMember{}).Where("id = ?", m.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
