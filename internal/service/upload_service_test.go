package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSave(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, 16, logger.Discard())
	premium := &models.User{ID: 4, SubscriptionTier: models.TierPremium}
	ctx := context.Background()

	res, err := svc.Save(ctx, premium, UploadInput{
		Kind: models.KindImage, Name: "cat.PNG", MimeType: "image/png", Size: 4, Data: bytes.NewReader([]byte("meow")),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.FileURL, "/uploads/image/"))
	assert.True(t, strings.HasSuffix(res.FileURL, ".png"))
	assert.Equal(t, int64(4), res.Metadata.Size)
	assert.Equal(t, uint(4), res.Metadata.UploadedBy)

	stored, err := os.ReadFile(filepath.Join(dir, "image", filepath.Base(res.FileURL)))
	require.NoError(t, err)
	assert.Equal(t, "meow", string(stored))

	att := res.Attachment()
	assert.Equal(t, res.FileURL, att.URL)
	assert.Equal(t, "cat.PNG", att.OriginalName)
}

func TestUploadRejections(t *testing.T) {
	svc := NewUploadService(t.TempDir(), 16, logger.Discard())
	ctx := context.Background()
	premium := &models.User{ID: 1, SubscriptionTier: models.TierPro}

	_, err := svc.Save(ctx, &models.User{ID: 2, SubscriptionTier: models.TierFree}, UploadInput{
		Kind: models.KindImage, MimeType: "image/png", Data: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, ErrPremiumRequired)

	_, err = svc.Save(ctx, premium, UploadInput{Kind: "video", MimeType: "video/mp4", Data: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrInvalidMessageKind)

	_, err = svc.Save(ctx, premium, UploadInput{Kind: models.KindAudio, MimeType: "image/png", Data: strings.NewReader("x")})
	var typeErr *UnsupportedTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Contains(t, typeErr.Error(), "audio/mpeg")

	_, err = svc.Save(ctx, premium, UploadInput{Kind: models.KindAudio, MimeType: "audio/wav", Size: 100, Data: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// declared size lies; the stream is still capped
	_, err = svc.Save(ctx, premium, UploadInput{Kind: models.KindAudio, MimeType: "audio/wav", Size: 1, Data: strings.NewReader(strings.Repeat("a", 32))})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.Save(ctx, premium, UploadInput{Kind: models.KindAudio, MimeType: "audio/ogg", Data: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestCanUploadByPlan(t *testing.T) {
	assert.True(t, CanUpload(&models.User{SubscriptionTier: models.TierFree, SubscriptionPlan: models.TierPro}))
	assert.False(t, CanUpload(&models.User{SubscriptionTier: models.TierFree}))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".mp3", extensionFor("song.mp3", "audio/mpeg"))
	assert.Equal(t, ".webp", extensionFor("noext", "image/webp"))
	assert.Equal(t, "", extensionFor("../../etc/passwd", "application/x-unknown"))
}
