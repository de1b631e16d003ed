package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrPremiumRequired = errors.New("premium subscription required for media sharing")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("file is empty")
)

// UnsupportedTypeError lists the mime types accepted for the requested kind
type UnsupportedTypeError struct {
	Allowed []string
}

func (e *UnsupportedTypeError) Error() string {
	return "Invalid file type. Allowed types: " + strings.Join(e.Allowed, ", ")
}

var allowedTypes = map[string][]string{
	models.KindImage: {"image/jpeg", "image/png", "image/gif", "image/webp"},
	models.KindAudio: {"audio/mpeg", "audio/wav", "audio/ogg", "audio/mp4"},
}

var extPattern = regexp.MustCompile(`^[a-z0-9]{1,8}$`)

// UploadInput is one file to store
type UploadInput struct {
	Kind     string
	Name     string
	MimeType string
	Size     int64
	Data     io.Reader
}

// UploadMetadata describes a stored file
type UploadMetadata struct {
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
	UploadedBy   uint      `json:"uploadedBy"`
}

// UploadResult is returned after a successful upload
type UploadResult struct {
	Success     bool           `json:"success"`
	FileURL     string         `json:"fileUrl"`
	Metadata    UploadMetadata `json:"metadata"`
	MessageType string         `json:"messageType"`
}

// Attachment converts the result into the form a chat message carries
func (r *UploadResult) Attachment() *models.Attachment {
	return &models.Attachment{
		URL:          r.FileURL,
		MimeType:     r.Metadata.MimeType,
		Size:         r.Metadata.Size,
		OriginalName: r.Metadata.OriginalName,
	}
}

// UploadService stores media files on local disk under <dir>/<kind>/<uuid>.<ext>
type UploadService struct {
	dir     string
	maxSize int64
	log     *logger.Logger
}

func NewUploadService(dir string, maxSize int64, log *logger.Logger) *UploadService {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &UploadService{dir: dir, maxSize: maxSize, log: log}
}

// MaxSize is the largest accepted file in bytes
func (s *UploadService) MaxSize() int64 { return s.maxSize }

// CanUpload reports whether the user's plan includes media sharing
func CanUpload(u *models.User) bool {
	return u.IsPaid() || u.SubscriptionPlan == models.TierPremium || u.SubscriptionPlan == models.TierPro
}

// Save validates and writes the file. The reader is capped at the size limit, so a
// caller-declared size that undercounts still cannot exceed it.
func (s *UploadService) Save(ctx context.Context, user *models.User, in UploadInput) (*UploadResult, error) {
	if !CanUpload(user) {
		return nil, ErrPremiumRequired
	}
	if !models.IsMedia(in.Kind) {
		return nil, ErrInvalidMessageKind
	}
	if in.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	mimeType := strings.ToLower(strings.TrimSpace(strings.Split(in.MimeType, ";")[0]))
	if !contains(allowedTypes[in.Kind], mimeType) {
		return nil, &UnsupportedTypeError{Allowed: allowedTypes[in.Kind]}
	}

	dir := filepath.Join(s.dir, in.Kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + extensionFor(in.Name, mimeType)
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	written, err := io.Copy(f, io.LimitReader(in.Data, s.maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	switch {
	case err != nil:
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	case written > s.maxSize:
		_ = os.Remove(path)
		return nil, ErrFileTooLarge
	case written == 0:
		_ = os.Remove(path)
		return nil, ErrEmptyFile
	}

	s.log.FromContext(ctx).Info("Media uploaded", "user_id", user.ID, "kind", in.Kind, "size", written)

	return &UploadResult{
		Success: true,
		FileURL: "/uploads/" + in.Kind + "/" + filename,
		Metadata: UploadMetadata{
			OriginalName: in.Name,
			MimeType:     mimeType,
			Size:         written,
			UploadedAt:   time.Now().UTC(),
			UploadedBy:   user.ID,
		},
		MessageType: in.Kind,
	}, nil
}

// extensionFor prefers the original file's extension and falls back to the mime type
func extensionFor(name, mimeType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if extPattern.MatchString(ext) {
		return "." + ext
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
