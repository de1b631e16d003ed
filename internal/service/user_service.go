package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/repository"
	"ai-board-of-directors/backend/pkg/jwt"
	"ai-board-of-directors/backend/pkg/logger"
)

// TokenIssuer is satisfied by *jwt.Service
type TokenIssuer interface {
	GenerateToken(userID uint, email string, role jwt.Role) (string, error)
}

// UserService handles account operations
type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	log    *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, tokens TokenIssuer, log *logger.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, log: log}
}

// CreateUser registers an account and returns it with a token
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: req.Password,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, jwt.Role(user.Role))
	if err != nil {
		return nil, "", err
	}

	s.log.Info("User registered", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		s.log.LogError(err, "Failed to record login time", "user_id", user.ID)
	} else {
		user.LastLogin = &now
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, jwt.Role(user.Role))
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
