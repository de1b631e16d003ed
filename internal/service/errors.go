package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")

	ErrConversationNotFound = errors.New("conversation not found")
	ErrBoardMemberNotFound  = errors.New("board member not found")
	ErrPersonaLimitReached  = errors.New("board member limit reached")
	ErrCustomDescription    = errors.New("custom personality requires a description")

	ErrEmptyPersonaSet    = errors.New("at least one board member is required")
	ErrEmptyContent       = errors.New("message content is required")
	ErrInvalidMessageKind = errors.New("message type must be text, image or audio")
	ErrMissingAttachment  = errors.New("media messages require a file URL")
)

// LimitError reports the tier limit that blocked a board member from being added
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("You've reached the limit of %d board members. Upgrade to add more.", e.Limit)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrPersonaLimitReached
}
