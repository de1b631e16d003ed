// Package ai talks to the language model that speaks for each board member.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Role of a turn in the chat history
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message supplied as context
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is everything needed to generate one board member reply
type CompletionRequest struct {
	// SystemPrompt is the board member's resolved personality prompt
	SystemPrompt string
	History      []Turn
	NewMessage   string
	PersonaName  string
	Personality  string
}

// Completion is a generated reply
type Completion struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Completer generates replies. An error always means no reply; an empty answer is never an error.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Translator turns a list of words into a word → translation map
type Translator interface {
	TranslateWords(ctx context.Context, words []string, targetLanguage string) (map[string]string, error)
}

var (
	// ErrNoChoices is returned when the upstream answered without any choice
	ErrNoChoices = errors.New("completion returned no choices")
	// ErrNotConfigured is returned when no API key is available
	ErrNotConfigured = errors.New("completion client not configured")
)

// APIError is a non-2xx answer from the upstream API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion API status %d: %s", e.StatusCode, e.Message)
}
