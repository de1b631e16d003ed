package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIConfig configures the chat completions client
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout is the transport ceiling; callers also pass a context deadline
	Timeout time.Duration
}

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIClient creates a client. It returns ErrNotConfigured without an API key.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Turn          `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete generates one board member reply
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	content, err := c.chat(ctx, chatRequest{
		Model:       c.cfg.Model,
		Messages:    Messages(req),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(content)
	if text == "" {
		text = EmptyReplyText
	}

	return &Completion{
		Text:        text,
		Suggestions: FollowUpQuestions(text, MaxSuggestions),
	}, nil
}

// TranslateWords asks the model for a JSON word → translation map
func (c *OpenAIClient) TranslateWords(ctx context.Context, words []string, targetLanguage string) (map[string]string, error) {
	system, user := translationPrompt(words, targetLanguage)

	content, err := c.chat(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []Turn{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
		Temperature:    0.1,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("error decoding translation JSON: %w", err)
	}
	return out, nil
}

func (c *OpenAIClient) chat(ctx context.Context, body chatRequest) (string, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making API request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", decodeErr)
	}
	if parsed.Error != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return "", ErrNoChoices
	}

	return parsed.Choices[0].Message.Content, nil
}
