// Package translation translates vocabulary words with DeepL, caching results and
// falling back to the completion model when DeepL is missing or failing.
package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyTranslation is returned when DeepL answers without a translation
var ErrEmptyTranslation = errors.New("deepl returned no translation")

// DeepLConfig configures the DeepL client
type DeepLConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DeepL calls the DeepL v2 translate endpoint
type DeepL struct {
	cfg        DeepLConfig
	httpClient *http.Client
}

// NewDeepL returns nil when no API key is configured
func NewDeepL(cfg DeepLConfig) *DeepL {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-free.deepl.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &DeepL{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

type deeplRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
	Message string `json:"message,omitempty"`
}

// Translate translates a single text
func (d *DeepL) Translate(ctx context.Context, text, source, target string) (string, error) {
	jsonData, err := json.Marshal(deeplRequest{Text: []string{text}, SourceLang: source, TargetLang: target})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(d.cfg.BaseURL, "/")+"/v2/translate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.cfg.APIKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making DeepL request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var parsed deeplResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && parsed.Message != "" {
			msg = parsed.Message
		}
		return "", fmt.Errorf("deepl returned status %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", decodeErr)
	}
	if len(parsed.Translations) == 0 {
		return "", ErrEmptyTranslation
	}
	return strings.TrimSpace(parsed.Translations[0].Text), nil
}
