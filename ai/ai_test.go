package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUpQuestions(t *testing.T) {
	text := "That sounds hard. What happened next? How did it make you feel?"
	assert.Equal(t, []string{"What happened next?", "How did it make you feel?"}, FollowUpQuestions(text, 2))

	assert.Equal(t, []string{"How did it make you feel?"}, FollowUpQuestions(text, 1))
	assert.Empty(t, FollowUpQuestions("Is it? I think so.", 2))
	assert.Equal(t, []string{"Really?!"}, FollowUpQuestions("Wow. Really?!", 2))
	assert.Empty(t, FollowUpQuestions("", 2))
}

func TestHistoryContent(t *testing.T) {
	assert.Equal(t, "[User shared an image] look", HistoryContent("image", "look"))
	assert.Equal(t, "[User shared an audio message] hi", HistoryContent("audio", "hi"))
	assert.Equal(t, "plain", HistoryContent("text", "plain"))
}

func TestMessages(t *testing.T) {
	req := CompletionRequest{
		SystemPrompt: "You are Sage.",
		History:      []Turn{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}},
		NewMessage:   "c",
		PersonaName:  "Sage",
		Personality:  "wise_mentor",
	}
	turns := Messages(req)
	require.Len(t, turns, 4)
	assert.Equal(t, RoleSystem, turns[0].Role)
	assert.Contains(t, turns[0].Content, "You are Sage.")
	assert.Contains(t, turns[0].Content, "You are Sage, an AI board member with a wise_mentor personality")
	assert.Equal(t, Turn{Role: RoleUser, Content: "c"}, turns[3])
}

func newTestClient(t *testing.T, h http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, MaxTokens: 300, Temperature: 0.8})
	require.NoError(t, err)
	return c
}

func TestOpenAIClientComplete(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hi there! What brings you here today?"}}]}`))
	})

	out, err := c.Complete(context.Background(), CompletionRequest{SystemPrompt: "p", NewMessage: "Hello", PersonaName: "Maya"})
	require.NoError(t, err)
	assert.Equal(t, "Hi there! What brings you here today?", out.Text)
	assert.Equal(t, []string{"What brings you here today?"}, out.Suggestions)

	assert.Equal(t, 300, got.MaxTokens)
	assert.InDelta(t, 0.8, got.Temperature, 1e-9)
	assert.Equal(t, "gpt-4o", got.Model)
}

func TestOpenAIClientEmptyContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
	})
	out, err := c.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, EmptyReplyText, out.Text)
}

func TestOpenAIClientErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})
	_, err := c.Complete(context.Background(), CompletionRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "rate limited", apiErr.Message)

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err = c.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestOpenAIClientHonoursDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, CompletionRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenAIClientTranslateWords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.ResponseFormat)
		assert.Equal(t, "json_object", body.ResponseFormat.Type)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"朋友\":\"bạn bè\"}"}}]}`))
	})

	out, err := c.TranslateWords(context.Background(), []string{"朋友"}, "Vietnamese")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"朋友": "bạn bè"}, out)
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type stubCompleter struct {
	err   error
	calls int
}

func (s *stubCompleter) Complete(context.Context, CompletionRequest) (*Completion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Completion{Text: "ok"}, nil
}

func TestGuardedOpensCircuit(t *testing.T) {
	stub := &stubCompleter{err: errors.New("boom")}
	breaker := resilience.NewCircuitBreaker(resilience.Config{Name: "openai", FailureThreshold: 2, RetryTimeout: time.Hour}, logger.Discard())
	g := NewGuarded(stub, breaker)

	for i := 0; i < 3; i++ {
		_, err := g.Complete(context.Background(), CompletionRequest{})
		assert.Error(t, err)
	}
	assert.Equal(t, 2, stub.calls)

	_, err := g.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestGuardedPassesThrough(t *testing.T) {
	g := NewGuarded(&stubCompleter{}, nil)
	out, err := g.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)

	_, err = Unavailable{}.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
