package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-board-of-directors/backend/internal/testutil"
	"ai-board-of-directors/backend/pkg/cache"
	"ai-board-of-directors/backend/pkg/config"
	"ai-board-of-directors/backend/pkg/di"
	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/observability"
	"ai-board-of-directors/backend/pkg/secrets"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, opts Options) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := *config.New()
	cfg.Server.Env = "test"
	cfg.Security.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.Security.TrustedProxies = nil
	cfg.Security.RateLimit = 1000
	cfg.Security.RateLimitBurst = 1000
	cfg.Features.UploadDir = t.TempDir()
	cfg.Features.StaggerMin = 0
	cfg.Features.StaggerMax = 0
	cfg.Features.EnableWebSockets = true
	cfg.Features.OpenAPISchemaPath = "../../api/openapi.yaml"

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	container, err := di.New(ctx, testutil.NewDB(t), &cfg, di.Deps{
		Logger:  logger.Discard(),
		Secrets: secrets.Static{},
		Cache:   cache.NewMemory(cache.Options{}),
	})
	require.NoError(t, err)

	r := New(container, opts)
	r.SetupRoutes()
	return r
}

func doJSON(r http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func signup(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name": "Board Owner", "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, w).Token
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, Options{})
	r.Health.RunChecks(context.Background())

	w := doJSON(r.Engine, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Status     string `json:"status"`
		Components []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"components"`
	}](t, w)
	assert.Equal(t, "ok", body.Status)

	names := make([]string, 0, len(body.Components))
	for _, c := range body.Components {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "websocket")
	assert.Contains(t, names, "openai")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, Options{})

	for _, target := range []string{"/api/v1/board-members", "/api/v1/conversations", "/api/v1/subscription", "/ws"} {
		w := doJSON(r.Engine, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
		assert.Equal(t, "AUTH_REQUIRED", decode[errorEnvelope](t, w).Error.Code, target)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	r := newTestRouter(t, Options{})
	token := signup(t, r.Engine, "member@example.com")

	w := doJSON(r.Engine, http.MethodGet, "/api/v1/admin/analytics", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_ROLE", decode[errorEnvelope](t, w).Error.Code)
}

func TestBoardAndChatFlow(t *testing.T) {
	r := newTestRouter(t, Options{})
	token := signup(t, r.Engine, "owner@example.com")

	w := doJSON(r.Engine, http.MethodPost, "/api/v1/board-members/initialize", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r.Engine, http.MethodGet, "/api/v1/board-members", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	members := decode[[]struct {
		ID uint `json:"id"`
	}](t, w)
	require.NotEmpty(t, members)

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	// No completion key is configured, so every member fails but the user message is kept
	w = doJSON(r.Engine, http.MethodPost, "/api/v1/chat/send", token, map[string]any{
		"content":    "Should I take the job?",
		"personaIds": ids,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[struct {
		UserMessage struct {
			ConversationID uint   `json:"conversationId"`
			Content        string `json:"content"`
		} `json:"userMessage"`
		AIResponses []json.RawMessage `json:"aiResponses"`
		Failures    []struct {
			PersonaID uint `json:"personaId"`
		} `json:"failures"`
	}](t, w)
	assert.Equal(t, "Should I take the job?", result.UserMessage.Content)
	assert.Empty(t, result.AIResponses)
	assert.Len(t, result.Failures, len(ids))

	w = doJSON(r.Engine, http.MethodGet, "/api/v1/conversations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	convs := decode[[]struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	}](t, w)
	require.Len(t, convs, 1)
	assert.Equal(t, result.UserMessage.ConversationID, convs[0].ID)
	assert.Equal(t, "Should I take the job?", convs[0].Title)
}

func TestChatSendValidation(t *testing.T) {
	r := newTestRouter(t, Options{})
	token := signup(t, r.Engine, "validate@example.com")

	w := doJSON(r.Engine, http.MethodPost, "/api/v1/chat/send", token, map[string]any{"content": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_PERSONA_SET", decode[errorEnvelope](t, w).Error.Code)
}

func TestOpenAPIValidationRejectsBadBody(t *testing.T) {
	r := newTestRouter(t, Options{})

	w := doJSON(r.Engine, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SCHEMA_VALIDATION_FAILED", decode[errorEnvelope](t, w).Error.Code)

	w = doJSON(r.Engine, http.MethodGet, "/api/docs/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookIsPublic(t *testing.T) {
	r := newTestRouter(t, Options{})

	w := doJSON(r.Engine, http.MethodPost, "/api/v1/subscription/webhook", "", map[string]any{"order_id": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELDS", decode[errorEnvelope](t, w).Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat/send", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/chat/send", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRoute(t *testing.T) {
	prom, err := observability.SetupPrometheus()
	require.NoError(t, err)
	metrics, err := observability.NewMetrics(prom.Provider)
	require.NoError(t, err)
	metrics.SocketOpened(context.Background())

	r := newTestRouter(t, Options{Metrics: prom.Handler})
	w := doJSON(r.Engine, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "board_ws_connections")
}
