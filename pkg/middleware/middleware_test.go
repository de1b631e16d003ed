package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-board-of-directors/backend/pkg/errors"
	"ai-board-of-directors/backend/pkg/jwt"
	"ai-board-of-directors/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(handlers...)
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetUint(UserIDKey)})
	})
	return r
}

func do(r http.Handler, target, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := jwt.NewService("secret", time.Hour)
	token, err := svc.GenerateToken(9, "u@example.com", jwt.RoleUser)
	require.NoError(t, err)

	r := newEngine(JWTAuthMiddleware(svc, logger.Discard()))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/x", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/x", "Bearer garbage").Code)

	w := do(r, "/x", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":9}`, w.Body.String())

	w = do(r, "/x?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	svc := jwt.NewService("secret", time.Hour)
	userToken, _ := svc.GenerateToken(1, "u@example.com", jwt.RoleUser)
	adminToken, _ := svc.GenerateToken(2, "a@example.com", jwt.RoleAdmin)

	r := newEngine(JWTAuthMiddleware(svc, logger.Discard()), RequireRole(jwt.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, do(r, "/x", "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusOK, do(r, "/x", "Bearer "+adminToken).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(logger.Discard(), RateLimiterOptions{
		Limit:          0.0001,
		Burst:          2,
		ExpiryDuration: time.Minute,
	})
	r := newEngine(rl.Middleware())

	assert.Equal(t, http.StatusOK, do(r, "/x", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/x", "").Code)

	w := do(r, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(logger.Discard(), RateLimiterOptions{Limit: 1, Burst: 1, ExpiryDuration: time.Nanosecond})
	rl.getLimiter("ip:1.2.3.4")
	time.Sleep(time.Millisecond)

	rl.sweep()
	assert.Empty(t, rl.clients)
}
