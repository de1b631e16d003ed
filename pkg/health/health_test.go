package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-board-of-directors/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(c *Checker) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", c.Handler())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestCheckerHealthy(t *testing.T) {
	c := NewChecker(logger.Discard(), time.Minute)
	c.RegisterPinger("database", true, func(context.Context) error { return nil })
	c.RunChecks(context.Background())

	assert.True(t, c.Healthy())

	w := serve(c)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status     string      `json:"status"`
		Components []Component `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Components, 2)
	assert.Equal(t, "database", body.Components[0].Name)
	assert.Equal(t, StatusUp, body.Components[0].Status)
}

func TestCheckerCriticalDown(t *testing.T) {
	c := NewChecker(logger.Discard(), time.Minute)
	c.RegisterPinger("database", true, func(context.Context) error { return errors.New("refused") })
	c.RegisterPinger("redis", false, func(context.Context) error { return errors.New("refused") })
	c.RunChecks(context.Background())

	assert.False(t, c.Healthy())
	assert.Equal(t, http.StatusServiceUnavailable, serve(c).Code)
}

func TestCheckerNonCriticalDownIsHealthy(t *testing.T) {
	c := NewChecker(logger.Discard(), time.Minute)
	c.RegisterPinger("redis", false, func(context.Context) error { return errors.New("refused") })
	c.RunChecks(context.Background())

	assert.True(t, c.Healthy())
	for _, comp := range c.Components() {
		if comp.Name == "redis" {
			assert.Equal(t, "refused", comp.Error)
		}
	}
}

func TestCheckerStartStops(t *testing.T) {
	c := NewChecker(logger.Discard(), time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("checker did not stop")
	}
}
