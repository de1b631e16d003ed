package router

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"ai-board-of-directors/backend/pkg/health"
	"ai-board-of-directors/backend/pkg/resilience"
)

// setupHealthRoutes registers health check endpoints.
// The database and cache pingers are registered by main; sockets and the LLM breaker are added here.
func (r *Router) setupHealthRoutes() {
	hub := r.Container.Hub
	r.Health.Register("websocket", false, func(context.Context) (health.Status, string, error) {
		return health.StatusUp, fmt.Sprintf("%d active connections", hub.ConnectionCount()), nil
	})

	breaker := r.Container.AIBreaker
	r.Health.Register("openai", false, func(context.Context) (health.Status, string, error) {
		switch breaker.State() {
		case resilience.StateOpen:
			return health.StatusDegraded, "circuit open, board replies are failing fast", nil
		case resilience.StateHalfOpen:
			return health.StatusDegraded, "circuit probing upstream", nil
		default:
			return health.StatusUp, "circuit closed", nil
		}
	})

	r.Health.Register("runtime", false, func(context.Context) (health.Status, string, error) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		return health.StatusUp, fmt.Sprintf("version=%s goroutines=%d alloc_mb=%d gc_cycles=%d",
			os.Getenv("APP_VERSION"), runtime.NumGoroutine(), mem.Alloc/1024/1024, mem.NumGC), nil
	})

	// Register both health endpoint paths for compatibility
	r.Engine.GET("/health", r.Health.Handler())
	r.Engine.GET("/api/health", r.Health.Handler())
}
