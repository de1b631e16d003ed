package router

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"ai-board-of-directors/backend/internal/api"
	"ai-board-of-directors/backend/internal/ws"
	"ai-board-of-directors/backend/pkg/config"
	"ai-board-of-directors/backend/pkg/di"
	"ai-board-of-directors/backend/pkg/errors"
	"ai-board-of-directors/backend/pkg/health"
	"ai-board-of-directors/backend/pkg/jwt"
	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/middleware"
	"ai-board-of-directors/backend/pkg/observability"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Options carries the pieces main owns. Zero values disable the matching feature.
type Options struct {
	Health      *health.Checker
	Metrics     http.Handler
	Tracing     bool
	RateLimiter *middleware.RateLimiter
}

// Router is the main router for the application
type Router struct {
	Engine      *gin.Engine
	Container   *di.Container
	Logger      *logger.Logger
	Config      *config.Config
	Health      *health.Checker
	metrics     http.Handler
	rateLimiter *middleware.RateLimiter
}

// New creates the engine and its global middleware
func New(container *di.Container, opts Options) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		container.Logger.LogError(err, "Invalid trusted proxies, trusting none")
		_ = engine.SetTrustedProxies(nil)
	}
	engine.MaxMultipartMemory = cfg.Features.MaxUploadSize

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	if opts.Tracing {
		engine.Use(observability.TracingMiddleware())
	}
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))

	if opts.Health == nil {
		opts.Health = health.NewChecker(container.Logger, 0)
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = middleware.NewRateLimiter(container.Logger, rateLimiterOptions(cfg))
	}

	return &Router{
		Engine:      engine,
		Container:   container,
		Logger:      container.Logger,
		Config:      cfg,
		Health:      opts.Health,
		metrics:     opts.Metrics,
		rateLimiter: opts.RateLimiter,
	}
}

func rateLimiterOptions(cfg *config.Config) middleware.RateLimiterOptions {
	opts := middleware.DefaultRateLimiterOptions()
	if cfg.Security.RateLimit > 0 {
		opts.Limit = rate.Limit(cfg.Security.RateLimit)
	}
	if cfg.Security.RateLimitBurst > 0 {
		opts.Burst = cfg.Security.RateLimitBurst
	}
	return opts
}

// RunCleanup evicts idle rate limiter entries until ctx is done
func (r *Router) RunCleanup(ctx context.Context) {
	r.rateLimiter.RunCleanup(ctx)
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	c := r.Container
	jwtAuth := middleware.JWTAuthMiddleware(c.JWTService, r.Logger)
	limit := r.rateLimiter.Middleware()

	authHandler := api.NewAuthHandler(c.UserService, r.Logger)
	boardHandler := api.NewBoardMemberHandler(c.BoardMemberService)
	conversationHandler := api.NewConversationHandler(c.ConversationService)
	chatHandler := api.NewChatHandler(c.ChatService)
	uploadHandler := api.NewUploadHandler(c.UploadService, c.UserService)
	translateHandler := api.NewTranslateHandler(c.Translator)
	subscriptionHandler := api.NewSubscriptionHandler(c.SubscriptionService)
	adminHandler := api.NewAdminHandler(c.AdminService)

	r.setupHealthRoutes()
	if r.metrics != nil {
		r.Engine.GET("/metrics", gin.WrapH(r.metrics))
	}
	r.Engine.Static("/uploads", r.Config.Features.UploadDir)

	v1 := r.Engine.Group("/api/v1")
	if validate := r.openAPIValidation(r.Config.Features.OpenAPISchemaPath); validate != nil {
		v1.Use(validate)
	}

	// Public routes
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/signup", limit, authHandler.Signup)
		authRoutes.POST("/login", limit, authHandler.Login)
		authRoutes.GET("/me", jwtAuth, authHandler.Me)
	}
	v1.POST("/subscription/webhook", subscriptionHandler.Webhook)

	protected := v1.Group("/")
	protected.Use(jwtAuth, limit)
	{
		boardRoutes := protected.Group("/board-members")
		{
			boardRoutes.GET("", boardHandler.List)
			boardRoutes.POST("", boardHandler.Create)
			boardRoutes.POST("/initialize", boardHandler.Initialize)
			boardRoutes.PUT("/:id", boardHandler.Update)
			boardRoutes.DELETE("/:id", boardHandler.Delete)
		}
		protected.GET("/personalities", boardHandler.Personalities)

		conversationRoutes := protected.Group("/conversations")
		{
			conversationRoutes.GET("", conversationHandler.List)
			conversationRoutes.POST("", conversationHandler.Create)
			conversationRoutes.GET("/:id/messages", conversationHandler.Messages)
		}

		protected.POST("/chat/send", chatHandler.Send)
		protected.POST("/upload", uploadHandler.Upload)
		protected.POST("/translate", translateHandler.Translate)

		subscriptionRoutes := protected.Group("/subscription")
		{
			subscriptionRoutes.GET("", subscriptionHandler.Status)
			subscriptionRoutes.POST("", subscriptionHandler.Create)
			subscriptionRoutes.POST("/stripe", subscriptionHandler.Stripe)
		}

		adminRoutes := protected.Group("/admin")
		adminRoutes.Use(middleware.RequireRole(jwt.RoleAdmin))
		{
			adminRoutes.GET("/settings", adminHandler.Settings)
			adminRoutes.PUT("/settings/:key", adminHandler.UpdateSetting)
			adminRoutes.GET("/analytics", adminHandler.Analytics)
		}
	}

	if r.Config.Features.EnableWebSockets {
		socket := ws.NewHandler(c.Hub, ws.NewUpgrader(r.Config.Security.AllowedOrigins))
		r.Engine.GET("/ws", jwtAuth, socket.ServeWs)
	}
}

// corsMiddleware echoes allowed origins and answers preflight requests, including the WebSocket handshake headers
func corsMiddleware(allowed []string) gin.HandlerFunc {
	wildcard := slices.Contains(allowed, "*")
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case origin == "" && wildcard:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && (wildcard || slices.Contains(allowed, origin)):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Authorization",
			"Origin", "Upgrade", "Connection", "Cache-Control", "X-Request-ID",
		}, ", "))
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
