package di

import (
	"context"
	"errors"

	"ai-board-of-directors/backend/ai"
	"ai-board-of-directors/backend/internal/payment"
	"ai-board-of-directors/backend/internal/repository"
	"ai-board-of-directors/backend/internal/service"
	"ai-board-of-directors/backend/internal/translation"
	"ai-board-of-directors/backend/internal/ws"
	"ai-board-of-directors/backend/pkg/cache"
	"ai-board-of-directors/backend/pkg/config"
	"ai-board-of-directors/backend/pkg/jwt"
	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/observability"
	"ai-board-of-directors/backend/pkg/resilience"
	"ai-board-of-directors/backend/pkg/secrets"

	"gorm.io/gorm"
)

// Deps are the infrastructure pieces main builds before the container
type Deps struct {
	Logger  *logger.Logger
	Secrets secrets.Manager
	Cache   cache.Store
	Metrics *observability.Metrics
}

// Container holds all the dependencies for the application
type Container struct {
	DB      *gorm.DB
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *observability.Metrics
	Cache   cache.Store

	JWTService *jwt.Service
	AIBreaker  *resilience.CircuitBreaker

	UserService         *service.UserService
	BoardMemberService  *service.BoardMemberService
	ConversationService *service.ConversationService
	ChatService         *service.ChatService
	UploadService       *service.UploadService
	SubscriptionService *service.SubscriptionService
	AdminService        *service.AdminService
	Translator          *translation.Service

	// Hub is created here and started by the caller with go Hub.Run()
	Hub *ws.Hub
}

// New wires repositories, providers and services. ctx bounds the lifetime of the WebSocket hub.
// Providers without credentials are left out and their features report themselves unavailable.
func New(ctx context.Context, db *gorm.DB, cfg *config.Config, deps Deps) (*Container, error) {
	if db == nil {
		return nil, errors.New("di: database is required")
	}
	log := deps.Logger
	if log == nil {
		log = logger.GetGlobal()
	}
	if deps.Secrets == nil {
		deps.Secrets = secrets.EnvManager{}
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory(cache.Options{
			DefaultTTL:      cfg.Cache.TTL,
			MaxItems:        cfg.Cache.MaxSize,
			CleanupInterval: cfg.Cache.PurgeWindow,
		})
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics()
	}

	jwtService := jwt.NewService(
		secrets.GetWithDefault(ctx, deps.Secrets, secrets.KeyJWT, cfg.JWT.Secret),
		cfg.JWT.ExpiryHours,
	)

	users := repository.NewGormUserRepository(db)
	members := repository.NewGormBoardMemberRepository(db)
	conversations := repository.NewGormConversationRepository(db)
	messages := repository.NewGormMessageRepository(db)
	settings := repository.NewGormSettingRepository(db)

	completer, fallback, breaker := newCompleter(ctx, cfg, deps, log)

	chat := service.NewChatService(conversations, messages, members, completer, deps.Metrics, service.ChatConfig{
		HistoryWindow:     cfg.Features.HistoryWindow,
		Concurrency:       cfg.Features.FanOutConcurrency,
		CompletionTimeout: cfg.Features.CompletionTimeout,
	}, log)

	deepl := translation.NewDeepL(translation.DeepLConfig{
		APIKey:  secrets.GetWithDefault(ctx, deps.Secrets, secrets.KeyDeepL, ""),
		BaseURL: cfg.Services.DeepLBaseURL,
		Timeout: cfg.Server.Timeout,
	})
	if deepl == nil {
		log.Warn("DeepL API key not set, translations fall back to the completion model")
	}
	translator := translation.NewService(deepl, fallback, deps.Cache, deps.Metrics, translation.Config{
		Source: cfg.Services.TranslationSource,
		Target: cfg.Services.TranslationTarget,
		TTL:    cfg.Cache.TTL,
	}, log)

	subscriptions := service.NewSubscriptionService(users,
		newCheckout(ctx, cfg, deps, log),
		newStripe(ctx, cfg, deps, log),
		cfg.Server.FrontendURL, log)

	hub := ws.NewHub(ctx, chat, ws.Stagger{
		Min: cfg.Features.StaggerMin,
		Max: cfg.Features.StaggerMax,
	}, deps.Metrics, log)

	return &Container{
		DB:                  db,
		Config:              cfg,
		Logger:              log,
		Metrics:             deps.Metrics,
		Cache:               deps.Cache,
		JWTService:          jwtService,
		AIBreaker:           breaker,
		UserService:         service.NewUserService(users, jwtService, log),
		BoardMemberService:  service.NewBoardMemberService(members, users, cfg.PersonaLimit, log),
		ConversationService: service.NewConversationService(conversations, messages),
		ChatService:         chat,
		UploadService:       service.NewUploadService(cfg.Features.UploadDir, cfg.Features.MaxUploadSize, log),
		SubscriptionService: subscriptions,
		AdminService:        service.NewAdminService(settings, users, messages),
		Translator:          translator,
		Hub:                 hub,
	}, nil
}

// newCompleter returns the guarded completion client and the model translator used as a DeepL fallback
func newCompleter(ctx context.Context, cfg *config.Config, deps Deps, log *logger.Logger) (ai.Completer, ai.Translator, *resilience.CircuitBreaker) {
	breaker := resilience.NewCircuitBreaker(resilience.DefaultConfig("openai"), log)
	breaker.OnStateChange(func(name string, from, to resilience.State) {
		deps.Metrics.BreakerTransition(name, string(from), string(to))
	})

	client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:      secrets.GetWithDefault(ctx, deps.Secrets, secrets.KeyOpenAI, ""),
		BaseURL:     cfg.Services.OpenAIBaseURL,
		Model:       cfg.Services.OpenAIModel,
		MaxTokens:   cfg.Services.OpenAIMaxTokens,
		Temperature: cfg.Services.OpenAITemperature,
		Timeout:     cfg.Features.CompletionTimeout,
	})
	if err != nil {
		log.Warn("OpenAI client unavailable, every board member will fail", "error", err.Error())
		return ai.NewGuarded(ai.Unavailable{}, breaker), ai.Unavailable{}, breaker
	}
	return ai.NewGuarded(client, breaker), client, breaker
}

// The gateways are returned as interfaces only when configured so the service sees a true nil otherwise.

func newCheckout(ctx context.Context, cfg *config.Config, deps Deps, log *logger.Logger) service.CheckoutGateway {
	gw, err := payment.NewCheckoutVN(payment.CheckoutVNConfig{
		APIToken:  secrets.GetWithDefault(ctx, deps.Secrets, secrets.KeyCheckoutVN, ""),
		WebsiteID: cfg.Services.CheckoutVNWebsite,
		GateID:    cfg.Services.CheckoutVNGate,
		BaseURL:   cfg.Services.CheckoutVNBaseURL,
		Timeout:   cfg.Services.CheckoutVNTimeout,
	})
	if err != nil {
		log.Warn("checkout.vn not configured", "error", err.Error())
		return nil
	}
	return gw
}

func newStripe(ctx context.Context, cfg *config.Config, deps Deps, log *logger.Logger) service.StripeGateway {
	gw, err := payment.NewStripe(secrets.GetWithDefault(ctx, deps.Secrets, secrets.KeyStripe, ""), cfg.Services.StripePriceID)
	if err != nil {
		log.Warn("Stripe not configured", "error", err.Error())
		return nil
	}
	return gw
}

