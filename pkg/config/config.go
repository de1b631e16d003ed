package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Port        string
		GRPCPort    string
		Env         string
		Timeout     time.Duration
		BaseURL     string
		FrontendURL string
	}

	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	JWT struct {
		Secret      string
		ExpiryHours time.Duration
	}

	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		TrustedProxies []string
		MaxBodySize    int64
	}

	Logging struct {
		Level  string
		Format string
	}

	// Board and chat behaviour
	Features struct {
		EnableWebSockets    bool
		FreePersonaLimit    int
		PremiumPersonaLimit int
		ProPersonaLimit     int
		HistoryWindow       int
		FanOutConcurrency   int
		CompletionTimeout   time.Duration
		StaggerMin          time.Duration
		StaggerMax          time.Duration
		UploadDir           string
		MaxUploadSize       int64
		OpenAPISchemaPath   string
	}

	Services struct {
		OpenAIBaseURL     string
		OpenAIModel       string
		OpenAIMaxTokens   int
		OpenAITemperature float64
		DeepLBaseURL      string
		StripePriceID     string
		CheckoutVNBaseURL string
		CheckoutVNWebsite int
		CheckoutVNGate    int
		CheckoutVNTimeout time.Duration
		TranslationSource string
		TranslationTarget string
	}

	// Cache settings. Backend is "memory" or "redis".
	Cache struct {
		Backend     string
		RedisURL    string
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}

	Observability struct {
		ServiceName    string
		EnableTracing  bool
		MetricsEnabled bool
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Only the first call reads the environment.
func New() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		instance = load()
	})

	return instance
}

func load() *Config {
	cfg := &Config{}

	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.GRPCPort = getEnvString("GRPC_PORT", "9091")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.Server.Port)
	cfg.Server.FrontendURL = getEnvString("FRONTEND_URL", "http://localhost:5173")

	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "board-of-directors")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

	cfg.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
	cfg.JWT.ExpiryHours = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	cfg.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 5))
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 16<<20)

	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	cfg.Features.EnableWebSockets = getEnvBool("ENABLE_WEBSOCKETS", true)
	cfg.Features.FreePersonaLimit = getEnvInt("FREE_PERSONA_LIMIT", 2)
	cfg.Features.PremiumPersonaLimit = getEnvInt("PREMIUM_PERSONA_LIMIT", 5)
	cfg.Features.ProPersonaLimit = getEnvInt("PRO_PERSONA_LIMIT", 10)
	cfg.Features.HistoryWindow = getEnvInt("HISTORY_WINDOW", 10)
	cfg.Features.FanOutConcurrency = getEnvInt("FANOUT_CONCURRENCY", 4)
	cfg.Features.CompletionTimeout = getEnvDuration("COMPLETION_TIMEOUT", 45*time.Second)
	cfg.Features.StaggerMin = getEnvDuration("TYPING_STAGGER_MIN", time.Second)
	cfg.Features.StaggerMax = getEnvDuration("TYPING_STAGGER_MAX", 3*time.Second)
	cfg.Features.UploadDir = getEnvString("UPLOAD_DIR", "uploads")
	cfg.Features.MaxUploadSize = getEnvInt64("MAX_UPLOAD_SIZE", 10<<20) // 10MB
	cfg.Features.OpenAPISchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "api/openapi.yaml")

	cfg.Services.OpenAIBaseURL = getEnvString("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.Services.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-4o")
	cfg.Services.OpenAIMaxTokens = getEnvInt("OPENAI_MAX_TOKENS", 300)
	cfg.Services.OpenAITemperature = getEnvFloat("OPENAI_TEMPERATURE", 0.8)
	cfg.Services.DeepLBaseURL = getEnvString("DEEPL_BASE_URL", "https://api-free.deepl.com")
	cfg.Services.StripePriceID = getEnvString("STRIPE_PRICE_ID", "")
	cfg.Services.CheckoutVNBaseURL = getEnvString("CHECKOUT_VN_BASE_URL", "https://checkout.vn")
	cfg.Services.CheckoutVNWebsite = getEnvInt("CHECKOUT_VN_WEBSITE_ID", 0)
	cfg.Services.CheckoutVNGate = getEnvInt("CHECKOUT_VN_GATE_ID", 0)
	cfg.Services.CheckoutVNTimeout = getEnvDuration("CHECKOUT_VN_TIMEOUT", 15*time.Second)
	cfg.Services.TranslationSource = getEnvString("TRANSLATION_SOURCE_LANG", "ZH")
	cfg.Services.TranslationTarget = getEnvString("TRANSLATION_TARGET_LANG", "VI")

	cfg.Cache.Backend = getEnvString("CACHE_BACKEND", "memory")
	cfg.Cache.RedisURL = getEnvString("REDIS_URL", "localhost:6379")
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 24*time.Hour)
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 5000)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

	cfg.Observability.ServiceName = getEnvString("SERVICE_NAME", "board-of-directors")
	cfg.Observability.EnableTracing = getEnvBool("ENABLE_TRACING", false)
	cfg.Observability.MetricsEnabled = getEnvBool("ENABLE_METRICS", true)

	return cfg
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// PersonaLimit returns how many active board members a subscription tier allows
func (c *Config) PersonaLimit(tier string) int {
	switch tier {
	case "pro":
		return c.Features.ProPersonaLimit
	case "premium":
		return c.Features.PremiumPersonaLimit
	default:
		return c.Features.FreePersonaLimit
	}
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
