package secrets

import (
	"context"
	"errors"
	"os"
	"strings"

	"ai-board-of-directors/backend/pkg/logger"
)

// Keys resolved at startup for upstream providers
const (
	KeyOpenAI     = "openai-api-key"
	KeyDeepL      = "deepl-api-key"
	KeyStripe     = "stripe-secret-key"
	KeyCheckoutVN = "checkout-vn-api-key"
	KeyJWT        = "jwt-secret"
)

var ErrSecretNotFound = errors.New("secret not found")

// Manager provides access to secrets
type Manager interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// New returns a vault-backed manager when VAULT_ENABLED is set, otherwise an environment manager
func New(log *logger.Logger) (Manager, error) {
	if !enabled(os.Getenv("VAULT_ENABLED")) {
		log.Info("Vault disabled, reading secrets from environment")
		return EnvManager{}, nil
	}
	return NewVaultManager(log, VaultConfigFromEnv())
}

// GetWithDefault returns the secret or defaultValue when it cannot be resolved
func GetWithDefault(ctx context.Context, m Manager, key, defaultValue string) string {
	v, err := m.GetSecret(ctx, key)
	if err != nil || v == "" {
		return defaultValue
	}
	return v
}

// EnvManager reads secrets from environment variables. "openai-api-key" maps to OPENAI_API_KEY.
type EnvManager struct{}

func (EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	v := os.Getenv(EnvName(key))
	if v == "" {
		return "", ErrSecretNotFound
	}
	return v, nil
}

// EnvName converts a secret key to its environment variable name
func EnvName(key string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}

// Static is a fixed map of secrets, used in tests and local tooling
type Static map[string]string

func (s Static) GetSecret(_ context.Context, key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", ErrSecretNotFound
	}
	return v, nil
}

func enabled(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}
