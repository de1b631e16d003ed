package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"ai-board-of-directors/backend/pkg/cache"
	"ai-board-of-directors/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

var (
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// VaultConfig holds configuration for the Vault client
type VaultConfig struct {
	Address    string
	Token      string
	Namespace  string
	Mount      string
	Path       string
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
}

// VaultConfigFromEnv reads VAULT_* variables
func VaultConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Address:    os.Getenv("VAULT_ADDR"),
		Token:      os.Getenv("VAULT_TOKEN"),
		Namespace:  os.Getenv("VAULT_NAMESPACE"),
		Mount:      "secret",
		Path:       os.Getenv("VAULT_SECRETS_PATH"),
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		CacheTTL:   5 * time.Minute,
	}
	if cfg.Path == "" {
		cfg.Path = "ai-board"
	}
	return cfg
}

// VaultManager reads secrets from a KV v2 mount, falling back to the environment for missing keys
type VaultManager struct {
	client *vault.Client
	cfg    VaultConfig
	cache  *cache.Memory
	env    EnvManager
	log    *logger.Logger
}

// NewVaultManager creates a new Vault manager instance
func NewVaultManager(log *logger.Logger, cfg VaultConfig) (*VaultManager, error) {
	if cfg.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if cfg.Token == "" {
		return nil, ErrNoVaultToken
	}

	vcfg := vault.DefaultConfig()
	vcfg.Address = cfg.Address
	vcfg.Timeout = cfg.Timeout
	vcfg.MaxRetries = cfg.MaxRetries

	client, err := vault.NewClient(vcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &VaultManager{
		client: client,
		cfg:    cfg,
		cache:  cache.NewMemory(cache.Options{DefaultTTL: cfg.CacheTTL}),
		log:    log,
	}, nil
}

// GetSecret returns a cached value, then Vault, then the environment
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	if v, ok, _ := m.cache.Get(ctx, key); ok {
		return v, nil
	}

	value, err := m.fromVault(ctx, key)
	if errors.Is(err, ErrSecretNotFound) {
		m.log.Warn("Secret not found in Vault, falling back to environment", "key", key)
		value, err = m.env.GetSecret(ctx, key)
	}
	if err != nil {
		return "", err
	}

	_ = m.cache.Set(ctx, key, value, 0)
	return value, nil
}

func (m *VaultManager) fromVault(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2(m.cfg.Mount).Get(ctx, m.cfg.Path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		m.log.LogError(err, "Failed to read secret from Vault", "path", m.cfg.Path)
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	value, ok := secret.Data[key].(string)
	if !ok {
		return "", ErrSecretNotFound
	}
	return value, nil
}
