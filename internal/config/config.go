package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/secrets"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Snapshot  SnapshotConfig
	Storage   StorageConfig
	Refresh   RefreshConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// APIConfig describes the remote FixFinanz REST API this layer
// orchestrates. All business logic lives behind it.
type APIConfig struct {
	// BaseURL is the root of the remote API, e.g. https://api.fixfinanz.de
	BaseURL string
	// Token is the bearer token used for every request. Loaded from the
	// secrets provider in staging/production.
	Token string
	// ConsultantID scopes contact fetches to the authenticated consultant
	ConsultantID string
	// RequestTimeout is the per-call timeout in seconds, applied when the
	// caller's context carries no deadline
	RequestTimeout int
	// MaxRetries bounds connect-level retries per request
	MaxRetries int
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
}

// CORSConfig holds CORS configuration for the dashboard facade
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	WhitelistIPs      []string
	WhitelistPaths    []string
}

// SnapshotConfig controls the local warm-start cache of pipelines and
// stages. Advisory only; current data always comes from the remote API.
type SnapshotConfig struct {
	Enabled bool
	// Path is the sqlite database file
	Path string
}

// StorageConfig controls where accepted import spreadsheets are archived
type StorageConfig struct {
	Mode                  string // "local" or "azure"
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

// RefreshConfig controls the periodic authoritative stage-count recompute
type RefreshConfig struct {
	Enabled  bool
	CronExpr string
}

// RequestTimeoutDuration returns the remote API call timeout as duration
func (a *APIConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(a.RequestTimeout) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// Load loads configuration from file and environment variables.
// This is a basic load that doesn't fetch secrets from vault;
// use LoadWithSecrets for full secret resolution.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Direct environment fallbacks for the values most often set outside
	// the config file
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = v.GetString("FIXFINANZ_API_URL")
	}
	if cfg.API.Token == "" {
		cfg.API.Token = v.GetString("FIXFINANZ_API_TOKEN")
	}
	if cfg.API.ConsultantID == "" {
		cfg.API.ConsultantID = v.GetString("FIXFINANZ_CONSULTANT_ID")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the
// configured source. In development the API token and storage connection
// string come from environment variables; in staging/production they are
// fetched from Azure Key Vault.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SecretSource(cfg.Secrets.Source),
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if token, err := provider.GetSecretOrEnv(ctx, "fixfinanz-api-token", "FIXFINANZ_API_TOKEN"); err == nil && token != "" {
		cfg.API.Token = token
	}
	if connStr, err := provider.GetSecretOrEnv(ctx, "import-archive-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}

	if cfg.API.Token == "" {
		return nil, fmt.Errorf("remote API token not configured (fixfinanz-api-token / FIXFINANZ_API_TOKEN)")
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.App.Environment),
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.String("secret_source", string(provider.Source())),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "FixFinanz Pipeline Dashboard")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8090)

	// Remote API defaults
	v.SetDefault("api.baseURL", "http://localhost:8080")
	v.SetDefault("api.requestTimeout", 30)
	v.SetDefault("api.maxRetries", 3)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300) // 5 minutes

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)

	// CORS defaults - the dashboard frontend runs on its own origin
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health"})

	// Snapshot cache defaults
	v.SetDefault("snapshot.enabled", true)
	v.SetDefault("snapshot.path", "./dashboard-cache.db")

	// Import archive defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./import-archive")
	v.SetDefault("storage.maxUploadSizeMB", 25)

	// Count refresh defaults: every five minutes
	v.SetDefault("refresh.enabled", true)
	v.SetDefault("refresh.cronExpr", "@every 5m")
}
