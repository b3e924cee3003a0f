package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Badge store backends.
const (
	BadgeStoreSQL    = "sql"
	BadgeStoreRedis  = "redis"
	BadgeStoreMemory = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Remote     RemoteConfig
	LocalDB    LocalDBConfig
	Redis      RedisConfig
	BadgeStore string
	Session    SessionConfig
	CORS       CORSConfig
	Log        LogConfig
	Refresh    RefreshConfig
	Metrics    MetricsConfig
	Docs       DocsConfig
}

// RemoteConfig points the client at the result service.
type RemoteConfig struct {
	BaseURL          string
	Timeout          time.Duration
	AuthScheme       string
	BatchConcurrency int
}

// LocalDBConfig describes the keyed store used for badges and the session.
// Driver is either "sqlite3" (DSN is a file path) or "postgres".
type LocalDBConfig struct {
	Driver       string
	DSN          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// SessionConfig controls how tokens are sealed at rest.
type SessionConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RefreshConfig tunes the background status reconciliation queue.
type RefreshConfig struct {
	Enabled    bool
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// DocsConfig toggles the swagger UI.
type DocsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Remote = RemoteConfig{
		BaseURL:          strings.TrimRight(v.GetString("REMOTE_BASE_URL"), "/"),
		Timeout:          parseDuration(v.GetString("REMOTE_TIMEOUT"), 30*time.Second),
		AuthScheme:       v.GetString("REMOTE_AUTH_SCHEME"),
		BatchConcurrency: v.GetInt("REMOTE_BATCH_CONCURRENCY"),
	}

	cfg.LocalDB = LocalDBConfig{
		Driver:       v.GetString("LOCAL_DB_DRIVER"),
		DSN:          v.GetString("LOCAL_DB_DSN"),
		Host:         v.GetString("LOCAL_DB_HOST"),
		Port:         v.GetInt("LOCAL_DB_PORT"),
		User:         v.GetString("LOCAL_DB_USER"),
		Password:     v.GetString("LOCAL_DB_PASSWORD"),
		Name:         v.GetString("LOCAL_DB_NAME"),
		SSLMode:      v.GetString("LOCAL_DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("LOCAL_DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("LOCAL_DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
	}

	cfg.BadgeStore = strings.ToLower(v.GetString("BADGE_STORE"))
	cfg.Session = SessionConfig{Secret: v.GetString("SESSION_SECRET")}
	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Refresh = RefreshConfig{
		Enabled:    v.GetBool("ENABLE_STATUS_REFRESH"),
		Workers:    v.GetInt("REFRESH_WORKERS"),
		Retries:    v.GetInt("REFRESH_RETRIES"),
		RetryDelay: parseDuration(v.GetString("REFRESH_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}
	cfg.Docs = DocsConfig{Enabled: v.GetBool("ENABLE_DOCS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8787)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REMOTE_BASE_URL", "https://result-system.onrender.com")
	v.SetDefault("REMOTE_TIMEOUT", "30s")
	v.SetDefault("REMOTE_AUTH_SCHEME", "JWT")
	v.SetDefault("REMOTE_BATCH_CONCURRENCY", 8)

	v.SetDefault("LOCAL_DB_DRIVER", "sqlite3")
	v.SetDefault("LOCAL_DB_DSN", "result-desk.db")
	v.SetDefault("LOCAL_DB_HOST", "localhost")
	v.SetDefault("LOCAL_DB_PORT", 5432)
	v.SetDefault("LOCAL_DB_USER", "postgres")
	v.SetDefault("LOCAL_DB_PASSWORD", "postgres")
	v.SetDefault("LOCAL_DB_NAME", "result_desk")
	v.SetDefault("LOCAL_DB_SSL_MODE", "disable")
	v.SetDefault("LOCAL_DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("LOCAL_DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "result-desk:")

	v.SetDefault("BADGE_STORE", BadgeStoreSQL)
	v.SetDefault("SESSION_SECRET", "dev_session_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_STATUS_REFRESH", true)
	v.SetDefault("REFRESH_WORKERS", 1)
	v.SetDefault("REFRESH_RETRIES", 2)
	v.SetDefault("REFRESH_RETRY_DELAY", "2s")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_DOCS", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
