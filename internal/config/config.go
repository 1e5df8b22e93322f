package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
	Schedule     ScheduleConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	BaseURL               string
	Timezone              string
	DefaultLocale         string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	TimeoutMillis int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	VerifyTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	AllowedEmailDomain      string
	CookieName              string
	CookieHashKey           string
	CookieBlockKey          string
	CookieSecure            bool
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// RateLimitConfig bounds requests per remote address on auth endpoints.
type RateLimitConfig struct {
	Max           int
	WindowSeconds int
}

// ScheduleConfig controls event listing and the finish sweeper.
type ScheduleConfig struct {
	ListLimit             int
	SweepIntervalSeconds  int
	CompletionWindowHours int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "event-registration"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			BaseURL:               getEnv("APP_BASE_URL", "http://localhost:8080"),
			Timezone:              getEnv("APP_TIMEZONE", "Asia/Ho_Chi_Minh"),
			DefaultLocale:         getEnv("APP_DEFAULT_LOCALE", "vi"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:          lookupEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			TimeoutMillis: getEnvAsInt("REDIS_TIMEOUT_MS", 500),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			VerifyTokenTTLMinutes:   getEnvAsInt("AUTH_VERIFY_TOKEN_TTL_MINUTES", 24*60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AllowedEmailDomain:      getEnv("AUTH_ALLOWED_EMAIL_DOMAIN", "gmail.com"),
			CookieName:              getEnv("AUTH_COOKIE_NAME", "access_token"),
			CookieHashKey:           getEnv("AUTH_COOKIE_HASH_KEY", "dev-cookie-hash-key-change-me-32b"),
			CookieBlockKey:          os.Getenv("AUTH_COOKIE_BLOCK_KEY"),
			CookieSecure:            getEnvAsBool("AUTH_COOKIE_SECURE", false),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		RateLimit: RateLimitConfig{
			Max:           getEnvAsInt("RATE_LIMIT_MAX", 10),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Schedule: ScheduleConfig{
			ListLimit:             getEnvAsInt("SCHEDULE_LIST_LIMIT", 20),
			SweepIntervalSeconds:  getEnvAsInt("SCHEDULE_SWEEP_INTERVAL_SECONDS", 300),
			CompletionWindowHours: getEnvAsInt("SCHEDULE_COMPLETION_WINDOW_HOURS", 72),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("config: invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		return errors.New("config: POSTGRES_DSN is required")
	}
	if strings.TrimSpace(c.Auth.CookieHashKey) == "" {
		return errors.New("config: AUTH_COOKIE_HASH_KEY must not be empty")
	}
	switch len(c.Auth.CookieBlockKey) {
	case 0, 16, 24, 32:
	default:
		return errors.New("config: AUTH_COOKIE_BLOCK_KEY must be 16, 24 or 32 bytes")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Location resolves the configured timezone used to place class periods.
func (a AppConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.Timezone)
}

// Timeout bounds dialing and every command sent to Redis.
func (r RedisConfig) Timeout() time.Duration {
	if r.TimeoutMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(r.TimeoutMillis) * time.Millisecond
}

// Window returns the rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.WindowSeconds) * time.Second
}

// SweepInterval returns how often finished events are swept. Zero disables
// the sweeper.
func (s ScheduleConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

// CompletionWindow is how long after an event ends participants may still
// confirm attendance before the sweeper finishes it.
func (s ScheduleConfig) CompletionWindow() time.Duration {
	if s.CompletionWindowHours < 0 {
		return 0
	}
	return time.Duration(s.CompletionWindowHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// lookupEnv is getEnv that keeps an explicitly empty value.
func lookupEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
