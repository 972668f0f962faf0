package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/internal/engine"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Sla          SlaConfig
	Escalation   EscalationConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
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
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SlaConfig is the operational policy table: resolution hours per
// priority tier plus the pre-breach alert window and scan cadence.
type SlaConfig struct {
	HighHours              int
	MediumHours            int
	LowHours               int
	AlertWindowMinutes     int
	MonitorIntervalMinutes int
}

// EscalationConfig tunes the chat-escalation bridge.
type EscalationConfig struct {
	DefaultCategoryName string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "cortexdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Sla: SlaConfig{
			HighHours:              getEnvAsInt("SLA_HIGH_HOURS", 4),
			MediumHours:            getEnvAsInt("SLA_MEDIUM_HOURS", 24),
			LowHours:               getEnvAsInt("SLA_LOW_HOURS", 72),
			AlertWindowMinutes:     getEnvAsInt("SLA_ALERT_WINDOW_MINUTES", 30),
			MonitorIntervalMinutes: getEnvAsInt("SLA_MONITOR_INTERVAL_MINUTES", 5),
		},
		Escalation: EscalationConfig{
			DefaultCategoryName: getEnv("ESCALATION_DEFAULT_CATEGORY", "Billing / Account"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@cortexdesk.example"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if _, err := cfg.Sla.Policy(); err != nil {
		return nil, err
	}

	return cfg, nil
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

// Policy converts the env table into the engine policy, rejecting
// tables where a higher tier gets more time than a lower one.
func (s SlaConfig) Policy() (engine.SlaPolicy, error) {
	policy := engine.SlaPolicy{
		Durations: map[domain.TicketPriority]time.Duration{
			domain.TicketPriorityHigh:   time.Duration(s.HighHours) * time.Hour,
			domain.TicketPriorityMedium: time.Duration(s.MediumHours) * time.Hour,
			domain.TicketPriorityLow:    time.Duration(s.LowHours) * time.Hour,
		},
		AlertWindow: time.Duration(s.AlertWindowMinutes) * time.Minute,
	}
	if err := policy.Validate(); err != nil {
		return engine.SlaPolicy{}, fmt.Errorf("invalid SLA config: %w", err)
	}
	return policy, nil
}

// MonitorInterval returns the breach-scan cadence.
func (s SlaConfig) MonitorInterval() time.Duration {
	if s.MonitorIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.MonitorIntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
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
