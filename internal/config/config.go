package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

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
	SLA          SLAConfig
	Realtime     RealtimeConfig
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
	MigrationsDir  string
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
	JWTSecret              string
	AccessTokenTTLMinutes  int
	RefreshTokenTTLMinutes int
	BcryptCost             int
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// NotificationConfig controls in-app and email delivery.
type NotificationConfig struct {
	EmailEnabled   bool
	EmailProvider  string
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string
}

// SLAConfig holds the default response-time table and sweep schedule.
// Rows in the system_config table override the hour defaults at runtime.
type SLAConfig struct {
	CriticalHours     int
	HighHours         int
	MediumHours       int
	LowHours          int
	RiskWindowMinutes int
	SweepSchedule     string
	TicketPrefix      string
}

// RealtimeConfig configures the websocket gateway.
type RealtimeConfig struct {
	Enabled bool
	Host    string
	Port    string
	Channel string
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
			Name:                  getEnv("APP_NAME", "alertdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
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
			JWTSecret:              getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			RefreshTokenTTLMinutes: getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_MINUTES", 7*24*60),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapAdminEmail:    os.Getenv("AUTH_BOOTSTRAP_ADMIN_EMAIL"),
			BootstrapAdminPassword: os.Getenv("AUTH_BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Notification: NotificationConfig{
			EmailEnabled:   getEnvAsBool("ALERT_EMAIL_ENABLED", false),
			EmailProvider:  getEnv("NOTIFY_EMAIL_PROVIDER", "log"),
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			EmailFrom:      getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			EmailFromName:  getEnv("NOTIFY_EMAIL_FROM_NAME", "Site Operations"),
		},
		SLA: SLAConfig{
			CriticalHours:     getEnvAsInt("SLA_HOURS_CRITICAL", 4),
			HighHours:         getEnvAsInt("SLA_HOURS_HIGH", 8),
			MediumHours:       getEnvAsInt("SLA_HOURS_MEDIUM", 24),
			LowHours:          getEnvAsInt("SLA_HOURS_LOW", 72),
			RiskWindowMinutes: getEnvAsInt("SLA_RISK_WINDOW_MINUTES", 120),
			SweepSchedule:     getEnv("SLA_SWEEP_SCHEDULE", "@every 5m"),
			TicketPrefix:      getEnv("TICKET_NUMBER_PREFIX", "TKT"),
		},
		Realtime: RealtimeConfig{
			Enabled: getEnvAsBool("REALTIME_ENABLED", true),
			Host:    getEnv("REALTIME_HOST", "0.0.0.0"),
			Port:    getEnv("REALTIME_PORT", "8081"),
			Channel: getEnv("REALTIME_REDIS_CHANNEL", "alertdesk:realtime"),
		},
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

// Addr returns the websocket gateway bind address.
func (r RealtimeConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// RiskWindow returns the AT_RISK window before a deadline.
func (s SLAConfig) RiskWindow() time.Duration {
	if s.RiskWindowMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(s.RiskWindowMinutes) * time.Minute
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
