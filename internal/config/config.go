package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
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
	Workflow     WorkflowConfig
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
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// NotificationConfig holds delivery stub endpoints and log defaults.
type NotificationConfig struct {
	EmailFrom string
	WebhookURL string
	// MarkSystemRead controls whether automated System-actor log entries
	// start out already read.
	MarkSystemRead bool
}

// SLAConfig holds per-category resolution targets.
type SLAConfig struct {
	DefaultTargetHours int
	// TargetHoursByCategory overrides the default per request category.
	TargetHoursByCategory map[string]int
	// AtRiskFraction of the target after which a request counts as at risk.
	AtRiskFraction float64
}

// WorkflowConfig maps request types to their ordered step sequences.
type WorkflowConfig struct {
	StepsByType  map[string][]string
	DefaultSteps []string
}

// StepsFor returns the workflow step sequence for a request type.
func (w WorkflowConfig) StepsFor(requestType string) []string {
	if steps, ok := w.StepsByType[requestType]; ok && len(steps) > 0 {
		return steps
	}
	return w.DefaultSteps
}

// TargetFor returns the SLA resolution target for a category.
func (s SLAConfig) TargetFor(category string) time.Duration {
	hours := s.DefaultTargetHours
	if override, ok := s.TargetHoursByCategory[category]; ok && override > 0 {
		hours = override
	}
	if hours <= 0 {
		hours = 72
	}
	return time.Duration(hours) * time.Hour
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
			Name:                  getEnv("APP_NAME", "citizen-request-service"),
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
			Addr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			CacheTTLSeconds: getEnvAsInt("REDIS_CACHE_TTL_SECONDS", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:      getEnv("NOTIFY_EMAIL_FROM", "noreply@mairie.ma"),
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
			MarkSystemRead: getEnvAsBool("NOTIFY_MARK_SYSTEM_READ", false),
		},
		SLA: SLAConfig{
			DefaultTargetHours:    getEnvAsInt("SLA_DEFAULT_TARGET_HOURS", 72),
			TargetHoursByCategory: parseIntMap(os.Getenv("SLA_TARGET_HOURS")),
			AtRiskFraction:        getEnvAsFloat("SLA_AT_RISK_FRACTION", 0.8),
		},
		Workflow: WorkflowConfig{
			StepsByType:  defaultWorkflowSteps(),
			DefaultSteps: []string{"Réception", "Analyse", "Traitement", "Validation", "Clôture"},
		},
	}

	return cfg, nil
}

// defaultWorkflowSteps carries the step sequences used by the municipal
// services. Request types without an entry fall back to DefaultSteps.
func defaultWorkflowSteps() map[string][]string {
	return map[string][]string{
		"Urbanisme": {"Réception", "Classification", "Analyse technique", "Validation", "Réponse", "Clôture"},
		"Transport": {"Réception", "Classification", "Intervention", "Réparation", "Vérification", "Clôture"},
		"Voirie":    {"Réception", "Classification", "Intervention", "Réparation", "Vérification", "Clôture"},
	}
}

// parseIntMap parses "key=hours,key=hours" pairs.
func parseIntMap(raw string) map[string]int {
	result := map[string]int{}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		hours, err := strconv.Atoi(parts[1])
		if err != nil || hours <= 0 {
			continue
		}
		result[parts[0]] = hours
	}
	return result
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

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
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
