package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Firebase FirebaseConfig
	Analysis AnalysisConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig holds two credentials for the same database. ServiceDSN is the
// privileged (row-security bypassing) role; it is only handed to server-side writers.
type DatabaseConfig struct {
	DSN          string
	ServiceDSN   string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	Provider  string // jwt or firebase
	JWTSecret string
}

type FirebaseConfig struct {
	CredentialsPath string
}

type AnalysisConfig struct {
	WebhookURL       string
	CallbackBaseURL  string
	CallbackSecret   string
	DispatchTimeout  time.Duration
	DispatchRate     float64 // submissions per second, 0 disables limiting
	DispatchBurst    int
	Ceiling          time.Duration
	CompletionPolicy string
	SweepSchedule    string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"

	PolicyLastWriteWins  = "last_write_wins"
	PolicyRejectTerminal = "reject_terminal"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dsn := getEnv("DB_DSN", "postgres://postgres@localhost:5432/portaal?sslmode=disable")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			DSN:          dsn,
			ServiceDSN:   getEnv("DB_SERVICE_DSN", dsn),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Provider:  strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderJWT)),
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Analysis: AnalysisConfig{
			WebhookURL:       getEnv("ANALYSIS_WEBHOOK_URL", ""),
			CallbackBaseURL:  strings.TrimRight(getEnv("ANALYSIS_CALLBACK_BASE_URL", ""), "/"),
			CallbackSecret:   getEnv("ANALYSIS_CALLBACK_SECRET", ""),
			DispatchTimeout:  getEnvAsDuration("ANALYSIS_DISPATCH_TIMEOUT", 10*time.Second),
			DispatchRate:     getEnvAsFloat("ANALYSIS_DISPATCH_RATE", 5),
			DispatchBurst:    getEnvAsInt("ANALYSIS_DISPATCH_BURST", 10),
			Ceiling:          getEnvAsDuration("ANALYSIS_CEILING", 12*time.Minute),
			CompletionPolicy: strings.ToLower(getEnv("ANALYSIS_COMPLETION_POLICY", PolicyLastWriteWins)),
			SweepSchedule:    getEnv("ANALYSIS_SWEEP_SCHEDULE", "@every 1m"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}

	switch c.Auth.Provider {
	case AuthProviderJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	case AuthProviderFirebase:
		if c.Firebase.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when AUTH_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", AuthProviderJWT, AuthProviderFirebase, c.Auth.Provider)
	}

	switch c.Analysis.CompletionPolicy {
	case PolicyLastWriteWins, PolicyRejectTerminal:
	default:
		return fmt.Errorf("ANALYSIS_COMPLETION_POLICY must be %q or %q", PolicyLastWriteWins, PolicyRejectTerminal)
	}

	if c.Analysis.DispatchRate < 0 {
		return fmt.Errorf("ANALYSIS_DISPATCH_RATE must not be negative")
	}

	if c.Analysis.Ceiling <= 0 {
		return fmt.Errorf("ANALYSIS_CEILING must be positive")
	}

	if c.IsProduction() {
		if c.Analysis.CallbackSecret == "" {
			return fmt.Errorf("ANALYSIS_CALLBACK_SECRET is required in production")
		}
		if c.Analysis.WebhookURL == "" {
			return fmt.Errorf("ANALYSIS_WEBHOOK_URL is required in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
