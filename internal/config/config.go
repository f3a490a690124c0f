package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAdminToken is the placeholder shared secret. It is refused in production.
const DefaultAdminToken = "devtoken"

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type StorageConfig struct {
	Dir string
}

type AuthConfig struct {
	AdminToken        string
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	BcryptCost        int
	TimingBaseDelay   time.Duration
	TimingRandomDelay time.Duration
}

type RateLimitConfig struct {
	MaxRequests            int
	Window                 time.Duration
	AdminRequestsPerMinute int
}

// Addr returns host:port for the HTTP listener
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("HOST", "127.0.0.1"),
			Port:           getEnv("PORT", "5000"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Storage: StorageConfig{
			Dir: getEnv("USER_FILES_DIR", "./user_files"),
		},
		Auth: AuthConfig{
			AdminToken:        getEnv("ADMIN_TOKEN", DefaultAdminToken),
			MaxFailedAttempts: getEnvAsInt("MAX_FAILED_ATTEMPTS", 5),
			LockoutDuration:   getEnvAsDuration("LOCKOUT_DURATION", 15*time.Minute),
			BcryptCost:        getEnvAsInt("BCRYPT_COST", 12),
			TimingBaseDelay:   time.Duration(getEnvAsInt("TIMING_DELAY_BASE_MS", 0)) * time.Millisecond,
			TimingRandomDelay: time.Duration(getEnvAsInt("TIMING_DELAY_RANDOM_MS", 0)) * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:            getEnvAsInt("MAX_REQUESTS_PER_WINDOW", 30),
			Window:                 getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			AdminRequestsPerMinute: getEnvAsInt("ADMIN_REQUESTS_PER_MINUTE", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.Dir == "" {
		return fmt.Errorf("USER_FILES_DIR cannot be empty")
	}
	if c.Auth.MaxFailedAttempts < 1 {
		return fmt.Errorf("MAX_FAILED_ATTEMPTS must be at least 1 (got %d)", c.Auth.MaxFailedAttempts)
	}
	if c.Auth.LockoutDuration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be positive")
	}
	if c.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("MAX_REQUESTS_PER_WINDOW must be at least 1 (got %d)", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.RateLimit.AdminRequestsPerMinute < 1 {
		return fmt.Errorf("ADMIN_REQUESTS_PER_MINUTE must be at least 1 (got %d)", c.RateLimit.AdminRequestsPerMinute)
	}
	if c.Auth.TimingBaseDelay < 0 || c.Auth.TimingRandomDelay < 0 {
		return fmt.Errorf("timing delays cannot be negative")
	}

	return validateAdminToken(c.Auth.AdminToken, c.Server.Env)
}

// validateAdminToken rejects the placeholder and short secrets in production
func validateAdminToken(token, env string) error {
	if token == "" {
		return fmt.Errorf("ADMIN_TOKEN cannot be empty")
	}
	if env != "production" {
		return nil
	}

	if token == DefaultAdminToken {
		return fmt.Errorf("ADMIN_TOKEN must be overridden in production")
	}
	if len(token) < 32 {
		return fmt.Errorf("ADMIN_TOKEN must be at least 32 characters in production (got %d)", len(token))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return []string{}
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if origins := getEnvAsList("ALLOWED_ORIGINS"); len(origins) > 0 || env == "production" {
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5000",
		"http://127.0.0.1:5173",
	}
}
