package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend identifiers.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Config holds environment driven settings for the process.
type Config struct {
	Env            string
	Host           string
	Port           string
	AllowedOrigins []string
	LogLevel       string
	LogDir         string

	// SeedDemoCatalog controls whether the demo courses and progress record
	// are loaded into the in-memory catalog at boot.
	SeedDemoCatalog bool

	// SimulatedLatency models the round trip each state mutation performs.
	// Zero disables the artificial suspension point.
	SimulatedLatency time.Duration

	Storage StorageConfig
}

// StorageConfig selects and configures the durable key-value backend.
type StorageConfig struct {
	Backend  string
	FilePath string
	Redis    RedisConfig
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load builds a Config from environment variables with sensible defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getEnv("LMS_ENV", "development"),
		Host:             getEnv("LMS_HOST", "0.0.0.0"),
		Port:             getEnv("LMS_PORT", "8080"),
		LogLevel:         getEnv("LMS_LOG_LEVEL", "info"),
		LogDir:           getEnv("LMS_LOG_DIR", "logs"),
		SeedDemoCatalog:  getEnvAsBool("LMS_SEED_DEMO_CATALOG", true),
		SimulatedLatency: time.Duration(getEnvAsInt("LMS_SIMULATED_LATENCY_MS", 1000)) * time.Millisecond,
	}

	cfg.AllowedOrigins = splitAndTrim(os.Getenv("LMS_ALLOWED_ORIGINS"))
	cfg.Storage = loadStorageConfig()

	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ServerAddress joins the host and port into a listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction reports whether the app is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:  strings.ToLower(getEnv("LMS_STORAGE_BACKEND", StorageFile)),
		FilePath: getEnv("LMS_STORAGE_FILE", "data/local.json"),
		Redis: RedisConfig{
			Addr:     os.Getenv("LMS_REDIS_ADDR"),
			Password: os.Getenv("LMS_REDIS_PASSWORD"),
			DB:       getEnvAsInt("LMS_REDIS_DB", 0),
		},
	}
}

func (s StorageConfig) validate() error {
	switch s.Backend {
	case StorageMemory, StorageFile:
		return nil
	case StorageRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("LMS_REDIS_ADDR is required for the %q storage backend", StorageRedis)
		}
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
