package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Replicate API
	ReplicateAPIToken   string
	ReplicateAPIBaseURL string

	// Store persistence
	StoreBackend     string // "file", "postgres" or "redis"
	StorePath        string
	DatabaseURL      string
	RedisAddr        string
	SnapshotSchedule string // cron spec, empty disables snapshots
	SnapshotDir      string

	// Supabase storage mirror (optional)
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseStorageBucket  string

	// Auth (optional; API is open when unset)
	JWTSecret string

	// Server
	Port        string
	Environment string
	BaseURL     string

	// Credits granted to a fresh store
	StartingCredits int
}

func Load() (*Config, error) {
	// Load .env if present; in production everything comes from the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		ReplicateAPIToken:   getEnv("REPLICATE_API_TOKEN", ""),
		ReplicateAPIBaseURL: getEnv("REPLICATE_API_BASE_URL", "https://api.replicate.com/v1/"),

		StoreBackend:     getEnv("STORE_BACKEND", "file"),
		StorePath:        getEnv("STORE_PATH", "comicforge.json"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", ""),
		SnapshotDir:      getEnv("SNAPSHOT_DIR", "snapshots"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "comic-panels"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		StartingCredits: getEnvAsInt("STARTING_CREDITS", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ReplicateAPIToken == "" {
		return fmt.Errorf("REPLICATE_API_TOKEN is required")
	}
	switch c.StoreBackend {
	case "file":
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the file backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StartingCredits < 0 {
		return fmt.Errorf("STARTING_CREDITS must not be negative")
	}
	return nil
}

// SupabaseEnabled reports whether generated panels should be mirrored to
// Supabase Storage.
func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabasePublishableKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: %s is not an integer, using default %d", key, defaultValue)
	}
	return defaultValue
}
