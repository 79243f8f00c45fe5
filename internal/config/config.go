package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type OAuthProvider struct {
	Key         string
	Secret      string
	CallbackURL string
}

// Enabled reports whether both credentials are present.
func (p OAuthProvider) Enabled() bool {
	return p.Key != "" && p.Secret != ""
}

type Config struct {
	Port            int
	DatabasePath    string
	MigrationsDir   string
	MongoURI        string
	MongoDatabase   string
	AdminPassword   string
	Google          OAuthProvider
	Discord         OAuthProvider
	SessionLifetime time.Duration
	DemoRetention   time.Duration
	CleanupSchedule string
	AllowedOrigins  []string
	LogLevel        slog.Level
}

// Load reads the configuration from the environment. A .env file is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}

	sessionLifetime, err := time.ParseDuration(getenv("SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME: %w", err)
	}

	demoRetention, err := time.ParseDuration(getenv("DEMO_RETENTION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEMO_RETENTION: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return &Config{
		Port:          port,
		DatabasePath:  getenv("DATABASE_PATH", "tiebreak.db"),
		MigrationsDir: getenv("MIGRATIONS_DIR", "./migrations"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getenv("MONGO_DATABASE", "tiebreak"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		Google: OAuthProvider{
			Key:         os.Getenv("GOOGLE_KEY"),
			Secret:      os.Getenv("GOOGLE_SECRET"),
			CallbackURL: os.Getenv("GOOGLE_CALLBACK_URL"),
		},
		Discord: OAuthProvider{
			Key:         os.Getenv("DISCORD_KEY"),
			Secret:      os.Getenv("DISCORD_SECRET"),
			CallbackURL: os.Getenv("DISCORD_CALLBACK_URL"),
		},
		SessionLifetime: sessionLifetime,
		DemoRetention:   demoRetention,
		CleanupSchedule: getenv("CLEANUP_SCHEDULE", "@hourly"),
		AllowedOrigins:  splitList(getenv("ALLOWED_ORIGINS", "*")),
		LogLevel:        level,
	}, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
