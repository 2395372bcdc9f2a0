package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath     string
	ServerPort string
	LogLevel   string

	// External activity feed.
	FeedBaseURL  string
	FeedTimezone string // IANA name of the feed's native timezone
	FeedPageSize int    // entries requested per poll

	// Ingestion.
	PollInterval    time.Duration
	PollConcurrency int
	DropMarkers     []string // substrings identifying an item-find entry
	InactivePrefix  string   // RSN prefix flagging a player as inactive

	// Competition.
	DefaultLives int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "quest.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		FeedBaseURL:     getEnv("FEED_BASE_URL", "https://apps.runescape.com"),
		FeedTimezone:    getEnv("FEED_TIMEZONE", "UTC"),
		FeedPageSize:    getEnvInt("FEED_PAGE_SIZE", 20),
		PollInterval:    getEnvDuration("POLL_INTERVAL", 5*time.Minute),
		PollConcurrency: getEnvInt("POLL_CONCURRENCY", 4),
		DropMarkers:     getEnvList("DROP_MARKERS", []string{"I found a"}),
		InactivePrefix:  getEnv("INACTIVE_PREFIX", "-"),
		DefaultLives:    getEnvInt("DEFAULT_LIVES", 2),
	}

	if _, err := time.LoadLocation(cfg.FeedTimezone); err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEZONE %q: %w", cfg.FeedTimezone, err)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if cfg.DefaultLives <= 0 {
		return nil, fmt.Errorf("DEFAULT_LIVES must be positive")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("feed_base_url", cfg.FeedBaseURL).
		Str("feed_timezone", cfg.FeedTimezone).
		Dur("poll_interval", cfg.PollInterval).
		Int("default_lives", cfg.DefaultLives).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
