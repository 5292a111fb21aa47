package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// GamePassSource selects which adapter variant fetches the Game Pass
// catalog. Only one variant is active per deployment.
const (
	SourceFixture = "fixture"
	SourceScrape  = "scrape"
	SourceFeed    = "feed"
	SourceREST    = "rest"
)

type Config struct {
	DBPath     string
	ServerPort string

	// Market/region code written into catalog rows, e.g. "US".
	Market string
	// Language tag sent to scraped/feed sources, e.g. "en-us".
	Language string

	GamePassSource string
	SeedFixture    bool

	// Base URL overrides for the adapter variants. Empty means the
	// built-in default.
	ScrapeBaseURL string
	FeedBaseURL   string
	FeedIDs       []string
	RESTBaseURL   string

	RequestTimeout time.Duration

	TwitchClientID     string
	TwitchClientSecret string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:             getEnv("DB_PATH", "gametracking.db"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Market:             strings.ToUpper(getEnv("GAMEPASS_MARKET", "US")),
		Language:           strings.ToLower(getEnv("GAMEPASS_LANGUAGE", "en-us")),
		GamePassSource:     strings.ToLower(getEnv("GAMEPASS_SOURCE", SourceFixture)),
		SeedFixture:        getEnvBool("SEED_FIXTURE", true),
		ScrapeBaseURL:      getEnv("SCRAPE_BASE_URL", ""),
		FeedBaseURL:        getEnv("FEED_BASE_URL", ""),
		FeedIDs:            splitList(getEnv("FEED_IDS", "")),
		RESTBaseURL:        getEnv("REST_BASE_URL", ""),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		TwitchClientID:     getEnv("TWITCH_CLIENT_ID", ""),
		TwitchClientSecret: getEnv("TWITCH_CLIENT_SECRET", ""),
	}

	switch cfg.GamePassSource {
	case SourceFixture, SourceScrape, SourceFeed, SourceREST:
	default:
		return nil, fmt.Errorf("unknown GAMEPASS_SOURCE %q", cfg.GamePassSource)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("market", cfg.Market).
		Str("language", cfg.Language).
		Str("gamepass_source", cfg.GamePassSource).
		Bool("seed_fixture", cfg.SeedFixture).
		Dur("request_timeout", cfg.RequestTimeout).
		Bool("igdb_credentials", cfg.TwitchClientID != "" && cfg.TwitchClientSecret != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
