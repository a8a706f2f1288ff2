package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Scoreboard feed (polled HTTP)
	FeedBaseURL string
	FeedAPIKey  string

	// Scoreboard push feed (WebSocket), optional
	FeedWSEnabled bool
	FeedWSURL     string

	// Reconciliation cadence
	PollInterval time.Duration
	FetchTimeout time.Duration

	// Schedule window
	SchedulePath string

	// Prediction ledger persistence
	LedgerPath string

	// Operator HTTP surface
	HTTPAddr string

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		FeedBaseURL: envStr("FEED_BASE_URL", "https://v1.american-football.api-sports.io"),
		FeedAPIKey:  envStr("FEED_API_KEY", ""),

		FeedWSEnabled: envStr("FEED_WS_ENABLED", "false") == "true",
		FeedWSURL:     envStr("FEED_WS_URL", ""),

		// The feed only refreshes every ~20s server-side; polling faster
		// just burns the request quota.
		PollInterval: envDur("POLL_INTERVAL_SEC", 30),
		FetchTimeout: envDur("FETCH_TIMEOUT_SEC", 15),

		SchedulePath: envStr("SCHEDULE_PATH", "config/schedule.yaml"),
		LedgerPath:   envStr("LEDGER_PATH", "data/ledger.db"),

		HTTPAddr: envStr("HTTP_ADDR", ":8090"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDur(key string, fallbackSec int) time.Duration {
	return time.Duration(envInt(key, fallbackSec)) * time.Second
}
