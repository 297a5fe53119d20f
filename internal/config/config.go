// Package config loads runner settings from the environment. A .env file
// in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"cron-shell/internal/crawler"
)

const (
	DefaultTargets    = "openclaw-explorers,agentautomation,agent-ops,mcp,tooling"
	DefaultTTLSeconds = 30 * 60
	DefaultBaseURL    = "https://www.moltbook.com/m/"
)

type Config struct {
	// Home is the directory holding artifacts/ and state/.
	Home         string
	BaseURL      string
	UserAgent    string
	FetchTimeout time.Duration
	LogLevel     string
}

// Load reads .env (if any) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return &Config{
		Home:         getEnv("CRON_SHELL_HOME", "."),
		BaseURL:      getEnv("CRON_SHELL_BASE_URL", DefaultBaseURL),
		UserAgent:    getEnv("CRON_SHELL_UA", crawler.DefaultUserAgent),
		FetchTimeout: time.Duration(getEnvAsInt("CRON_SHELL_FETCH_TIMEOUT", 20)) * time.Second,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}, nil
}

// getEnv treats an empty value as unset.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return fallback
}
