package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultListenAddr  = ":8080"
	defaultDBPath      = "agenthub.db"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultTaskTimeout = 300 * time.Second

	envListenAddr   = "AGENTHUB_LISTEN_ADDR"
	envDBPath       = "AGENTHUB_DB_PATH"
	envLogLevel     = "AGENTHUB_LOG_LEVEL"
	envTaskTimeoutS = "AGENTHUB_TASK_TIMEOUT_S"
	envOpenAIKey    = "OPENAI_API_KEY"
	envOpenAIBase   = "OPENAI_BASE_URL"
	envOpenAIModel  = "OPENAI_MODEL"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	LogLevel      slog.Level
	TaskTimeout   time.Duration
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:  defaultListenAddr,
		DBPath:      defaultDBPath,
		LogLevel:    slog.LevelInfo,
		TaskTimeout: defaultTaskTimeout,
		OpenAIModel: defaultOpenAIModel,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envTaskTimeoutS); v != "" {
		if s, err := strconv.Atoi(v); err == nil && s > 0 {
			cfg.TaskTimeout = time.Duration(s) * time.Second
		}
	}
	cfg.OpenAIKey = os.Getenv(envOpenAIKey)
	cfg.OpenAIBaseURL = os.Getenv(envOpenAIBase)
	if v := os.Getenv(envOpenAIModel); v != "" {
		cfg.OpenAIModel = v
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
