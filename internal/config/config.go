package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Allowed browser origins for the extension (comma separated).
	CORSOrigins []string

	// User settings file
	SettingsPath string

	// Import worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Session state
	SessionTTL time.Duration

	// Outline scheduler
	Debounce            time.Duration
	PostGenerationDelay time.Duration
	FallbackDelay       time.Duration

	// Transcript layout
	LayoutWidth    int
	ViewportHeight int

	// PDF
	PDFFallbackPdftotext bool

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("OUTLINE_API_KEY"),

		CORSOrigins: envList("CORS_ORIGINS", []string{"chrome-extension://*", "moz-extension://*"}),

		SettingsPath: envOr("SETTINGS_PATH", "outline-settings.yaml"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		SessionTTL: envDuration("SESSION_TTL", 2*time.Hour),

		Debounce:            envDuration("DEBOUNCE", 300*time.Millisecond),
		PostGenerationDelay: envDuration("POST_GENERATION_DELAY", 500*time.Millisecond),
		FallbackDelay:       envDuration("FALLBACK_DELAY", 3*time.Second),

		LayoutWidth:    envInt("LAYOUT_WIDTH", 80),
		ViewportHeight: envInt("VIEWPORT_HEIGHT", 40),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.LayoutWidth <= 0 {
		cfg.LayoutWidth = 80
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = 40
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OUTLINE_API_KEY is required")
	}
	if c.Debounce <= 0 || c.PostGenerationDelay <= 0 || c.FallbackDelay <= 0 {
		return fmt.Errorf("scheduler delays must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
