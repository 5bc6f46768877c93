package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Adedotun019/EventSense-AI/pkg/icron"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// Provider Configuration:
// - ASSEMBLY_API_KEY: API key for the speech-analysis provider (required)
// - ASSEMBLY_API_URL: Provider base URL (default: https://api.assemblyai.com/v2)
// - POLL_INTERVAL_SECONDS: Seconds between job status polls (default: 2)
// - POLL_MAX_ATTEMPTS: Poll attempts before reporting a timeout (default: 60)
// - MAX_UPLOAD_MB: Upload size ceiling in MB (default: 500)
//
// Classifier Configuration:
// - HUGGINGFACE_API_TOKEN: Token for the emotion classifier (optional; empty disables refinement)
// - HUGGINGFACE_API_URL: Classifier endpoint URL
//
// Transcode Configuration:
// - FFMPEG_PATH: ffmpeg binary (default: ffmpeg)
// - FFPROBE_PATH: ffprobe binary (default: ffprobe)
// - WORK_DIR: Working storage for the transcoding engine (default: <tmp>/eventsense)
//
// HTTP / Session Configuration:
// - HTTP_ADDR: Listen address (default: :8080)
// - SESSION_TTL_MINUTES: Idle minutes before a session is evicted (default: 60)
// - CLEANUP_CRON: Janitor schedule, six-field cron (default: 0 */30 * * * *)
// - LOG_LEVEL: debug|info|warn|error (default: info)

type Config struct {
	Provider   ProviderConfig   `json:"provider"`
	Classifier ClassifierConfig `json:"classifier"`
	Transcode  TranscodeConfig  `json:"transcode"`
	HTTP       HTTPConfig       `json:"http"`
	Session    SessionConfig    `json:"session"`
	LogLevel   string           `json:"log_level"`
}

// ProviderConfig holds the configuration for the remote speech-analysis job client.
type ProviderConfig struct {
	APIKey         string        `json:"api_key"`
	APIURL         string        `json:"api_url"`
	PollInterval   time.Duration `json:"poll_interval"`
	MaxAttempts    int           `json:"max_attempts"`
	MaxUploadBytes int64         `json:"max_upload_bytes"`
}

// ClassifierConfig holds the configuration for the secondary text-emotion
// classifier. An empty token is a valid disabled state, not an error.
type ClassifierConfig struct {
	APIToken string `json:"api_token"`
	APIURL   string `json:"api_url"`
}

// TranscodeConfig holds the configuration for the local transcoding engine.
type TranscodeConfig struct {
	FFmpegPath  string `json:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path"`
	WorkDir     string `json:"work_dir"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

// SessionConfig controls in-memory session lifetime and janitor scheduling.
type SessionConfig struct {
	TTL         time.Duration `json:"ttl"`
	CleanupCron string        `json:"cleanup_cron"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	cfg := &Config{
		Provider: ProviderConfig{
			APIKey:         getEnvString("ASSEMBLY_API_KEY", ""),
			APIURL:         getEnvString("ASSEMBLY_API_URL", "https://api.assemblyai.com/v2"),
			PollInterval:   time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)) * time.Second,
			MaxAttempts:    getEnvInt("POLL_MAX_ATTEMPTS", 60),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 500)) * 1024 * 1024,
		},
		Classifier: ClassifierConfig{
			APIToken: getEnvString("HUGGINGFACE_API_TOKEN", ""),
			APIURL: getEnvString("HUGGINGFACE_API_URL",
				"https://api-inference.huggingface.co/models/j-hartmann/emotion-english-distilroberta-base"),
		},
		Transcode: TranscodeConfig{
			FFmpegPath:  getEnvString("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnvString("FFPROBE_PATH", "ffprobe"),
			WorkDir:     getEnvString("WORK_DIR", filepath.Join(os.TempDir(), "eventsense")),
		},
		HTTP: HTTPConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
		Session: SessionConfig{
			TTL:         time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
			CleanupCron: getEnvString("CLEANUP_CRON", "0 */30 * * * *"),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Provider.APIKey == "" {
		return fmt.Errorf("ASSEMBLY_API_KEY is required")
	}
	if c.Provider.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be > 0")
	}
	if c.Provider.MaxAttempts <= 0 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be > 0")
	}
	if c.Provider.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be > 0")
	}
	if err := icron.Validate(c.Session.CleanupCron); err != nil {
		return fmt.Errorf("CLEANUP_CRON: %w", err)
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
