package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	LLM         LLMConfig       `toml:"llm"`
	Speech      SpeechConfig    `toml:"speech"`
	Ingest      IngestConfig    `toml:"ingest"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// LLMConfig selects and configures the generative-model providers.
type LLMConfig struct {
	DefaultProvider string       `toml:"default_provider" validate:"oneof=gemini claude"`
	Gemini          GeminiConfig `toml:"gemini"`
	Claude          ClaudeConfig `toml:"claude"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// SpeechConfig configures transcription of uploaded audio.
type SpeechConfig struct {
	TranscribeModel string `toml:"transcribe_model"` // Gemini model used for audio transcription
}

// IngestConfig bounds the ingestion pipeline's resource use.
type IngestConfig struct {
	PagesPerChunk       int    `toml:"pages_per_chunk" validate:"gte=1"`
	OCRPageCap          int    `toml:"ocr_page_cap" validate:"gte=1"`
	DocumentCharCap     int    `toml:"document_char_cap" validate:"gte=1"`   // max chars of extracted text sent to the model
	QuickContextChars   int    `toml:"quick_context_chars" validate:"gte=1"` // trailing context window for quick Q&A
	StatusDisplayWindow string `toml:"status_display_window"`                // how long terminal job statuses stay visible
}

// SchedulerConfig configures the background sweep schedule.
type SchedulerConfig struct {
	SweepSchedule string `toml:"sweep_schedule"` // cron expression for expired-status sweeps
}

// DefaultConfig returns the configuration defaults applied before any
// file or environment overrides.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8177,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/memoro",
			},
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			Gemini: GeminiConfig{
				Model:       "gemini-2.0-flash",
				Temperature: 0.4,
			},
			Claude: ClaudeConfig{
				Model:       "claude-sonnet-4-20250514",
				Temperature: 0.4,
				MaxTokens:   4096,
			},
		},
		Speech: SpeechConfig{
			TranscribeModel: "gemini-2.0-flash",
		},
		Ingest: IngestConfig{
			PagesPerChunk:       5,
			OCRPageCap:          20,
			DocumentCharCap:     30000,
			QuickContextChars:   6000,
			StatusDisplayWindow: "10s",
		},
		Scheduler: SchedulerConfig{
			SweepSchedule: "@every 5s",
		},
	}
}

// LoadConfig loads configuration in priority order:
// defaults -> config file (if present) -> environment variables.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := config.StatusDisplayWindow(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies MEMORO_* environment variables on top of the
// loaded configuration.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("MEMORO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("MEMORO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("MEMORO_GEMINI_API_KEY"); v != "" {
		config.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv("MEMORO_ANTHROPIC_API_KEY"); v != "" {
		config.LLM.Claude.APIKey = v
	}
	if v := os.Getenv("MEMORO_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("MEMORO_DEFAULT_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = v
	}
}

// StatusDisplayWindow parses the configured terminal-status display window.
func (c *Config) StatusDisplayWindow() (time.Duration, error) {
	window, err := time.ParseDuration(c.Ingest.StatusDisplayWindow)
	if err != nil {
		return 0, fmt.Errorf("invalid status_display_window %q: %w", c.Ingest.StatusDisplayWindow, err)
	}
	return window, nil
}
