package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" validate:"oneof=development production"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Queue       QueueConfig     `toml:"queue"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	RAG         RAGConfig       `toml:"rag"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type QueueConfig struct {
	PollInterval      string `toml:"poll_interval"`      // e.g., "1s" - how often workers poll for messages
	Concurrency       int    `toml:"concurrency" validate:"min=1"`
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g., "5m" - message visibility timeout for redelivery
	QueueName         string `toml:"queue_name"`         // Queue name prefix in Badger
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// GeminiConfig holds Google Gemini API settings
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`           // Generation model
	EmbedModel     string  `toml:"embed_model"`     // Embedding model
	EmbedDimension int     `toml:"embed_dimension"` // Output dimensionality for embeddings
	Timeout        string  `toml:"timeout"`         // Per-call timeout, e.g. "2m"
	RateLimit      string  `toml:"rate_limit"`      // Minimum interval between embedding calls, e.g. "250ms"
	Temperature    float32 `toml:"temperature"`
}

// ClaudeConfig holds Anthropic Claude API settings
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider identifies the default generation provider
const (
	LLMProviderGemini = "gemini"
	LLMProviderClaude = "claude"
)

type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" validate:"oneof=gemini claude"`
}

// RAGConfig enumerates the retrieval pipeline knobs. The chunk target size
// is a character budget; the overlap is a word count. The mixed units are
// deliberate - downstream consumers depend on the resulting fragment
// boundaries.
type RAGConfig struct {
	ChunkTargetSize int `toml:"chunk_target_size" validate:"min=1"` // Characters per fragment
	ChunkOverlap    int `toml:"chunk_overlap" validate:"min=0"`     // Words carried across a boundary
	TopK            int `toml:"top_k" validate:"min=1"`             // Default fragments per query context
}

// SchedulerConfig controls the pending-sweep job that re-enqueues documents
// never attempted (for example after a crash mid-queue). Failed ingestions
// are terminal and never re-enqueued by the sweep.
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
	Limit    int    `toml:"limit"`    // Max documents to enqueue per sweep
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8985,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/lectern",
				ResetOnStartup: false,
			},
		},
		Queue: QueueConfig{
			PollInterval:      "1s",
			Concurrency:       2,
			VisibilityTimeout: "5m",
			QueueName:         "ingestion",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key (GEMINI_API_KEY or config)
			Model:          "gemini-2.0-flash",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 768,
			Timeout:        "2m",
			RateLimit:      "250ms",
			Temperature:    0.2,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-3-5-haiku-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		RAG: RAGConfig{
			ChunkTargetSize: 1000,
			ChunkOverlap:    200,
			TopK:            3,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "@every 5m",
			Limit:    50,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier files, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration once at the orchestrator boundary.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for name, value := range map[string]string{
		"queue.poll_interval":      c.Queue.PollInterval,
		"queue.visibility_timeout": c.Queue.VisibilityTimeout,
		"gemini.timeout":           c.Gemini.Timeout,
		"gemini.rate_limit":        c.Gemini.RateLimit,
		"claude.timeout":           c.Claude.Timeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s = %q: %w", name, value, err)
		}
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid configuration: scheduler.schedule = %q: %w", c.Scheduler.Schedule, err)
		}
	}

	return nil
}

// ApplyFlagOverrides applies command-line overrides, the highest priority
// configuration source.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Duration parses a duration config value that has already passed Validate.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LECTERN_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("LECTERN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LECTERN_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("LECTERN_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if concurrency := os.Getenv("LECTERN_QUEUE_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = n
		}
	}
	if pollInterval := os.Getenv("LECTERN_QUEUE_POLL_INTERVAL"); pollInterval != "" {
		config.Queue.PollInterval = pollInterval
	}

	if level := os.Getenv("LECTERN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("LECTERN_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}

	// API keys: a key in the config file wins; otherwise the LECTERN_-prefixed
	// variable is preferred over the provider's conventional one.
	if config.Gemini.APIKey == "" {
		config.Gemini.APIKey = firstEnv("LECTERN_GEMINI_API_KEY", "GEMINI_API_KEY")
	}
	if config.Claude.APIKey == "" {
		config.Claude.APIKey = firstEnv("LECTERN_CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
