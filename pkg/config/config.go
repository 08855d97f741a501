package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the tag scraper
type Config struct {
	// Danbooru API settings
	Danbooru DanbooruConfig `yaml:"danbooru" json:"danbooru"`

	// Scrape run settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DanbooruConfig holds API endpoint and credential configuration
type DanbooruConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	Username       string        `yaml:"username" json:"username"`
	APIKey         string        `yaml:"api_key" json:"api_key"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ScrapeConfig holds the parameters of a single scrape run. These are
// fixed for the life of the run.
type ScrapeConfig struct {
	OutputFile                string        `yaml:"output_file" json:"output_file"`
	Category                  string        `yaml:"category" json:"category"`
	MinPostCount              int           `yaml:"min_post_count" json:"min_post_count"`
	Order                     string        `yaml:"order" json:"order"`
	IncludeMetadata           bool          `yaml:"include_metadata" json:"include_metadata"`
	Delay                     time.Duration `yaml:"delay" json:"delay"`
	KeepCheckpointOnInterrupt bool          `yaml:"keep_checkpoint_on_interrupt" json:"keep_checkpoint_on_interrupt"`
}

// RateLimitConfig holds the backoff policy applied when the API answers
// with 429
type RateLimitConfig struct {
	BackoffStrategy   string        `yaml:"backoff_strategy" json:"backoff_strategy"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	MaxBackoff        time.Duration `yaml:"max_backoff" json:"max_backoff"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// ValidOrders lists the sort orders the tags endpoint accepts.
var ValidOrders = []string{"name", "newest", "count"}

// ValidCategories lists the category selectors accepted on the command
// line and in config files. "all" selects the degraded full-dump mode
// with no checkpointing.
var ValidCategories = []string{"general", "artist", "copyright", "character", "meta", "all"}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Danbooru: DanbooruConfig{
			BaseURL:        "https://danbooru.donmai.us",
			UserAgent:      "TagScraper/1.0",
			RequestTimeout: 20 * time.Second,
		},
		Scrape: ScrapeConfig{
			Category:                  "general",
			MinPostCount:              0,
			Order:                     "name",
			IncludeMetadata:           false,
			Delay:                     500 * time.Millisecond,
			KeepCheckpointOnInterrupt: false,
		},
		RateLimit: RateLimitConfig{
			BackoffStrategy:   "fixed",
			BackoffMultiplier: 4.0,
			MaxBackoff:        60 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Load .env file if present; missing file is not an error
	_ = godotenv.Load()

	if username := os.Getenv("TAGSCRAPER_USERNAME"); username != "" {
		c.Danbooru.Username = username
	}
	if apiKey := os.Getenv("TAGSCRAPER_API_KEY"); apiKey != "" {
		c.Danbooru.APIKey = apiKey
	}
	if baseURL := os.Getenv("TAGSCRAPER_BASE_URL"); baseURL != "" {
		c.Danbooru.BaseURL = baseURL
	}
	if userAgent := os.Getenv("TAGSCRAPER_USER_AGENT"); userAgent != "" {
		c.Danbooru.UserAgent = userAgent
	}
	if output := os.Getenv("TAGSCRAPER_OUTPUT_FILE"); output != "" {
		c.Scrape.OutputFile = output
	}
	if delay := os.Getenv("TAGSCRAPER_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d > 0 {
			c.Scrape.Delay = d
		}
	}
	if minPosts := os.Getenv("TAGSCRAPER_MIN_POST_COUNT"); minPosts != "" {
		if val, err := strconv.Atoi(minPosts); err == nil && val >= 0 {
			c.Scrape.MinPostCount = val
		}
	}
	if logLevel := os.Getenv("TAGSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	candidates := []string{
		"tagscraper.yaml",
		"tagscraper.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".tagscraper.yaml"),
			filepath.Join(home, ".config", "tagscraper", "config.yaml"),
		)
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// Validate checks that the configuration is usable for a run
func (c *Config) Validate() error {
	if c.Scrape.OutputFile == "" {
		return errors.New("scrape.output_file is required")
	}

	validOrder := false
	for _, order := range ValidOrders {
		if c.Scrape.Order == order {
			validOrder = true
			break
		}
	}
	if !validOrder {
		return fmt.Errorf("scrape.order must be one of %s, got %q",
			strings.Join(ValidOrders, ", "), c.Scrape.Order)
	}

	validCategory := false
	for _, category := range ValidCategories {
		if c.Scrape.Category == category {
			validCategory = true
			break
		}
	}
	if !validCategory {
		return fmt.Errorf("scrape.category must be one of %s, got %q",
			strings.Join(ValidCategories, ", "), c.Scrape.Category)
	}

	if c.Scrape.MinPostCount < 0 {
		return errors.New("scrape.min_post_count cannot be negative")
	}
	if c.Scrape.Delay <= 0 {
		return errors.New("scrape.delay must be positive")
	}

	switch c.RateLimit.BackoffStrategy {
	case "fixed", "exponential":
	default:
		return fmt.Errorf("rate_limit.backoff_strategy must be fixed or exponential, got %q",
			c.RateLimit.BackoffStrategy)
	}
	if c.RateLimit.BackoffMultiplier < 1.0 {
		return errors.New("rate_limit.backoff_multiplier must be at least 1.0")
	}

	// A credential pair is all-or-nothing; a lone username or key is a
	// misconfiguration, not a partial login.
	if (c.Danbooru.Username == "") != (c.Danbooru.APIKey == "") {
		return errors.New("danbooru.username and danbooru.api_key must be set together")
	}

	return nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies command line flags to the configuration.
// Flags have the highest priority.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "output":
			if v, ok := value.(string); ok {
				c.Scrape.OutputFile = v
			}
		case "category":
			if v, ok := value.(string); ok {
				c.Scrape.Category = v
			}
		case "min-posts":
			if v, ok := value.(int); ok {
				c.Scrape.MinPostCount = v
			}
		case "order":
			if v, ok := value.(string); ok {
				c.Scrape.Order = v
			}
		case "metadata":
			if v, ok := value.(bool); ok {
				c.Scrape.IncludeMetadata = v
			}
		case "delay":
			if v, ok := value.(time.Duration); ok {
				c.Scrape.Delay = v
			}
		case "keep-checkpoint":
			if v, ok := value.(bool); ok {
				c.Scrape.KeepCheckpointOnInterrupt = v
			}
		case "username":
			if v, ok := value.(string); ok {
				c.Danbooru.Username = v
			}
		case "api-key":
			if v, ok := value.(string); ok {
				c.Danbooru.APIKey = v
			}
		case "backoff-strategy":
			if v, ok := value.(string); ok {
				c.RateLimit.BackoffStrategy = v
			}
		case "log-level":
			if v, ok := value.(string); ok {
				c.Logging.Level = v
			}
		}
	}
}

// Load builds the effective configuration from defaults, environment,
// an optional config file and command line flags, in increasing order
// of priority.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
