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

// EnvPrefix is prepended to every environment variable the tool reads
const EnvPrefix = "BILIFOLLOW_"

// Config holds all configuration options for the following-list exporter
type Config struct {
	// Bilibili session cookies and HTTP identity
	Bilibili BilibiliConfig `yaml:"bilibili" json:"bilibili"`

	// Following-list pagination
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`

	// Per-entry enrichment
	Enrich EnrichConfig `yaml:"enrich" json:"enrich"`

	// Global request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BilibiliConfig holds the session cookies copied from a logged-in browser
type BilibiliConfig struct {
	SESSDATA   string        `yaml:"sessdata" json:"sessdata"`
	BiliJCT    string        `yaml:"bili_jct" json:"bili_jct"`
	DedeUserID string        `yaml:"dede_user_id" json:"dede_user_id"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent"`
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// PaginationConfig controls the sequential following-list walk
type PaginationConfig struct {
	PageSize  int           `yaml:"page_size" json:"page_size"`
	PageDelay time.Duration `yaml:"page_delay" json:"page_delay"`
}

// EnrichConfig controls the enrichment pipeline
type EnrichConfig struct {
	Followers   bool          `yaml:"followers" json:"followers"`
	Likes       bool          `yaml:"likes" json:"likes"`
	Videos      bool          `yaml:"videos" json:"videos"`
	Level       bool          `yaml:"level" json:"level"`
	Official    bool          `yaml:"official" json:"official"`
	Concurrency int           `yaml:"concurrency" json:"concurrency"`
	Adaptive    bool          `yaml:"adaptive" json:"adaptive"`
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
	EntryDelay  time.Duration `yaml:"entry_delay" json:"entry_delay"`
}

// RateLimitConfig caps the request rate across all workers; zero disables it
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output configuration
type OutputConfig struct {
	Directory         string `yaml:"directory" json:"directory"`
	Sort              string `yaml:"sort" json:"sort"`
	Filter            string `yaml:"filter" json:"filter"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// Valid sort modes for the rendered document
var validSortModes = map[string]bool{
	"default": true, "followers": true, "name": true,
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Bilibili: BilibiliConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			BaseURL:   "https://api.bilibili.com",
			Timeout:   15 * time.Second,
		},
		Pagination: PaginationConfig{
			PageSize:  50,
			PageDelay: 500 * time.Millisecond,
		},
		Enrich: EnrichConfig{
			Concurrency: 6,
			Adaptive:    true,
			MaxRetries:  2,
			EntryDelay:  300 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
		},
		Output: OutputConfig{
			Directory:         ".",
			Sort:              "default",
			OverwriteExisting: false,
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(name string, dst *bool) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = strings.ToLower(v) == "true" || v == "1"
		}
	}

	setString("SESSDATA", &c.Bilibili.SESSDATA)
	setString("BILI_JCT", &c.Bilibili.BiliJCT)
	setString("DEDE_USER_ID", &c.Bilibili.DedeUserID)
	setString("USER_AGENT", &c.Bilibili.UserAgent)
	setString("BASE_URL", &c.Bilibili.BaseURL)

	setInt("PAGE_SIZE", &c.Pagination.PageSize)
	setInt("CONCURRENCY", &c.Enrich.Concurrency)
	setInt("MAX_RETRIES", &c.Enrich.MaxRetries)
	setBool("ADAPTIVE", &c.Enrich.Adaptive)
	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)

	if fields := os.Getenv(EnvPrefix + "FIELDS"); fields != "" {
		if err := c.Enrich.SetFields(fields); err != nil {
			errs = append(errs, err)
		}
	}

	setString("OUTPUT_DIR", &c.Output.Directory)
	setString("SORT", &c.Output.Sort)
	setBool("NOTIFICATIONS_ENABLED", &c.Notifications.Enabled)
	setString("LOG_LEVEL", &c.Logging.Level)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
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

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"bilifollow.yaml",
		".bilifollow.yaml",
		".bilifollow.yml",
		filepath.Join(home, ".config", "bilifollow", "config.yaml"),
		filepath.Join(home, ".config", "bilifollow", "config.yml"),
		filepath.Join(home, ".bilifollow.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// SetFields replaces the enrichment field selection with a comma separated list.
// "all" selects every field and "none" clears the selection.
func (e *EnrichConfig) SetFields(list string) error {
	e.Followers, e.Likes, e.Videos, e.Level, e.Official = false, false, false, false, false

	for _, raw := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
		case "none":
			e.Followers, e.Likes, e.Videos, e.Level, e.Official = false, false, false, false, false
		case "all":
			e.Followers, e.Likes, e.Videos, e.Level, e.Official = true, true, true, true, true
		case "followers", "follower":
			e.Followers = true
		case "likes", "like":
			e.Likes = true
		case "videos", "video", "videocount":
			e.Videos = true
		case "level":
			e.Level = true
		case "official":
			e.Official = true
		default:
			return fmt.Errorf("unknown enrichment field %q", name)
		}
	}
	return nil
}

// Fields returns the enabled enrichment field names in canonical order
func (e *EnrichConfig) Fields() []string {
	var fields []string
	if e.Followers {
		fields = append(fields, "followers")
	}
	if e.Likes {
		fields = append(fields, "likes")
	}
	if e.Videos {
		fields = append(fields, "videos")
	}
	if e.Level {
		fields = append(fields, "level")
	}
	if e.Official {
		fields = append(fields, "official")
	}
	return fields
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Bilibili.BaseURL == "" {
		errs = append(errs, errors.New("bilibili base URL is required"))
	}
	if c.Bilibili.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Pagination.PageSize <= 0 || c.Pagination.PageSize > 50 {
		errs = append(errs, errors.New("page size must be between 1 and 50"))
	}
	if c.Pagination.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}

	if c.Enrich.Concurrency <= 0 {
		errs = append(errs, errors.New("enrichment concurrency must be positive"))
	}
	if c.Enrich.Concurrency > 32 {
		errs = append(errs, errors.New("enrichment concurrency should not exceed 32"))
	}
	if c.Enrich.MaxRetries < 0 || c.Enrich.MaxRetries > 10 {
		errs = append(errs, errors.New("max retries must be between 0 and 10"))
	}
	if c.Enrich.EntryDelay < 0 {
		errs = append(errs, errors.New("entry delay cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if !validSortModes[strings.ToLower(c.Output.Sort)] {
		errs = append(errs, fmt.Errorf("invalid sort mode %q (default, followers, name)", c.Output.Sort))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) error {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["sort"].(string); ok && v != "" {
		c.Output.Sort = v
	}
	if v, ok := flags["filter"].(string); ok {
		c.Output.Filter = v
	}
	if v, ok := flags["overwrite"].(bool); ok {
		c.Output.OverwriteExisting = v
	}
	if v, ok := flags["concurrency"].(int); ok && v > 0 {
		c.Enrich.Concurrency = v
	}
	if v, ok := flags["adaptive"].(bool); ok {
		c.Enrich.Adaptive = v
	}
	if v, ok := flags["max-retries"].(int); ok && v >= 0 {
		c.Enrich.MaxRetries = v
	}
	if v, ok := flags["page-size"].(int); ok && v > 0 {
		c.Pagination.PageSize = v
	}
	if v, ok := flags["requests-per-minute"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["fields"].(string); ok {
		if err := c.Enrich.SetFields(v); err != nil {
			return err
		}
	}
	return nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".bilifollow.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := config.MergeCommandLineFlags(flags); err != nil {
		return nil, fmt.Errorf("invalid command line flags: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
