package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAlbumURL is the album page processed when nothing else is configured
	DefaultAlbumURL = "https://www.douban.com/photos/album/145972492/?m_start=72"

	// DefaultOutputDir is created relative to the working directory
	DefaultOutputDir = "douban_english_ocr"

	// DefaultUserAgent impersonates a desktop Chrome browser
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"

	// EnvPrefix prefixes every environment variable read by LoadFromEnv
	EnvPrefix = "ALBUMOCR_"

	// MaxWorkers bounds download.concurrent_workers
	MaxWorkers = 8
)

// Duplicate label policies
const (
	OnDuplicateSuffix    = "suffix"
	OnDuplicateOverwrite = "overwrite"
)

// Config holds all configuration options for albumocr
type Config struct {
	// Album source
	Album AlbumConfig `yaml:"album" json:"album"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// OCR engine settings
	OCR OCRConfig `yaml:"ocr" json:"ocr"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AlbumConfig describes the page to scrape
type AlbumConfig struct {
	URL       string `yaml:"url" json:"url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory   string `yaml:"directory" json:"directory"`
	OnDuplicate string `yaml:"on_duplicate" json:"on_duplicate"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// Timeout of zero leaves the HTTP client without a deadline
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	ConcurrentWorkers int           `yaml:"concurrent_workers" json:"concurrent_workers"`
}

// RateLimitConfig spaces image downloads; zero disables limiting
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OCRConfig holds recognizer settings
type OCRConfig struct {
	Languages []string `yaml:"languages" json:"languages"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Album: AlbumConfig{
			URL:       DefaultAlbumURL,
			UserAgent: DefaultUserAgent,
		},
		Output: OutputConfig{
			Directory:   DefaultOutputDir,
			OnDuplicate: OnDuplicateSuffix,
		},
		Download: DownloadConfig{
			Timeout:           0,
			ConcurrentWorkers: 1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
		},
		OCR: OCRConfig{
			Languages: []string{"eng"},
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if albumURL := os.Getenv(EnvPrefix + "ALBUM_URL"); albumURL != "" {
		c.Album.URL = albumURL
	}
	if userAgent := os.Getenv(EnvPrefix + "USER_AGENT"); userAgent != "" {
		c.Album.UserAgent = userAgent
	}
	if outputDir := os.Getenv(EnvPrefix + "OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if policy := os.Getenv(EnvPrefix + "ON_DUPLICATE"); policy != "" {
		c.Output.OnDuplicate = policy
	}

	if timeout := os.Getenv(EnvPrefix + "TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Download.Timeout = d
	}
	if workers := os.Getenv(EnvPrefix + "CONCURRENT_WORKERS"); workers != "" {
		val, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid %sCONCURRENT_WORKERS: %w", EnvPrefix, err)
		}
		c.Download.ConcurrentWorkers = val
	}
	if rpm := os.Getenv(EnvPrefix + "REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid %sREQUESTS_PER_MINUTE: %w", EnvPrefix, err)
		}
		c.RateLimit.RequestsPerMinute = val
	}

	if langs := os.Getenv(EnvPrefix + "OCR_LANGUAGES"); langs != "" {
		c.OCR.Languages = splitList(langs)
	}

	if logLevel := os.Getenv(EnvPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(EnvPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
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

// FindConfigFile returns the first config file found in the standard
// locations, or "" when there is none
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".albumocr.yaml",
		".albumocr.yml",
		filepath.Join(home, ".config", "albumocr", "config.yaml"),
		filepath.Join(home, ".config", "albumocr", "config.yml"),
		filepath.Join(home, ".albumocr.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Album.URL == "" {
		errs = append(errs, errors.New("album URL is required"))
	} else if u, err := url.Parse(c.Album.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("album URL must be an absolute http(s) URL: %q", c.Album.URL))
	}
	if strings.TrimSpace(c.Album.UserAgent) == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch c.Output.OnDuplicate {
	case OnDuplicateSuffix, OnDuplicateOverwrite:
	default:
		errs = append(errs, fmt.Errorf("invalid duplicate policy %q (want %s or %s)", c.Output.OnDuplicate, OnDuplicateSuffix, OnDuplicateOverwrite))
	}

	if c.Download.Timeout < 0 {
		errs = append(errs, errors.New("download timeout cannot be negative"))
	}
	if c.Download.ConcurrentWorkers <= 0 {
		errs = append(errs, errors.New("concurrent workers must be positive"))
	}
	if c.Download.ConcurrentWorkers > MaxWorkers {
		errs = append(errs, fmt.Errorf("concurrent workers should not exceed %d", MaxWorkers))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if len(c.OCR.Languages) == 0 {
		errs = append(errs, errors.New("at least one OCR language is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if albumURL, ok := flags["album-url"].(string); ok && albumURL != "" {
		c.Album.URL = albumURL
	}
	if userAgent, ok := flags["user-agent"].(string); ok && userAgent != "" {
		c.Album.UserAgent = userAgent
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if policy, ok := flags["on-duplicate"].(string); ok && policy != "" {
		c.Output.OnDuplicate = policy
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok {
		c.Download.Timeout = timeout
	}
	if workers, ok := flags["concurrent"].(int); ok {
		c.Download.ConcurrentWorkers = workers
	}
	if rpm, ok := flags["rate-limit"].(int); ok {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if langs, ok := flags["lang"].([]string); ok && len(langs) > 0 {
		c.OCR.Languages = langs
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".albumocr.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
