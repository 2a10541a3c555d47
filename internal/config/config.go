package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxWorkers is the upper bound for the parallel download pool.
const MaxWorkers = 64

var domainRe = regexp.MustCompile(`^(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,}$`)

// Config defines configuration for the wayfetch CLI.
type Config struct {
	Domain         string        `yaml:"domain"`
	ArchiveHost    string        `yaml:"archive_host"`
	Scheme         string        `yaml:"scheme"`
	Limit          int           `yaml:"limit"`
	OutputDir      string        `yaml:"output_dir"`
	Format         string        `yaml:"format"`
	Extensions     []string      `yaml:"extensions"`
	Mimetypes      []string      `yaml:"mimetypes"`
	Regex          string        `yaml:"regex"`
	StatusCodes    []int         `yaml:"status_codes"`
	Structured     bool          `yaml:"structured"`
	Workers        int           `yaml:"workers"`
	ArchiveTimeout time.Duration `yaml:"archive_timeout"`
	OriginTimeout  time.Duration `yaml:"origin_timeout"`
	Retries        int           `yaml:"retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	First          bool          `yaml:"first"`
	Last           bool          `yaml:"last"`
	Current        bool          `yaml:"current"`
	Deduplicate    bool          `yaml:"deduplicate"`
	Progress       bool          `yaml:"progress"`
	Verbose        bool          `yaml:"verbose"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		ArchiveHost:    "web.archive.org",
		Scheme:         "https",
		Limit:          150000,
		Format:         "both",
		StatusCodes:    []int{200},
		Workers:        1,
		ArchiveTimeout: 120 * time.Second,
		OriginTimeout:  60 * time.Second,
		Retries:        2,
		RetryDelay:     5 * time.Second,
		Progress:       true,
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Domain         string   `yaml:"domain"`
	ArchiveHost    string   `yaml:"archive_host"`
	Scheme         string   `yaml:"scheme"`
	Limit          int      `yaml:"limit"`
	OutputDir      string   `yaml:"output_dir"`
	Format         string   `yaml:"format"`
	Extensions     []string `yaml:"extensions"`
	Mimetypes      []string `yaml:"mimetypes"`
	Regex          string   `yaml:"regex"`
	StatusCodes    []int    `yaml:"status_codes"`
	Structured     bool     `yaml:"structured"`
	Workers        int      `yaml:"workers"`
	ArchiveTimeout string   `yaml:"archive_timeout"`
	OriginTimeout  string   `yaml:"origin_timeout"`
	Retries        int      `yaml:"retries"`
	RetryDelay     string   `yaml:"retry_delay"`
	First          bool     `yaml:"first"`
	Last           bool     `yaml:"last"`
	Current        bool     `yaml:"current"`
	Deduplicate    bool     `yaml:"deduplicate"`
	Progress       *bool    `yaml:"progress"`
	Verbose        bool     `yaml:"verbose"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Domain != "" {
		cfg.Domain = yc.Domain
	}
	if yc.ArchiveHost != "" {
		cfg.ArchiveHost = yc.ArchiveHost
	}
	if yc.Scheme != "" {
		cfg.Scheme = yc.Scheme
	}
	if yc.Limit != 0 {
		cfg.Limit = yc.Limit
	}
	if yc.OutputDir != "" {
		cfg.OutputDir = yc.OutputDir
	}
	if yc.Format != "" {
		cfg.Format = yc.Format
	}
	if len(yc.Extensions) > 0 {
		cfg.Extensions = yc.Extensions
	}
	if len(yc.Mimetypes) > 0 {
		cfg.Mimetypes = yc.Mimetypes
	}
	if yc.Regex != "" {
		cfg.Regex = yc.Regex
	}
	if len(yc.StatusCodes) > 0 {
		cfg.StatusCodes = yc.StatusCodes
	}
	cfg.Structured = yc.Structured
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.ArchiveTimeout != "" {
		d, err := time.ParseDuration(yc.ArchiveTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse archive_timeout: %w", err)
		}
		cfg.ArchiveTimeout = d
	}
	if yc.OriginTimeout != "" {
		d, err := time.ParseDuration(yc.OriginTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse origin_timeout: %w", err)
		}
		cfg.OriginTimeout = d
	}
	if yc.Retries != 0 {
		cfg.Retries = yc.Retries
	}
	if yc.RetryDelay != "" {
		d, err := time.ParseDuration(yc.RetryDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry_delay: %w", err)
		}
		cfg.RetryDelay = d
	}
	cfg.First = yc.First
	cfg.Last = yc.Last
	cfg.Current = yc.Current
	cfg.Deduplicate = yc.Deduplicate
	if yc.Progress != nil {
		cfg.Progress = *yc.Progress
	}
	cfg.Verbose = yc.Verbose

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the WAYFETCH_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("WAYFETCH_DOMAIN"); v != "" {
		c.Domain = v
	}
	if v := os.Getenv("WAYFETCH_ARCHIVE_HOST"); v != "" {
		c.ArchiveHost = v
	}
	if v := os.Getenv("WAYFETCH_SCHEME"); v != "" {
		c.Scheme = v
	}
	if v := os.Getenv("WAYFETCH_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse WAYFETCH_LIMIT: %w", err)
		}
		c.Limit = n
	}
	if v := os.Getenv("WAYFETCH_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("WAYFETCH_FORMAT"); v != "" {
		c.Format = v
	}
	if v := os.Getenv("WAYFETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse WAYFETCH_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("WAYFETCH_ARCHIVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse WAYFETCH_ARCHIVE_TIMEOUT: %w", err)
		}
		c.ArchiveTimeout = d
	}
	if v := os.Getenv("WAYFETCH_ORIGIN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse WAYFETCH_ORIGIN_TIMEOUT: %w", err)
		}
		c.OriginTimeout = d
	}
	if v := os.Getenv("WAYFETCH_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse WAYFETCH_RETRIES: %w", err)
		}
		c.Retries = n
	}
	if v := os.Getenv("WAYFETCH_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse WAYFETCH_RETRY_DELAY: %w", err)
		}
		c.RetryDelay = d
	}
	if v := os.Getenv("WAYFETCH_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("WAYFETCH_VERBOSE"); v != "" {
		c.Verbose = v == "true" || v == "1"
	}

	return nil
}

// Normalize brings list-valued fields to their canonical form and
// fills in the output directory when none was given.
func (c *Config) Normalize(now time.Time) {
	c.Domain = strings.ToLower(strings.TrimSpace(c.Domain))

	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
	for i, mt := range c.Mimetypes {
		c.Mimetypes[i] = strings.ToLower(strings.TrimSpace(mt))
	}

	if c.OutputDir == "" {
		c.OutputDir = path.Join("output", fmt.Sprintf("%s_%s", c.Domain, now.Format("02-01-2006_15:04:05")))
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return errors.New("config: domain is required")
	}
	if !domainRe.MatchString(c.Domain) {
		return fmt.Errorf("config: %q is not a valid domain", c.Domain)
	}
	if c.Limit <= 0 {
		return errors.New("config: limit must be positive")
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("config: workers must be between 1 and %d", MaxWorkers)
	}
	if c.Retries < 1 {
		return errors.New("config: retries must be at least 1")
	}
	if c.ArchiveTimeout <= 0 || c.OriginTimeout <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	switch c.Format {
	case "csv", "json", "both":
	default:
		return fmt.Errorf("config: unknown format %q (want csv, json or both)", c.Format)
	}
	for _, code := range c.StatusCodes {
		if code < 100 || code > 599 {
			return fmt.Errorf("config: %d is not an HTTP status code", code)
		}
	}
	if c.Regex != "" {
		if _, err := regexp.Compile(c.Regex); err != nil {
			return fmt.Errorf("config: invalid regex: %w", err)
		}
	}
	return nil
}

// Download reports whether any variant of the files was requested
// for download, as opposed to an index-only run.
func (c *Config) Download() bool {
	return c.First || c.Last || c.Current
}
