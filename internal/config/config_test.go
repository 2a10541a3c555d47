package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Workers != 1 {
		t.Errorf("expected default workers 1, got %d", cfg.Workers)
	}
	if cfg.Limit != 150000 {
		t.Errorf("expected default limit 150000, got %d", cfg.Limit)
	}
	if cfg.Retries != 2 {
		t.Errorf("expected default retries 2, got %d", cfg.Retries)
	}
	if cfg.RetryDelay != 5*time.Second {
		t.Errorf("expected default retry delay 5s, got %v", cfg.RetryDelay)
	}
	if cfg.ArchiveTimeout != 120*time.Second {
		t.Errorf("expected default archive timeout 120s, got %v", cfg.ArchiveTimeout)
	}
	if cfg.OriginTimeout != 60*time.Second {
		t.Errorf("expected default origin timeout 60s, got %v", cfg.OriginTimeout)
	}
	if cfg.Format != "both" {
		t.Errorf("expected default format both, got %q", cfg.Format)
	}
	if len(cfg.StatusCodes) != 1 || cfg.StatusCodes[0] != 200 {
		t.Errorf("expected default status codes [200], got %v", cfg.StatusCodes)
	}
	if cfg.ArchiveHost != "web.archive.org" {
		t.Errorf("expected default archive host web.archive.org, got %q", cfg.ArchiveHost)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
domain: example.com
workers: 8
limit: 500
format: csv
extensions: [pdf, docx]
status_codes: [200, 301]
archive_timeout: 30s
origin_timeout: 15s
retries: 4
retry_delay: 2s
first: true
deduplicate: true
progress: false
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Domain != "example.com" {
		t.Errorf("expected domain example.com, got %q", cfg.Domain)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Workers)
	}
	if cfg.Limit != 500 {
		t.Errorf("expected limit 500, got %d", cfg.Limit)
	}
	if cfg.Format != "csv" {
		t.Errorf("expected format csv, got %q", cfg.Format)
	}
	if len(cfg.Extensions) != 2 {
		t.Errorf("expected 2 extensions, got %v", cfg.Extensions)
	}
	if len(cfg.StatusCodes) != 2 || cfg.StatusCodes[1] != 301 {
		t.Errorf("expected status codes [200 301], got %v", cfg.StatusCodes)
	}
	if cfg.ArchiveTimeout != 30*time.Second {
		t.Errorf("expected archive timeout 30s, got %v", cfg.ArchiveTimeout)
	}
	if cfg.OriginTimeout != 15*time.Second {
		t.Errorf("expected origin timeout 15s, got %v", cfg.OriginTimeout)
	}
	if cfg.Retries != 4 {
		t.Errorf("expected retries 4, got %d", cfg.Retries)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("expected retry delay 2s, got %v", cfg.RetryDelay)
	}
	if !cfg.First {
		t.Error("expected first true")
	}
	if !cfg.Deduplicate {
		t.Error("expected deduplicate true")
	}
	if cfg.Progress {
		t.Error("expected progress disabled by the file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WAYFETCH_DOMAIN", "example.org")
	t.Setenv("WAYFETCH_WORKERS", "16")
	t.Setenv("WAYFETCH_LIMIT", "1000")
	t.Setenv("WAYFETCH_RETRIES", "3")
	t.Setenv("WAYFETCH_RETRY_DELAY", "500ms")
	t.Setenv("WAYFETCH_PROGRESS", "false")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Domain != "example.org" {
		t.Errorf("expected domain example.org, got %q", cfg.Domain)
	}
	if cfg.Workers != 16 {
		t.Errorf("expected workers 16, got %d", cfg.Workers)
	}
	if cfg.Limit != 1000 {
		t.Errorf("expected limit 1000, got %d", cfg.Limit)
	}
	if cfg.Retries != 3 {
		t.Errorf("expected retries 3, got %d", cfg.Retries)
	}
	if cfg.RetryDelay != 500*time.Millisecond {
		t.Errorf("expected retry delay 500ms, got %v", cfg.RetryDelay)
	}
	if cfg.Progress {
		t.Error("expected progress false")
	}
}

func TestNormalize(t *testing.T) {
	cfg := Default()
	cfg.Domain = " Example.COM "
	cfg.Extensions = []string{"PDF", ".Docx"}
	cfg.Mimetypes = []string{"Application/PDF"}

	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	cfg.Normalize(now)

	if cfg.Domain != "example.com" {
		t.Errorf("expected lowercased domain, got %q", cfg.Domain)
	}
	if cfg.Extensions[0] != ".pdf" || cfg.Extensions[1] != ".docx" {
		t.Errorf("expected dot-prefixed lowercase extensions, got %v", cfg.Extensions)
	}
	if cfg.Mimetypes[0] != "application/pdf" {
		t.Errorf("expected lowercase mimetypes, got %v", cfg.Mimetypes)
	}
	if cfg.OutputDir != "output/example.com_15-03-2024_10:30:00" {
		t.Errorf("unexpected output dir %q", cfg.OutputDir)
	}
}

func TestNormalizeKeepsExplicitOutputDir(t *testing.T) {
	cfg := Default()
	cfg.Domain = "example.com"
	cfg.OutputDir = "dumps/run1"

	cfg.Normalize(time.Now())

	if cfg.OutputDir != "dumps/run1" {
		t.Errorf("expected explicit output dir kept, got %q", cfg.OutputDir)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Domain = "example.com"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing domain",
			mutate:  func(c *Config) { c.Domain = "" },
			wantErr: true,
		},
		{
			name:    "malformed domain",
			mutate:  func(c *Config) { c.Domain = "not a domain" },
			wantErr: true,
		},
		{
			name:    "scheme in domain",
			mutate:  func(c *Config) { c.Domain = "https://example.com" },
			wantErr: true,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "too many workers",
			mutate:  func(c *Config) { c.Workers = MaxWorkers + 1 },
			wantErr: true,
		},
		{
			name:    "zero retries",
			mutate:  func(c *Config) { c.Retries = 0 },
			wantErr: true,
		},
		{
			name:    "negative limit",
			mutate:  func(c *Config) { c.Limit = -1 },
			wantErr: true,
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "bad status code",
			mutate:  func(c *Config) { c.StatusCodes = []int{200, 999} },
			wantErr: true,
		},
		{
			name:    "broken regex",
			mutate:  func(c *Config) { c.Regex = "([" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	cfg := Default()
	if cfg.Download() {
		t.Error("expected index-only run by default")
	}
	cfg.Current = true
	if !cfg.Download() {
		t.Error("expected download run with current set")
	}
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
