package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("full file parses", func(t *testing.T) {
		t.Parallel()

		content := `
seeds:
  - lemmy.ml
  - beehaw.org
exclude:
  - spam.example
concurrency: 20
timeout: 45s
crawl_timeout: 10m
max_distance: 2
min_lemmy_version: "0.19.0"
request_rate: 5.5
proxy: 127.0.0.1:9050
`
		path := filepath.Join(t.TempDir(), ".fedicensus")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile returned error: %v", err)
		}

		if len(cf.Seeds) != 2 || cf.Seeds[0] != "lemmy.ml" {
			t.Errorf("unexpected seeds: %v", cf.Seeds)
		}
		if len(cf.Exclude) != 1 || cf.Exclude[0] != "spam.example" {
			t.Errorf("unexpected exclude: %v", cf.Exclude)
		}
		if cf.Concurrency != 20 {
			t.Errorf("Concurrency = %d, want 20", cf.Concurrency)
		}
		if cf.Timeout.Duration != 45*time.Second {
			t.Errorf("Timeout = %v, want 45s", cf.Timeout.Duration)
		}
		if cf.CrawlTimeout.Duration != 10*time.Minute {
			t.Errorf("CrawlTimeout = %v, want 10m", cf.CrawlTimeout.Duration)
		}
		if cf.MaxDistance == nil || *cf.MaxDistance != 2 {
			t.Errorf("MaxDistance = %v, want 2", cf.MaxDistance)
		}
		if cf.MinLemmyVersion != "0.19.0" {
			t.Errorf("MinLemmyVersion = %q, want 0.19.0", cf.MinLemmyVersion)
		}
		if cf.RequestRate != 5.5 {
			t.Errorf("RequestRate = %v, want 5.5", cf.RequestRate)
		}
		if cf.Proxy != "127.0.0.1:9050" {
			t.Errorf("Proxy = %q, want 127.0.0.1:9050", cf.Proxy)
		}
	})

	t.Run("numeric timeout treated as seconds", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".fedicensus")
		if err := os.WriteFile(path, []byte("timeout: 90\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile returned error: %v", err)
		}
		if cf.Timeout.Duration != 90*time.Second {
			t.Errorf("Timeout = %v, want 90s", cf.Timeout.Duration)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".fedicensus")
		if err := os.WriteFile(path, []byte("seeds: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error, got nil")
		}
	})
}

func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("set values override defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		zero := 0
		cf := &File{
			Seeds:       []string{"lemmy.ml"},
			Concurrency: 5,
			Timeout:     Duration{Duration: time.Minute},
			MaxDistance: &zero,
			Proxy:       "127.0.0.1:1080",
		}
		cf.Apply(cfg)

		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "lemmy.ml" {
			t.Errorf("unexpected seeds: %v", cfg.Seeds)
		}
		if cfg.Concurrency != 5 {
			t.Errorf("Concurrency = %d, want 5", cfg.Concurrency)
		}
		if cfg.Timeout != time.Minute {
			t.Errorf("Timeout = %v, want 1m", cfg.Timeout)
		}
		if cfg.MaxDistance != 0 {
			t.Errorf("MaxDistance = %d, want 0", cfg.MaxDistance)
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("ProxyAddress = %q, want 127.0.0.1:1080", cfg.ProxyAddress)
		}
	})

	t.Run("unset values keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		(&File{}).Apply(cfg)

		if cfg.Concurrency != DefaultConcurrency {
			t.Errorf("Concurrency = %d, want default %d", cfg.Concurrency, DefaultConcurrency)
		}
		if cfg.Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v, want default %v", cfg.Timeout, DefaultTimeout)
		}
		if cfg.MaxDistance != DefaultMaxDistance {
			t.Errorf("MaxDistance = %d, want default %d", cfg.MaxDistance, DefaultMaxDistance)
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	// Not parallel: manipulates the working directory.

	t.Run("explicit path that exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "my.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile = %q, want %q", got, path)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}
