package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".fedicensus"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file shape. Every field is optional;
// zero values mean "not set" and leave the corresponding Config default
// untouched when applied.
type File struct {
	// Seeds are instance addresses to crawl from. Flag-supplied seeds are
	// appended to these.
	Seeds []string `yaml:"seeds"`

	// Exclude lists instances to withhold from the crawl.
	Exclude []string `yaml:"exclude"`

	// Concurrency is the maximum number of fetches in flight.
	Concurrency int `yaml:"concurrency"`

	// Timeout bounds each HTTP request, e.g. "30s".
	Timeout Duration `yaml:"timeout"`

	// CrawlTimeout bounds the whole crawl, e.g. "10m".
	CrawlTimeout Duration `yaml:"crawl_timeout"`

	// MaxDistance is the peer-hop limit from the seeds.
	// Left at zero it is treated as unset; use an explicit -1 for
	// unbounded (which is also the built-in default).
	MaxDistance *int `yaml:"max_distance"`

	// MinLemmyVersion rejects older Lemmy instances, e.g. "0.19.0".
	MinLemmyVersion string `yaml:"min_lemmy_version"`

	// RequestRate caps outbound requests per second across all workers.
	RequestRate float64 `yaml:"request_rate"`

	// Proxy is a SOCKS5 proxy address in "host:port" form.
	Proxy string `yaml:"proxy"`
}

// LoadConfigFile reads and parses a YAML configuration file.
// If the file does not exist it returns ErrConfigNotFound; callers decide
// whether that is fatal based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in order:
// the explicit path if given, then .fedicensus in the current directory,
// then .fedicensus in the user's home directory.
// Returns the path if found, or an empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply copies the file's set values onto cfg. Flags are applied after
// this, so the precedence ends up defaults < file < flags.
func (f *File) Apply(cfg *Config) {
	if len(f.Seeds) > 0 {
		cfg.Seeds = append(cfg.Seeds, f.Seeds...)
	}
	if len(f.Exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, f.Exclude...)
	}
	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.Timeout.Duration > 0 {
		cfg.Timeout = f.Timeout.Duration
	}
	if f.CrawlTimeout.Duration > 0 {
		cfg.CrawlTimeout = f.CrawlTimeout.Duration
	}
	if f.MaxDistance != nil {
		cfg.MaxDistance = *f.MaxDistance
	}
	if f.MinLemmyVersion != "" {
		cfg.MinLemmyVersion = f.MinLemmyVersion
	}
	if f.RequestRate > 0 {
		cfg.RequestRate = f.RequestRate
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
}
