package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/mod/semver"
)

// Default configuration values.
// Fediverse instances are public clearnet services, so the defaults are
// tuned for ordinary HTTP latency rather than anything exotic.
const (
	// DefaultConcurrency is the number of instance fetches in flight at
	// once. A federated crawl fans out quickly; ten parallel fetches keep
	// the crawl moving without hammering any single host, since each host
	// is only ever fetched once.
	DefaultConcurrency = 10

	// DefaultTimeout bounds each HTTP request. Most instances answer
	// within a couple of seconds; 30 seconds is generous enough for slow
	// single-admin servers while keeping dead hosts from stalling workers.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDistance is the peer-hop limit from the seed instances.
	// A negative value means unbounded: crawl everything reachable.
	DefaultMaxDistance = -1

	// AppName is the application name used for XDG directory paths.
	AppName = "fedicensus"

	// DefaultUserAgent identifies fedicensus in HTTP requests so instance
	// operators can recognize crawler traffic in their logs.
	DefaultUserAgent = "fedicensus/1.0 (+https://github.com/fedicensus/fedicensus)"

	// DefaultMaxBodySize limits the response body size read from any
	// endpoint. Statistics payloads are small; 10MB leaves ample headroom
	// for huge federation lists while preventing memory exhaustion from
	// a misbehaving server.
	DefaultMaxBodySize = 10 * 1024 * 1024
)

// Config holds all settings for a fedicensus invocation.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The option count is manageable, and nesting would add indirection
// without benefit.
type Config struct {
	// Seeds are the raw instance addresses the crawl starts from.
	// They are normalized by the frontier, not here.
	Seeds []string

	// Exclude lists instances that must never be fetched, even when a
	// peer advertises them.
	Exclude []string

	// Concurrency is the maximum number of instance fetches in flight.
	Concurrency int

	// Timeout bounds each individual HTTP request. This is independent of
	// CrawlTimeout and always enforced.
	Timeout time.Duration

	// CrawlTimeout bounds the whole crawl. Zero means no global limit.
	// On expiry the crawl finalizes with whatever has been recorded.
	CrawlTimeout time.Duration

	// MaxDistance is the maximum number of peer hops from a seed.
	// 0 crawls the seeds only; negative means unbounded.
	MaxDistance int

	// MinLemmyVersion, when set, rejects Lemmy instances reporting an
	// older version as unsupported (e.g. "0.19.0").
	MinLemmyVersion string

	// RequestRate caps outbound requests per second across all workers.
	// Zero means unlimited.
	RequestRate float64

	// ProxyAddress routes all requests through a SOCKS5 proxy at
	// "host:port" when set.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Verbose enables debug-level log output.
	Verbose bool

	// ConfigFilePath is an explicit configuration file path. When empty,
	// .fedicensus is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport selects JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	// Parent directories are created as needed.
	ReportFile string

	// Compress gzips the report output. Requires ReportFile.
	Compress bool

	// SaveToDB records the finished crawl in the history database.
	SaveToDB bool

	// DBDir is the directory holding the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be error-prone; the
// constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		MaxDistance: DefaultMaxDistance,
		UserAgent:   DefaultUserAgent,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for fedicensus.
// On Linux: ~/.local/share/fedicensus
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for fedicensus.
// On Linux: ~/.config/fedicensus
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing, before any crawling begins, so
// operators get a clear error upfront instead of a mid-crawl surprise.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlTimeout < 0 {
		return ErrInvalidCrawlTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RequestRate < 0 {
		return ErrInvalidRequestRate
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Compress && c.ReportFile == "" {
		return ErrCompressWithoutOutput
	}
	if c.MinLemmyVersion != "" && !semver.IsValid(canonicalVersion(c.MinLemmyVersion)) {
		return ErrInvalidMinVersion
	}
	return nil
}

// canonicalVersion converts a bare version string like "0.19.3" into the
// "v"-prefixed form golang.org/x/mod/semver expects.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// CompareVersions compares two version strings in the loose form instance
// software reports them ("0.19.3", "v4.2.1", "0.19.3-rc.2"). It returns
// -1, 0, or +1 like semver.Compare. Invalid versions compare as equal so
// that a weird version string never causes a spurious rejection.
func CompareVersions(a, b string) int {
	ca, cb := canonicalVersion(a), canonicalVersion(b)
	if !semver.IsValid(ca) || !semver.IsValid(cb) {
		return 0
	}
	return semver.Compare(ca, cb)
}
