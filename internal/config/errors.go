package config

import "errors"

// Configuration validation errors.
// Package-level sentinel errors let callers use errors.Is for programmatic
// handling while still carrying a human-readable message.
var (
	// ErrNoSeeds is returned when no seed instance is supplied via
	// arguments or the configuration file.
	ErrNoSeeds = errors.New("no seed instances specified: provide one or more instance addresses")

	// ErrInvalidTimeout is returned when the per-request timeout is not
	// positive. A zero timeout would fail every request immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlTimeout is returned when the global crawl timeout is
	// negative. Use 0 for no global limit.
	ErrInvalidCrawlTimeout = errors.New("invalid crawl timeout: must be non-negative")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not
	// positive. Zero workers would mean no crawling at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRequestRate is returned when the request rate is negative.
	// Use 0 for unlimited.
	ErrInvalidRequestRate = errors.New("invalid request rate: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrCompressWithoutOutput is returned when --compress is used without
	// an output file. Gzipped bytes on a terminal help nobody.
	ErrCompressWithoutOutput = errors.New("--compress requires an output file (-o)")

	// ErrInvalidMinVersion is returned when the minimum Lemmy version is
	// not a parseable semantic version.
	ErrInvalidMinVersion = errors.New("invalid minimum lemmy version: must be a semantic version like 0.19.0")
)
