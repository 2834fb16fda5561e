package fediverse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/fedicensus/fedicensus/internal/model"
)

// defaultMaxBodySize caps how much of a response body is read. A single
// misbehaving instance must not be able to exhaust crawler memory.
const defaultMaxBodySize = 10 * 1024 * 1024

// Fetcher probes federated instances for their node information and
// statistics. It is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	logger      *slog.Logger
	sources     map[string]StatsSource
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for per-fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithSources replaces the default statistics source registry.
func WithSources(sources ...StatsSource) Option {
	return func(f *Fetcher) {
		f.sources = make(map[string]StatsSource, len(sources))
		for _, s := range sources {
			f.sources[s.Software()] = s
		}
	}
}

// WithMaxBodySize sets the per-response body size cap in bytes.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// NewFetcher creates a Fetcher that issues requests through client.
// By default it knows the Lemmy and Mastodon software families.
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBodySize: defaultMaxBodySize,
	}
	WithSources(NewLemmySource(), NewMastodonSource())(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch probes one instance. On success it returns a complete
// InstanceRecord; every possible problem is folded into a classified
// FetchFailure instead of an error, so exactly one of the two results
// is non-nil.
func (f *Fetcher) Fetch(ctx context.Context, addr model.CanonicalAddress) (*model.InstanceRecord, *model.FetchFailure) {
	ni, err := f.fetchNodeInfo(ctx, addr)
	if err != nil {
		return nil, f.failure(addr, "node information", err)
	}

	software := strings.ToLower(ni.Software.Name)
	source, ok := f.sources[software]
	if !ok {
		return nil, f.failure(addr, "statistics",
			fmt.Errorf("%w: no statistics source for %q", ErrUnsupportedSoftware, software))
	}

	stats, err := source.FetchStats(ctx, f, addr, ni)
	if err != nil {
		return nil, f.failure(addr, "statistics", err)
	}

	return &model.InstanceRecord{
		Domain:               addr,
		Name:                 stats.Name,
		Software:             software,
		Version:              ni.Software.Version,
		OpenRegistrations:    ni.OpenRegistrations,
		TotalUsers:           stats.TotalUsers,
		UsersActiveDay:       stats.UsersActiveDay,
		UsersActiveWeek:      stats.UsersActiveWeek,
		UsersActiveMonth:     stats.UsersActiveMonth,
		UsersActiveHalfYear:  stats.UsersActiveHalfYear,
		Posts:                stats.Posts,
		Comments:             stats.Comments,
		LinkedInstancesCount: len(stats.Peers),
		Peers:                stats.Peers,
	}, nil
}

// fetchNodeInfo resolves and fetches the instance's nodeinfo document.
// It tries the well-known discovery path first and falls back to the
// fixed /nodeinfo/2.0.json path some software serves directly.
func (f *Fetcher) fetchNodeInfo(ctx context.Context, addr model.CanonicalAddress) (*NodeInfo, error) {
	base := "https://" + addr.String()

	var wk wellKnownNodeInfo
	wkErr := f.getJSON(ctx, base+"/.well-known/nodeinfo", &wk)
	if wkErr == nil {
		href := wk.schemaLink()
		if href == "" {
			return nil, fmt.Errorf("%w: discovery document has no links", ErrMalformed)
		}
		var ni NodeInfo
		if err := f.getJSON(ctx, href, &ni); err != nil {
			return nil, fmt.Errorf("fetch nodeinfo document: %w", err)
		}
		return &ni, nil
	}

	// The fallback only makes sense when the instance answered but does
	// not serve the discovery document. Network-level failures are final.
	if !errors.Is(wkErr, ErrHTTPStatus) {
		return nil, fmt.Errorf("fetch nodeinfo discovery: %w", wkErr)
	}

	var ni NodeInfo
	if err := f.getJSON(ctx, base+"/nodeinfo/2.0.json", &ni); err != nil {
		if errors.Is(err, ErrHTTPStatus) {
			return nil, fmt.Errorf("%w: %v", ErrNoNodeInfo, err)
		}
		return nil, fmt.Errorf("fetch nodeinfo fallback: %w", err)
	}
	return &ni, nil
}

// getJSON implements jsonClient: GET url and decode the body into v.
func (f *Fetcher) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", ErrHTTPStatus, url, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, f.maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMalformed, url, err)
	}
	return nil
}

// failure builds a classified FetchFailure and logs it.
func (f *Fetcher) failure(addr model.CanonicalAddress, stage string, err error) *model.FetchFailure {
	kind := classify(err)
	f.logger.Debug("instance fetch failed",
		slog.String("domain", addr.String()),
		slog.String("stage", stage),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()))
	return &model.FetchFailure{
		Domain: addr,
		Kind:   kind,
		Detail: err.Error(),
	}
}

// classify maps a fetch error onto a failure kind. Sentinel wrapping
// takes precedence; otherwise timeouts are separated from other network
// problems, and the rest counts as unreachable.
func classify(err error) model.FailureKind {
	switch {
	case errors.Is(err, ErrUnsupportedSoftware):
		return model.FailureUnsupported
	case errors.Is(err, ErrMalformed):
		return model.FailureMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return model.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.FailureTimeout
	}
	return model.FailureUnreachable
}
