package fediverse

import (
	"context"

	"github.com/fedicensus/fedicensus/internal/model"
)

// jsonClient is the minimal HTTP surface a StatsSource uses. The Fetcher
// implements it; tests can substitute a fake.
type jsonClient interface {
	// getJSON performs a GET against url and decodes the JSON body into v.
	getJSON(ctx context.Context, url string, v any) error
}

// StatsSource fetches the statistics endpoint of one software family.
//
// Each federated server implementation exposes its numbers behind a
// different API, so the fetcher dispatches on the nodeinfo software name
// through a registry of StatsSource implementations. An interface keeps
// the families uniform from the fetcher's point of view and lets tests
// mock a family without a server.
type StatsSource interface {
	// Software returns the lowercased nodeinfo software name this source
	// handles (e.g. "lemmy").
	Software() string

	// FetchStats performs the statistics call against the instance and
	// merges it with the already-fetched node information. Errors are
	// classified by the fetcher; sources wrap them with the sentinel
	// errors of this package where the default classification would be
	// wrong.
	FetchStats(ctx context.Context, client jsonClient, addr model.CanonicalAddress, ni *NodeInfo) (*SiteStats, error)
}

// SiteStats is the normalized result of a statistics call, independent of
// which software family produced it.
type SiteStats struct {
	// Name is the human-readable site name.
	Name string

	// TotalUsers is the total registered user count.
	TotalUsers int64

	// UsersActiveDay is the daily active user count, zero when the
	// family's API does not report it.
	UsersActiveDay int64

	// UsersActiveWeek is the weekly active user count, zero when the
	// family's API does not report it.
	UsersActiveWeek int64

	// UsersActiveMonth is the monthly active user count.
	UsersActiveMonth int64

	// UsersActiveHalfYear is the half-year active user count.
	UsersActiveHalfYear int64

	// Posts is the local post count.
	Posts int64

	// Comments is the local comment count.
	Comments int64

	// Peers holds the literal peer addresses the instance advertises,
	// exactly as the remote sent them. An instance advertising no peers
	// yields an empty slice, never an error.
	Peers []string
}
