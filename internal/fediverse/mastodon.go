package fediverse

import (
	"context"
	"fmt"

	"github.com/fedicensus/fedicensus/internal/model"
)

// MastodonSource fetches statistics from Mastodon-family instances.
// Mastodon has no single statistics endpoint; the usage counters come
// from node information and only the peer list needs an extra call.
type MastodonSource struct{}

// NewMastodonSource creates a StatsSource for Mastodon instances.
func NewMastodonSource() *MastodonSource {
	return &MastodonSource{}
}

// Software implements StatsSource.
func (s *MastodonSource) Software() string {
	return "mastodon"
}

// FetchStats implements StatsSource.
func (s *MastodonSource) FetchStats(ctx context.Context, client jsonClient, addr model.CanonicalAddress, ni *NodeInfo) (*SiteStats, error) {
	var peers []string
	if err := client.getJSON(ctx, "https://"+addr.String()+"/api/v1/instance/peers", &peers); err != nil {
		return nil, fmt.Errorf("fetch peer list: %w", err)
	}
	if peers == nil {
		peers = []string{}
	}

	name := ni.Metadata.NodeName
	if name == "" {
		name = addr.String()
	}

	return &SiteStats{
		Name:                name,
		TotalUsers:          ni.Usage.Users.Total,
		UsersActiveMonth:    ni.Usage.Users.ActiveMonth,
		UsersActiveHalfYear: ni.Usage.Users.ActiveHalfyear,
		Posts:               ni.Usage.LocalPosts,
		Comments:            ni.Usage.LocalComments,
		Peers:               peers,
	}, nil
}
