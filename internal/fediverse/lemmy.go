package fediverse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fedicensus/fedicensus/internal/config"
	"github.com/fedicensus/fedicensus/internal/model"
)

// LemmySource fetches statistics from Lemmy's /api/v3/site endpoint.
type LemmySource struct {
	// minVersion, when set, rejects instances reporting an older Lemmy
	// version as unsupported. Old instances predate the stable federation
	// API and tend to return shapes we cannot parse anyway.
	minVersion string
}

// LemmyOption configures a LemmySource.
type LemmyOption func(*LemmySource)

// WithMinVersion sets the minimum accepted Lemmy version ("0.19.0").
// Instances below the floor fail as unsupported software.
func WithMinVersion(v string) LemmyOption {
	return func(s *LemmySource) {
		s.minVersion = v
	}
}

// NewLemmySource creates a StatsSource for Lemmy instances.
func NewLemmySource(opts ...LemmyOption) *LemmySource {
	s := &LemmySource{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Software implements StatsSource.
func (s *LemmySource) Software() string {
	return "lemmy"
}

// getSiteResponse is the subset of Lemmy's GetSiteResponse we consume.
type getSiteResponse struct {
	SiteView struct {
		Site struct {
			Name string `json:"name"`
		} `json:"site"`
		Counts siteAggregates `json:"counts"`
	} `json:"site_view"`
	FederatedInstances *federatedInstances `json:"federated_instances"`
}

// siteAggregates mirrors Lemmy's SiteAggregates counters.
type siteAggregates struct {
	Users               int64 `json:"users"`
	Posts               int64 `json:"posts"`
	Comments            int64 `json:"comments"`
	UsersActiveDay      int64 `json:"users_active_day"`
	UsersActiveWeek     int64 `json:"users_active_week"`
	UsersActiveMonth    int64 `json:"users_active_month"`
	UsersActiveHalfYear int64 `json:"users_active_half_year"`
}

// federatedInstances is the federation block of the site response.
type federatedInstances struct {
	Linked PeerList `json:"linked"`
}

// PeerList is the federation peer list. Lemmy 0.18 serves it as an array
// of domain strings; 0.19 switched to an array of instance objects with a
// "domain" field. Both shapes decode into a flat list of domains.
type PeerList []string

// UnmarshalJSON implements json.Unmarshaler for both wire shapes.
func (p *PeerList) UnmarshalJSON(data []byte) error {
	var domains []string
	if err := json.Unmarshal(data, &domains); err == nil {
		*p = domains
		return nil
	}

	var objects []struct {
		Domain string `json:"domain"`
	}
	if err := json.Unmarshal(data, &objects); err != nil {
		return err
	}
	domains = make([]string, 0, len(objects))
	for _, o := range objects {
		if o.Domain != "" {
			domains = append(domains, o.Domain)
		}
	}
	*p = domains
	return nil
}

// FetchStats implements StatsSource.
func (s *LemmySource) FetchStats(ctx context.Context, client jsonClient, addr model.CanonicalAddress, ni *NodeInfo) (*SiteStats, error) {
	if s.minVersion != "" && versionBelow(ni.Software.Version, s.minVersion) {
		return nil, fmt.Errorf("%w: lemmy %s is below minimum version %s",
			ErrUnsupportedSoftware, ni.Software.Version, s.minVersion)
	}

	var site getSiteResponse
	if err := client.getJSON(ctx, "https://"+addr.String()+"/api/v3/site", &site); err != nil {
		return nil, err
	}
	if site.SiteView.Site.Name == "" {
		return nil, fmt.Errorf("%w: site response missing site name", ErrMalformed)
	}

	stats := &SiteStats{
		Name:                site.SiteView.Site.Name,
		TotalUsers:          site.SiteView.Counts.Users,
		UsersActiveDay:      site.SiteView.Counts.UsersActiveDay,
		UsersActiveWeek:     site.SiteView.Counts.UsersActiveWeek,
		UsersActiveMonth:    site.SiteView.Counts.UsersActiveMonth,
		UsersActiveHalfYear: site.SiteView.Counts.UsersActiveHalfYear,
		Posts:               site.SiteView.Counts.Posts,
		Comments:            site.SiteView.Counts.Comments,
		Peers:               []string{},
	}
	if site.FederatedInstances != nil {
		stats.Peers = site.FederatedInstances.Linked
	}
	return stats, nil
}

// versionBelow reports whether reported is a valid version strictly below
// floor. Unparseable versions are never rejected: a weird version string
// should not exclude an otherwise working instance.
func versionBelow(reported, floor string) bool {
	return config.CompareVersions(reported, floor) < 0
}
