package model

// InstanceRecord is the result of a successful instance fetch.
// It combines node-information data (software identity, usage counters)
// with the statistics endpoint of the instance's software family.
//
// Records are immutable after creation and freely shared by reference
// between the crawl engine, the aggregator, and the report writers.
type InstanceRecord struct {
	// Domain is the canonical address the record was fetched from.
	Domain CanonicalAddress `json:"domain"`

	// Name is the human-readable site name reported by the instance.
	Name string `json:"name"`

	// Software is the software family name from node information
	// (e.g. "lemmy", "mastodon"), lowercased.
	Software string `json:"software"`

	// Version is the software version string from node information.
	Version string `json:"version"`

	// OpenRegistrations reports whether the instance accepts signups.
	OpenRegistrations bool `json:"open_registrations"`

	// TotalUsers is the total registered user count.
	TotalUsers int64 `json:"total_users"`

	// UsersActiveDay is the count of users active in the last day.
	UsersActiveDay int64 `json:"users_active_day"`

	// UsersActiveWeek is the count of users active in the last week.
	UsersActiveWeek int64 `json:"users_active_week"`

	// UsersActiveMonth is the count of users active in the last month.
	UsersActiveMonth int64 `json:"users_active_month"`

	// UsersActiveHalfYear is the count of users active in the last six months.
	UsersActiveHalfYear int64 `json:"users_active_halfyear"`

	// Posts is the local post count.
	Posts int64 `json:"posts"`

	// Comments is the local comment count.
	Comments int64 `json:"comments"`

	// LinkedInstancesCount is the number of peers the instance advertises.
	LinkedInstancesCount int `json:"linked_instances_count"`

	// Peers holds the literal, unnormalized peer address strings the
	// instance advertised. They drive discovery during the crawl but are
	// excluded from serialized output to keep reports small.
	Peers []string `json:"-"`
}

// FailureKind classifies why an instance fetch failed.
type FailureKind string

// Failure kinds. Every per-instance problem maps to exactly one of these;
// there is no fatal error class inside a running crawl.
const (
	// FailureUnreachable covers dial errors, DNS failures, and non-2xx
	// HTTP responses.
	FailureUnreachable FailureKind = "unreachable"
	// FailureTimeout covers per-request timeouts and deadline expiry.
	FailureTimeout FailureKind = "timeout"
	// FailureMalformed covers unparseable JSON and missing required fields.
	FailureMalformed FailureKind = "malformed response"
	// FailureUnsupported covers software families the crawler has no
	// statistics source for, and versions below the configured floor.
	FailureUnsupported FailureKind = "unsupported software"
)

// FetchFailure records a failed instance fetch. Failures are data, not
// control flow: they are collected in the report's failure list and never
// abort sibling work. Immutable after creation.
type FetchFailure struct {
	// Domain is the canonical address the fetch was attempted against.
	Domain CanonicalAddress `json:"domain"`

	// Kind classifies the failure.
	Kind FailureKind `json:"kind"`

	// Detail is a short human-readable cause, suitable for diagnostics.
	Detail string `json:"detail,omitempty"`
}
