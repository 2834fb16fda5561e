package model

import (
	"sort"
	"time"
)

// Report is the terminal aggregate of one crawl invocation: all successful
// instance records, all fetch failures, and derived network-wide totals.
// It is constructed exactly once, at crawl termination, and read-only
// thereafter.
type Report struct {
	// CrawledInstances is the number of successfully fetched instances.
	CrawledInstances int `json:"crawled_instances"`

	// TotalUsers is the sum of TotalUsers across all successes.
	TotalUsers int64 `json:"total_users"`

	// UsersActiveDay is the sum of daily-active users across all successes.
	UsersActiveDay int64 `json:"users_active_day"`

	// UsersActiveWeek is the sum of weekly-active users across all successes.
	UsersActiveWeek int64 `json:"users_active_week"`

	// UsersActiveMonth is the sum of monthly-active users across all successes.
	UsersActiveMonth int64 `json:"users_active_month"`

	// UsersActiveHalfYear is the sum of half-year-active users across all successes.
	UsersActiveHalfYear int64 `json:"users_active_halfyear"`

	// Posts is the sum of local posts across all successes.
	Posts int64 `json:"posts"`

	// Comments is the sum of local comments across all successes.
	Comments int64 `json:"comments"`

	// StartTime is when the crawl began.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the crawl finished or was interrupted.
	EndTime time.Time `json:"end_time"`

	// Interrupted reports whether the crawl was cut short by a global
	// timeout or a shutdown signal. An interrupted report is still valid;
	// it simply reflects only the work that completed before expiry.
	Interrupted bool `json:"interrupted,omitempty"`

	// InstanceDetails lists all successfully fetched instances, sorted by
	// monthly active users descending.
	InstanceDetails []*InstanceRecord `json:"instance_details"`

	// FailedInstances lists every instance that was dispatched but could
	// not be fetched, sorted by domain. This is the sole visible trace of
	// partial failure.
	FailedInstances []*FetchFailure `json:"failed_instances"`
}

// NewReport builds a Report from accumulated crawl results.
//
// Derived totals are computed by summing the corresponding field across
// the success records only; failures contribute nothing to the totals.
// Successes are ordered by monthly active users descending so the most
// significant instances lead the report, and failures are ordered by
// domain so output is deterministic regardless of crawl scheduling.
func NewReport(instances []*InstanceRecord, failures []*FetchFailure, start, end time.Time, interrupted bool) *Report {
	r := &Report{
		CrawledInstances: len(instances),
		StartTime:        start,
		EndTime:          end,
		Interrupted:      interrupted,
		InstanceDetails:  instances,
		FailedInstances:  failures,
	}

	for _, inst := range instances {
		r.TotalUsers += inst.TotalUsers
		r.UsersActiveDay += inst.UsersActiveDay
		r.UsersActiveWeek += inst.UsersActiveWeek
		r.UsersActiveMonth += inst.UsersActiveMonth
		r.UsersActiveHalfYear += inst.UsersActiveHalfYear
		r.Posts += inst.Posts
		r.Comments += inst.Comments
	}

	sort.SliceStable(r.InstanceDetails, func(i, j int) bool {
		return r.InstanceDetails[i].UsersActiveMonth > r.InstanceDetails[j].UsersActiveMonth
	})
	sort.Slice(r.FailedInstances, func(i, j int) bool {
		return r.FailedInstances[i].Domain < r.FailedInstances[j].Domain
	})

	return r
}

// TotalDispatched returns the number of fetches the crawl performed.
// For a crawl that terminated by exhaustion this equals the size of the
// visited set, since each address is fetched at most once and never retried.
func (r *Report) TotalDispatched() int {
	return len(r.InstanceDetails) + len(r.FailedInstances)
}

// Duration returns the wall-clock time the crawl took.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
