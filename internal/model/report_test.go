package model

import (
	"testing"
	"time"
)

func TestNewReportTotals(t *testing.T) {
	t.Parallel()

	instances := []*InstanceRecord{
		{
			Domain:              "a.example",
			TotalUsers:          10,
			UsersActiveDay:      1,
			UsersActiveWeek:     2,
			UsersActiveMonth:    5,
			UsersActiveHalfYear: 8,
			Posts:               100,
			Comments:            200,
		},
		{
			Domain:              "b.example",
			TotalUsers:          30,
			UsersActiveDay:      3,
			UsersActiveWeek:     6,
			UsersActiveMonth:    20,
			UsersActiveHalfYear: 25,
			Posts:               300,
			Comments:            400,
		},
	}
	failures := []*FetchFailure{
		{Domain: "c.example", Kind: FailureUnreachable},
	}

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Minute)

	r := NewReport(instances, failures, start, end, false)

	if r.CrawledInstances != 2 {
		t.Errorf("CrawledInstances = %d, want 2", r.CrawledInstances)
	}
	if r.TotalUsers != 40 {
		t.Errorf("TotalUsers = %d, want 40", r.TotalUsers)
	}
	if r.UsersActiveDay != 4 {
		t.Errorf("UsersActiveDay = %d, want 4", r.UsersActiveDay)
	}
	if r.UsersActiveWeek != 8 {
		t.Errorf("UsersActiveWeek = %d, want 8", r.UsersActiveWeek)
	}
	if r.UsersActiveMonth != 25 {
		t.Errorf("UsersActiveMonth = %d, want 25", r.UsersActiveMonth)
	}
	if r.UsersActiveHalfYear != 33 {
		t.Errorf("UsersActiveHalfYear = %d, want 33", r.UsersActiveHalfYear)
	}
	if r.Posts != 400 {
		t.Errorf("Posts = %d, want 400", r.Posts)
	}
	if r.Comments != 600 {
		t.Errorf("Comments = %d, want 600", r.Comments)
	}
	if r.TotalDispatched() != 3 {
		t.Errorf("TotalDispatched = %d, want 3", r.TotalDispatched())
	}
	if r.Duration() != 5*time.Minute {
		t.Errorf("Duration = %v, want 5m", r.Duration())
	}
}

// Failures must never contribute to the aggregated totals.
func TestNewReportFailuresExcludedFromTotals(t *testing.T) {
	t.Parallel()

	instances := []*InstanceRecord{
		{Domain: "a.example", TotalUsers: 10},
	}
	failures := []*FetchFailure{
		{Domain: "b.example", Kind: FailureUnreachable},
		{Domain: "c.example", Kind: FailureTimeout},
	}

	r := NewReport(instances, failures, time.Now(), time.Now(), false)

	if r.TotalUsers != 10 {
		t.Errorf("TotalUsers = %d, want 10", r.TotalUsers)
	}
	if r.CrawledInstances != 1 {
		t.Errorf("CrawledInstances = %d, want 1", r.CrawledInstances)
	}
	if len(r.FailedInstances) != 2 {
		t.Errorf("FailedInstances = %d, want 2", len(r.FailedInstances))
	}
}

func TestNewReportOrdering(t *testing.T) {
	t.Parallel()

	instances := []*InstanceRecord{
		{Domain: "small.example", UsersActiveMonth: 5},
		{Domain: "big.example", UsersActiveMonth: 5000},
		{Domain: "mid.example", UsersActiveMonth: 50},
	}
	failures := []*FetchFailure{
		{Domain: "z.example", Kind: FailureTimeout},
		{Domain: "a.example", Kind: FailureUnreachable},
	}

	r := NewReport(instances, failures, time.Now(), time.Now(), false)

	wantInstances := []CanonicalAddress{"big.example", "mid.example", "small.example"}
	for i, want := range wantInstances {
		if r.InstanceDetails[i].Domain != want {
			t.Errorf("InstanceDetails[%d] = %q, want %q", i, r.InstanceDetails[i].Domain, want)
		}
	}

	wantFailures := []CanonicalAddress{"a.example", "z.example"}
	for i, want := range wantFailures {
		if r.FailedInstances[i].Domain != want {
			t.Errorf("FailedInstances[%d] = %q, want %q", i, r.FailedInstances[i].Domain, want)
		}
	}
}

func TestNewReportEmpty(t *testing.T) {
	t.Parallel()

	r := NewReport(nil, nil, time.Now(), time.Now(), true)

	if r.CrawledInstances != 0 {
		t.Errorf("CrawledInstances = %d, want 0", r.CrawledInstances)
	}
	if r.TotalUsers != 0 {
		t.Errorf("TotalUsers = %d, want 0", r.TotalUsers)
	}
	if !r.Interrupted {
		t.Error("Interrupted = false, want true")
	}
}
