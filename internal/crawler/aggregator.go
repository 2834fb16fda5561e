package crawler

import (
	"sync"
	"time"

	"github.com/fedicensus/fedicensus/internal/model"
)

// Aggregator collects per-instance results as workers produce them and
// assembles the final report. Safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	instances []*model.InstanceRecord
	failures  []*model.FetchFailure
	start     time.Time
}

// NewAggregator creates an Aggregator with the crawl start time pinned
// to now.
func NewAggregator() *Aggregator {
	return &Aggregator{start: time.Now()}
}

// Record adds a successful instance result.
func (a *Aggregator) Record(rec *model.InstanceRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.instances = append(a.instances, rec)
}

// RecordFailure adds a failed fetch.
func (a *Aggregator) RecordFailure(fail *model.FetchFailure) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, fail)
}

// Finalize computes totals and ordering and returns the report.
// The interrupted flag marks a crawl that was cancelled before the
// frontier drained.
func (a *Aggregator) Finalize(interrupted bool) *model.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return model.NewReport(a.instances, a.failures, a.start, time.Now(), interrupted)
}
