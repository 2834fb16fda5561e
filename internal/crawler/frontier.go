package crawler

import (
	"sync"

	"github.com/fedicensus/fedicensus/internal/model"
)

// Job is one unit of crawl work: an address and its hop distance from
// the nearest seed.
type Job struct {
	Addr     model.CanonicalAddress
	Distance int
}

// Frontier tracks which addresses have been seen and which are still
// waiting to be fetched. Membership in the visited set is decided
// atomically with queue insertion, so an address can never be queued
// twice no matter how many workers discover it concurrently.
//
// All methods are safe for concurrent use.
type Frontier struct {
	mu          sync.Mutex
	visited     map[model.CanonicalAddress]struct{}
	excluded    map[model.CanonicalAddress]struct{}
	pending     []Job
	maxDistance int
}

// NewFrontier creates an empty frontier. A negative maxDistance means
// unbounded traversal; zero restricts the crawl to the seeds themselves.
func NewFrontier(maxDistance int) *Frontier {
	return &Frontier{
		visited:     make(map[model.CanonicalAddress]struct{}),
		excluded:    make(map[model.CanonicalAddress]struct{}),
		maxDistance: maxDistance,
	}
}

// Exclude adds addresses that must never be crawled. Raw values that do
// not normalize are ignored. Exclusions should be registered before
// seeding.
func (f *Frontier) Exclude(raw []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range raw {
		addr, err := model.Normalize(r)
		if err != nil {
			continue
		}
		f.excluded[addr] = struct{}{}
	}
}

// Seed enqueues the starting addresses at distance zero and returns how
// many were accepted. Duplicates after normalization collapse to one
// entry; unparseable seeds are dropped silently.
func (f *Frontier) Seed(raw []string) int {
	return len(f.add(raw, 0))
}

// Discover enqueues newly found peer addresses at the given distance and
// returns the addresses actually accepted. Already-seen, excluded, and
// over-distance addresses are dropped, as are values that fail
// normalization: a peer list is remote input and one bad entry must not
// affect its siblings.
func (f *Frontier) Discover(raw []string, distance int) []model.CanonicalAddress {
	return f.add(raw, distance)
}

func (f *Frontier) add(raw []string, distance int) []model.CanonicalAddress {
	if f.maxDistance >= 0 && distance > f.maxDistance {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var accepted []model.CanonicalAddress
	for _, r := range raw {
		addr, err := model.Normalize(r)
		if err != nil {
			continue
		}
		if _, ok := f.excluded[addr]; ok {
			continue
		}
		if _, ok := f.visited[addr]; ok {
			continue
		}
		f.visited[addr] = struct{}{}
		f.pending = append(f.pending, Job{Addr: addr, Distance: distance})
		accepted = append(accepted, addr)
	}
	return accepted
}

// Next pops the oldest pending job. The second result is false when the
// queue is momentarily empty, which is not the same as the crawl being
// finished: in-flight fetches may still discover work.
func (f *Frontier) Next() (Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return Job{}, false
	}
	job := f.pending[0]
	f.pending = f.pending[1:]
	return job, true
}

// Exhausted reports whether the pending queue is empty. The crawl as a
// whole is finished only when this holds and no fetches are in flight.
func (f *Frontier) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending) == 0
}

// PendingCount returns how many jobs are queued and not yet dispatched.
func (f *Frontier) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// VisitedCount returns how many distinct addresses have entered the
// frontier since creation, dispatched or not.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
