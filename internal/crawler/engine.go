package crawler

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fedicensus/fedicensus/internal/model"
)

// defaultConcurrency bounds the fetch worker pool when no option is given.
const defaultConcurrency = 10

// Fetcher probes one instance. Exactly one of the results is non-nil.
type Fetcher interface {
	Fetch(ctx context.Context, addr model.CanonicalAddress) (*model.InstanceRecord, *model.FetchFailure)
}

// Engine coordinates the crawl: it dispatches frontier jobs to a bounded
// worker pool, feeds discovered peers back into the frontier, and
// finalizes the report when the traversal terminates or is cancelled.
type Engine struct {
	fetcher     Fetcher
	logger      *slog.Logger
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency sets the number of concurrent fetch workers.
// Values below one are raised to one.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// WithLogger sets the logger for per-instance crawl diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine fetching through fetcher.
func NewEngine(fetcher Fetcher, opts ...Option) *Engine {
	e := &Engine{
		fetcher:     fetcher,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// result pairs a finished job with its outcome.
type result struct {
	job  Job
	rec  *model.InstanceRecord
	fail *model.FetchFailure
}

// Run drives the crawl to completion and returns the report.
//
// Termination requires both an empty frontier and zero in-flight
// fetches: an in-flight fetch may still discover new work. When ctx is
// cancelled, dispatching stops and the report built from the results so
// far is returned with its Interrupted flag set; cancellation is not an
// error.
func (e *Engine) Run(ctx context.Context, frontier *Frontier) (*model.Report, error) {
	agg := NewAggregator()

	jobs := make(chan Job)
	results := make(chan result)

	g, wctx := errgroup.WithContext(ctx)
	for i := 0; i < e.concurrency; i++ {
		g.Go(func() error {
			return e.worker(wctx, jobs, results)
		})
	}

	inFlight := 0
	interrupted := false
	var next Job
	haveNext := false

loop:
	for {
		if !haveNext {
			next, haveNext = frontier.Next()
		}
		if !haveNext && inFlight == 0 {
			break
		}

		// The send case is armed only while a job is ready; a nil
		// channel never selects.
		var dispatch chan Job
		if haveNext {
			dispatch = jobs
		}

		select {
		case dispatch <- next:
			inFlight++
			haveNext = false
		case res := <-results:
			inFlight--
			e.handle(frontier, agg, res)
		case <-ctx.Done():
			interrupted = true
			break loop
		}
	}

	close(jobs)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := agg.Finalize(interrupted)
	e.logger.Debug("crawl finished",
		slog.Int("instances", len(report.InstanceDetails)),
		slog.Int("failures", len(report.FailedInstances)),
		slog.Bool("interrupted", report.Interrupted))
	return report, nil
}

// worker consumes jobs until the channel closes or the crawl context is
// cancelled.
func (e *Engine) worker(ctx context.Context, jobs <-chan Job, results chan<- result) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case job, ok := <-jobs:
			if !ok {
				return nil
			}
			rec, fail := e.fetcher.Fetch(ctx, job.Addr)
			select {
			case results <- result{job: job, rec: rec, fail: fail}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// handle records one finished fetch and feeds discovered peers back into
// the frontier.
func (e *Engine) handle(frontier *Frontier, agg *Aggregator, res result) {
	if res.fail != nil {
		agg.RecordFailure(res.fail)
		e.logger.Warn("failed to crawl instance",
			slog.String("domain", res.fail.Domain.String()),
			slog.String("kind", string(res.fail.Kind)),
			slog.String("detail", res.fail.Detail))
		return
	}

	agg.Record(res.rec)
	discovered := frontier.Discover(res.rec.Peers, res.job.Distance+1)
	e.logger.Debug("crawled instance",
		slog.String("domain", res.rec.Domain.String()),
		slog.Int64("users", res.rec.TotalUsers),
		slog.Int("new_peers", len(discovered)))
}
