package indexer

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Strategy selects how a Scheduler executes its jobs
type Strategy int

const (
	// Serial runs every job on the calling goroutine, in order
	Serial Strategy = iota
	// Pool fans jobs out across a bounded worker pool
	Pool
)

// String returns the strategy name
func (s Strategy) String() string {
	switch s {
	case Serial:
		return "serial"
	case Pool:
		return "pool"
	default:
		return "unknown"
	}
}

// ProgressEvent describes one completed job
type ProgressEvent struct {
	Index     int    // Job index within the batch
	Total     int    // Number of jobs in the batch
	Remaining int    // Jobs not yet completed
	Path      string // Source path processed
	Failures  int    // Failures so far, including this job
}

// ProgressFunc receives exactly one event per completed job
type ProgressFunc func(ProgressEvent)

// Summary contains statistics about one Run
type Summary struct {
	Jobs     int
	Failed   int
	Duration time.Duration
}

// Scheduler executes rebuild jobs and hands their results back to the
// caller. Both strategies honour the same contract: handle and Progress are
// called once per job, always on the goroutine that called Run, so the
// caller may merge results without locking.
type Scheduler struct {
	Deriver  Deriver
	Strategy Strategy
	Workers  int // Pool size (default: runtime.NumCPU())
	Progress ProgressFunc
}

// New creates a Scheduler with the given deriver and strategy
func New(deriver Deriver, strategy Strategy) *Scheduler {
	return &Scheduler{
		Deriver:  deriver,
		Strategy: strategy,
		Workers:  runtime.NumCPU(),
	}
}

// Run executes jobs and calls handle with each result in completion order.
// A failing job never stops its siblings.
func (s *Scheduler) Run(ctx context.Context, jobs []Job, handle func(Result)) Summary {
	start := time.Now()
	summary := Summary{Jobs: len(jobs)}

	completed := 0
	deliver := func(res Result) {
		completed++
		if res.Failed() {
			summary.Failed++
		}
		if handle != nil {
			handle(res)
		}
		if s.Progress != nil {
			s.Progress(ProgressEvent{
				Index:     res.Job.Index,
				Total:     len(jobs),
				Remaining: len(jobs) - completed,
				Path:      res.Job.Path,
				Failures:  summary.Failed,
			})
		}
	}

	switch s.Strategy {
	case Pool:
		s.runPool(ctx, jobs, deliver)
	default:
		s.runSerial(ctx, jobs, deliver)
	}

	summary.Duration = time.Since(start)
	return summary
}

// runSerial runs jobs one after another
func (s *Scheduler) runSerial(ctx context.Context, jobs []Job, deliver func(Result)) {
	for _, job := range jobs {
		deliver(job.Run(ctx, s.Deriver))
	}
}

// runPool runs jobs on up to Workers goroutines and funnels results back
func (s *Scheduler) runPool(ctx context.Context, jobs []Job, deliver func(Result)) {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan Result, workers)

	var g errgroup.Group
	g.SetLimit(workers)

	go func() {
		for _, job := range jobs {
			g.Go(func() error {
				results <- job.Run(ctx, s.Deriver)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		deliver(res)
	}
}
