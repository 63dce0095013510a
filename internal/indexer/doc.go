// Package indexer runs metadata rebuild jobs.
//
// A Job derives the metadata descriptors of one source path through a
// Deriver. A Scheduler executes a batch of jobs and returns each Result to
// the caller, which merges it into a bundle.
//
// # Basic Usage
//
//	sched := indexer.New(deriver, indexer.Pool)
//	sched.Progress = func(ev indexer.ProgressEvent) {
//	    log.Printf("%d/%d %s (%d failed)", ev.Total-ev.Remaining, ev.Total, ev.Path, ev.Failures)
//	}
//
//	summary := sched.Run(ctx, jobs, func(res indexer.Result) {
//	    if res.Failed() {
//	        failed = append(failed, res.Job.Path)
//	        return
//	    }
//	    merge(res.Derived)
//	})
//
// # Strategies
//
// Serial runs jobs in order on the calling goroutine. It is deterministic
// and the easiest to debug.
//
// Pool runs jobs on a bounded errgroup (default: NumCPU() workers).
// Completion order is not defined, but results are still delivered one at a
// time on the calling goroutine:
//
//	results := make(chan Result, workers)
//	g.SetLimit(workers)
//	for _, job := range jobs {
//	    g.Go(func() error { results <- job.Run(ctx, deriver); return nil })
//	}
//
// # Partial Failures
//
// A deriver error or panic only fails its own job:
//
//	res := job.Run(ctx, deriver)
//	if res.Failed() {
//	    // res.Err explains why; siblings are unaffected
//	}
//
// A source that parses but yields no metadata produces a single stub
// (nil payload) instead of a failure.
//
// # Cancellation
//
// There is no in-flight cancellation. Jobs that start after ctx is done
// fail immediately with the context error, so every job still reports
// exactly once.
package indexer
