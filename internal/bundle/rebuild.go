package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/scorecache/internal/indexer"
	"github.com/dshills/scorecache/internal/keycodec"
	"github.com/dshills/scorecache/pkg/types"
)

// AddOptions controls AddFromPaths
type AddOptions struct {
	UseParserHint bool // Sources lie inside the corpus root
	Parallel      bool // Derive on a worker pool
}

// Report summarizes the last AddFromPaths call
type Report struct {
	Requested int
	Scheduled int
	Skipped   int // Fresh sources left alone
	Failed    int
	Removed   int // Entries dropped by validation
	Entries   int // Bundle size afterwards
	Duration  time.Duration
}

// LastReport returns the counters of the most recent AddFromPaths call
func (b *Bundle) LastReport() Report {
	return b.report
}

// AddFromPaths derives entries for every path that is new or changed since
// the snapshot was written, merges them into the bundle, validates it and
// persists it. It returns the input paths whose derivation failed. The
// error is reserved for persistence failures and a missing deriver.
func (b *Bundle) AddFromPaths(ctx context.Context, paths []string, opts AddOptions) ([]string, error) {
	if b.cfg.Deriver == nil {
		return nil, types.ErrNoDeriver
	}

	start := time.Now()
	since := b.snapshotTime()
	sources := b.sourceIndex()

	var (
		jobs   []indexer.Job
		inputs []string
	)
	for _, p := range paths {
		path := p
		if !keycodec.IsNetworkPath(path) {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
		}
		if b.isFresh(path, since, sources) {
			continue
		}
		inputs = append(inputs, p)
		jobs = append(jobs, indexer.Job{
			Index:         len(jobs) + 1,
			Path:          path,
			SourcePath:    b.recordedPath(path, opts.UseParserHint),
			UseParserHint: opts.UseParserHint,
		})
	}

	skipped := len(paths) - len(jobs)
	b.cfg.Metrics.AddCacheHits(skipped)
	b.cfg.Logger.Debug("rebuild scheduled",
		"bundle", b.name,
		"scheduled", len(jobs),
		"skipped", skipped,
		"parallel", opts.Parallel,
	)

	strategy := indexer.Serial
	if opts.Parallel {
		strategy = indexer.Pool
	}
	sched := indexer.New(b.cfg.Deriver, strategy)
	sched.Workers = b.cfg.Workers
	sched.Progress = b.progress

	// Persist even when ctx is cancelled part way through
	persistCtx := context.WithoutCancel(ctx)

	var (
		failed   []string
		writeErr error
		done     int
	)
	summary := sched.Run(ctx, jobs, func(res indexer.Result) {
		done++
		b.cfg.Metrics.ObserveJob(res.Failed())

		if res.Failed() {
			failed = append(failed, inputs[res.Job.Index-1])
			b.cfg.Logger.Warn("failed to derive metadata",
				"bundle", b.name,
				"path", res.Job.Path,
				"error", res.Err,
			)
		} else {
			entries := make([]*Entry, 0, len(res.Derived))
			for _, d := range res.Derived {
				entries = append(entries, NewEntry(res.Job.SourcePath, d.Number, d.Payload))
			}
			b.replaceSource(res.Job.Path, entries, sources)
		}

		if done%b.cfg.PersistEvery == 0 && writeErr == nil {
			writeErr = b.Write(persistCtx, "")
		}
	})
	if writeErr != nil {
		return failed, writeErr
	}

	removed := b.Validate()
	if err := b.Write(persistCtx, ""); err != nil {
		return failed, err
	}

	b.report = Report{
		Requested: len(paths),
		Scheduled: len(jobs),
		Skipped:   skipped,
		Failed:    summary.Failed,
		Removed:   removed,
		Entries:   len(b.entries),
		Duration:  time.Since(start),
	}
	b.cfg.Metrics.ObserveRebuild(b.report.Duration)
	b.cfg.Metrics.SetEntries(b.name, len(b.entries))

	b.cfg.Logger.Info("rebuild finished",
		"bundle", b.name,
		"scheduled", len(jobs),
		"skipped", skipped,
		"failed", summary.Failed,
		"removed", removed,
		"entries", len(b.entries),
		"duration", b.report.Duration,
	)
	return failed, nil
}

// Rebuild discards the entries and the snapshot of a named bundle and
// derives everything in paths again. Anonymous bundles are left unchanged.
func (b *Bundle) Rebuild(ctx context.Context, paths []string, opts AddOptions) ([]string, error) {
	if b.name == "" {
		return nil, nil
	}
	b.Clear()
	if err := b.Delete(ctx); err != nil {
		return nil, err
	}
	return b.AddFromPaths(ctx, paths, opts)
}

func (b *Bundle) progress(ev indexer.ProgressEvent) {
	b.cfg.Logger.Debug("derived",
		"bundle", b.name,
		"index", ev.Index,
		"remaining", ev.Remaining,
		"path", ev.Path,
		"failures", ev.Failures,
	)
	if b.cfg.Progress != nil {
		b.cfg.Progress(ev)
	}
}

// sourceIndex maps every entry's resolved source to the keys derived from it
func (b *Bundle) sourceIndex() map[string][]string {
	idx := make(map[string][]string, len(b.entries))
	for key, e := range b.entries {
		src := b.resolveSource(e.sourcePath)
		idx[src] = append(idx[src], key)
	}
	return idx
}

// replaceSource drops the entries previously derived from path and stores
// entries in their place, keeping sources current
func (b *Bundle) replaceSource(path string, entries []*Entry, sources map[string][]string) {
	for _, key := range sources[path] {
		if e, ok := b.entries[key]; ok && b.resolveSource(e.sourcePath) == path {
			delete(b.entries, key)
		}
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		b.Add(e)
		keys = append(keys, e.Key())
	}
	sources[path] = keys
}

// isFresh reports whether path is already represented and unchanged since
// the snapshot time
func (b *Bundle) isFresh(path string, since time.Time, sources map[string][]string) bool {
	if keycodec.IsNetworkPath(path) {
		return false
	}
	_, known := b.entries[keycodec.DeriveKey(path, nil)]
	if !known {
		_, known = sources[path]
	}
	if !known {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.ModTime().After(since)
}

// recordedPath returns the source path stored on entries derived from path
func (b *Bundle) recordedPath(path string, useParserHint bool) string {
	if !useParserHint || b.cfg.CorpusRoot == "" || keycodec.IsNetworkPath(path) {
		return path
	}
	rel, err := filepath.Rel(b.cfg.CorpusRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// String returns a one-line summary of the report
func (r Report) String() string {
	return fmt.Sprintf("%d requested, %d scheduled, %d skipped, %d failed, %d removed, %d entries",
		r.Requested, r.Scheduled, r.Skipped, r.Failed, r.Removed, r.Entries)
}
