package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/scorecache/pkg/types"
)

// ErrJobPanicked wraps a panic recovered while deriving one source
var ErrJobPanicked = errors.New("metadata derivation panicked")

// DeriveOptions carries per-job hints for a Deriver
type DeriveOptions struct {
	// UseParserHint tells the deriver the source lives inside the corpus
	UseParserHint bool
}

// Derived is one metadata descriptor produced from a source.
// A nil Payload denotes a stub (the source parsed but carried no metadata).
type Derived struct {
	Number  *int
	Payload types.Searchable
}

// Deriver produces lightweight metadata descriptors from a source path.
// Multi-document sources return one Derived per document, each numbered.
type Deriver interface {
	Derive(ctx context.Context, path string, opts DeriveOptions) ([]Derived, error)
}

// DeriverFunc adapts a function to the Deriver interface
type DeriverFunc func(ctx context.Context, path string, opts DeriveOptions) ([]Derived, error)

// Derive calls f
func (f DeriverFunc) Derive(ctx context.Context, path string, opts DeriveOptions) ([]Derived, error) {
	return f(ctx, path, opts)
}

// Job derives the metadata of a single source path
type Job struct {
	Index         int    // 1-based position in the batch
	Path          string // Absolute path or network URI to read
	SourcePath    string // Path recorded on the resulting entries
	UseParserHint bool
}

// Result is the outcome of one Job. Err is set for per-document failures;
// Derived is empty in that case.
type Result struct {
	Job     Job
	Derived []Derived
	Err     error
}

// Failed reports whether the job failed to produce metadata
func (r Result) Failed() bool {
	return r.Err != nil
}

// Run derives the job's metadata. Errors and panics inside the deriver are
// captured in the Result and never escape.
func (j Job) Run(ctx context.Context, deriver Deriver) (res Result) {
	res = Result{Job: j}

	defer func() {
		if r := recover(); r != nil {
			res.Derived = nil
			res.Err = fmt.Errorf("%w: %s: %v", ErrJobPanicked, j.Path, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("%s: %w", j.Path, err)
		return res
	}

	derived, err := deriver.Derive(ctx, j.Path, DeriveOptions{UseParserHint: j.UseParserHint})
	if err != nil {
		res.Err = fmt.Errorf("failed to derive %s: %w", j.Path, err)
		return res
	}

	// A source that parsed without any metadata still gets a stub entry
	if len(derived) == 0 {
		derived = []Derived{{}}
	}
	res.Derived = derived
	return res
}
