package types

import "context"

// Searchable is the capability a metadata payload exposes to the core.
// Search reports whether query matches, optionally restricted to one named
// field, and which field produced the match.
type Searchable interface {
	Search(query, field string) (matched bool, matchedField string, err error)
}

// Document is a fully materialized score returned by a Parser
type Document struct {
	SourcePath string
	Number     *int // Nullable
	Format     string
	Metadata   *Metadata
	Content    []byte // Raw source text of the document (one tune for multi-tune files)
}

// Parser turns a source path (and optional number) back into a Document
type Parser interface {
	Parse(ctx context.Context, sourcePath string, number *int) (*Document, error)
}
