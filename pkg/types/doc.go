// Package types provides shared type definitions for scorecache.
//
// This package defines the capability interfaces the metadata core depends
// on and the default payload used to describe a score.
//
// # Capabilities
//
// Searchable is the only thing the core knows about an entry's payload:
//
//	matched, field, err := payload.Search("bach", "composer")
//
// Parser re-materializes a full document from a source path:
//
//	doc, err := parser.Parse(ctx, "bach/bwv66.6.mxl", nil)
//
// # Metadata
//
// Metadata is the default Searchable payload. It holds the header-level
// description of a score (title, composer, meters, keys, tempos) and
// matches queries either as case-insensitive substrings or, when the query
// looks like a regular expression, as a case-insensitive pattern:
//
//	md := &types.Metadata{Composer: "J.S. Bach", Title: "Chorale"}
//	md.Search("bach", "composer")   // true, "composer"
//	md.Search("^chor", "")          // true, "title"
//
// SearchFields lists every field name accepted by Metadata.Search.
package types
