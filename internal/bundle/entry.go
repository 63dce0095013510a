package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/dshills/scorecache/internal/keycodec"
	"github.com/dshills/scorecache/pkg/types"
)

// ErrNoParser is returned by Entry.Parse and Entry.Show without a parser
var ErrNoParser = errors.New("no score parser configured")

// Entry is the lightweight descriptor of one document. Entries are never
// mutated once built; a changed source produces a replacement entry.
type Entry struct {
	sourcePath string
	number     *int
	payload    types.Searchable
}

// NewEntry creates an entry. A nil payload makes a stub that never matches
// a search.
func NewEntry(sourcePath string, number *int, payload types.Searchable) *Entry {
	e := &Entry{sourcePath: sourcePath, payload: payload}
	if number != nil {
		n := *number
		e.number = &n
	}
	return e
}

// SourcePath returns the path or URI the entry was derived from
func (e *Entry) SourcePath() string {
	return e.sourcePath
}

// Number returns the disambiguating number, or nil
func (e *Entry) Number() *int {
	if e.number == nil {
		return nil
	}
	n := *e.number
	return &n
}

// Payload returns the searchable metadata, nil for stubs
func (e *Entry) Payload() types.Searchable {
	return e.payload
}

// IsStub reports whether the entry carries no metadata
func (e *Entry) IsStub() bool {
	return e.payload == nil
}

// Key returns the canonical key of the entry
func (e *Entry) Key() string {
	return keycodec.DeriveKey(e.sourcePath, e.number)
}

// Search delegates to the payload. Stubs never match.
func (e *Entry) Search(query, field string) (bool, string, error) {
	if e.payload == nil {
		return false, "", nil
	}
	return e.payload.Search(query, field)
}

// Equal reports whether both entries describe the same document with the
// same metadata
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.sourcePath != other.sourcePath {
		return false
	}
	if (e.number == nil) != (other.number == nil) {
		return false
	}
	if e.number != nil && *e.number != *other.number {
		return false
	}
	return payloadsEqual(e.payload, other.payload)
}

// payloadsEqual uses the payload's own Equal method when it has one
func payloadsEqual(a, b types.Searchable) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(interface{ Equal(types.Searchable) bool }); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}

// Parse re-materializes the full document through p
func (e *Entry) Parse(ctx context.Context, p types.Parser) (*types.Document, error) {
	if p == nil {
		return nil, ErrNoParser
	}
	doc, err := p.Parse(ctx, e.sourcePath, e.Number())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.Key(), err)
	}
	return doc, nil
}

// Show parses the document and writes its source to w
func (e *Entry) Show(ctx context.Context, w io.Writer, p types.Parser) error {
	doc, err := e.Parse(ctx, p)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("%% %s (%s)\n", e.Key(), doc.Format)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if _, err := w.Write(doc.Content); err != nil {
		return err
	}
	if n := len(doc.Content); n > 0 && doc.Content[n-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

// String returns a short description of the entry
func (e *Entry) String() string {
	if e.number != nil {
		return "<Entry " + strconv.Quote(e.sourcePath) + " #" + strconv.Itoa(*e.number) + ">"
	}
	return "<Entry " + strconv.Quote(e.sourcePath) + ">"
}
