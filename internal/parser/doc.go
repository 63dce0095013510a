// Package parser reads the header metadata of score files and implements
// both the derivation step used by bundle rebuilds and the full-document
// parser used to re-materialize an entry.
//
// # Supported formats
//
//   - MusicXML (.xml, .musicxml) and legacy MusicXML (.mx)
//   - Compressed MusicXML (.mxl), a zip container with a META-INF/container.xml
//   - Humdrum **kern (.krn), reference records and interpretations
//   - ABC (.abc), one document per X: tune
//
// # Basic Usage
//
//	p := parser.New("/opt/scores/corpus")
//	derived, err := p.Derive(ctx, "/opt/scores/corpus/bach/bwv66.6.mxl", indexer.DeriveOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Sources addressed by http:// or https:// URIs are fetched with the
// parser's HTTP client. Connection failures, 429 and 5xx responses are
// retried with exponential backoff. Relative paths are resolved against the
// corpus root.
//
// # Stubs
//
// A score that parses but carries none of the searchable fields yields a
// single Derived value with a nil payload, which the bundle stores as a stub
// entry.
//
// Multi-tune ABC files yield one numbered Derived value per tune. A file
// holding a single tune is not numbered.
package parser
