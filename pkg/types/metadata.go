package types

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Search field names accepted by Metadata.Search
const (
	FieldAlternativeTitle    = "alternativeTitle"
	FieldAmbitus             = "ambitus"
	FieldComposer            = "composer"
	FieldDate                = "date"
	FieldKeySignatureFirst   = "keySignatureFirst"
	FieldKeySignatures       = "keySignatures"
	FieldLocaleOfComposition = "localeOfComposition"
	FieldMovementName        = "movementName"
	FieldMovementNumber      = "movementNumber"
	FieldNoteCount           = "noteCount"
	FieldNumber              = "number"
	FieldOpusNumber          = "opusNumber"
	FieldPitchHighest        = "pitchHighest"
	FieldPitchLowest         = "pitchLowest"
	FieldQuarterLength       = "quarterLength"
	FieldTempoFirst          = "tempoFirst"
	FieldTempos              = "tempos"
	FieldTimeSignatureFirst  = "timeSignatureFirst"
	FieldTimeSignatures      = "timeSignatures"
	FieldTitle               = "title"
)

// regexMeta holds the characters that turn a query into a pattern
const regexMeta = `\.+*?()|[]{}^$`

// patternCacheSize bounds the number of compiled query patterns kept around
const patternCacheSize = 256

var patternCache = newPatternCache(patternCacheSize)

func newPatternCache(size int) *lru.Cache[string, *regexp.Regexp] {
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create pattern cache: %v", err))
	}
	return cache
}

// Metadata is the header-level description of a score. It is the default
// Searchable payload stored in metadata bundles.
type Metadata struct {
	Title               string   `json:"title,omitempty"`
	AlternativeTitle    string   `json:"alternativeTitle,omitempty"`
	Composer            string   `json:"composer,omitempty"`
	Date                string   `json:"date,omitempty"`
	LocaleOfComposition string   `json:"localeOfComposition,omitempty"`
	MovementName        string   `json:"movementName,omitempty"`
	MovementNumber      string   `json:"movementNumber,omitempty"`
	Number              string   `json:"number,omitempty"`
	OpusNumber          string   `json:"opusNumber,omitempty"`
	KeySignatures       []string `json:"keySignatures,omitempty"`
	TimeSignatures      []string `json:"timeSignatures,omitempty"`
	Tempos              []string `json:"tempos,omitempty"`
	NoteCount           int      `json:"noteCount,omitempty"`
	QuarterLength       float64  `json:"quarterLength,omitempty"`
	Ambitus             string   `json:"ambitus,omitempty"`
	PitchHighest        string   `json:"pitchHighest,omitempty"`
	PitchLowest         string   `json:"pitchLowest,omitempty"`
}

// SearchFields returns all searchable field names in sorted order
func SearchFields() []string {
	fields := []string{
		FieldAlternativeTitle, FieldAmbitus, FieldComposer, FieldDate,
		FieldKeySignatureFirst, FieldKeySignatures, FieldLocaleOfComposition,
		FieldMovementName, FieldMovementNumber, FieldNoteCount, FieldNumber,
		FieldOpusNumber, FieldPitchHighest, FieldPitchLowest, FieldQuarterLength,
		FieldTempoFirst, FieldTempos, FieldTimeSignatureFirst, FieldTimeSignatures,
		FieldTitle,
	}
	sort.Strings(fields)
	return fields
}

// fieldValue pairs a field name with its searchable string forms
type fieldValue struct {
	name   string
	values []string
}

// fieldValues returns every field in SearchFields order
func (m *Metadata) fieldValues() []fieldValue {
	single := func(s string) []string {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	first := func(list []string) []string {
		if len(list) == 0 {
			return nil
		}
		return list[:1]
	}

	var noteCount, quarterLength []string
	if m.NoteCount > 0 {
		noteCount = []string{strconv.Itoa(m.NoteCount)}
	}
	if m.QuarterLength > 0 {
		quarterLength = []string{strconv.FormatFloat(m.QuarterLength, 'f', -1, 64)}
	}

	return []fieldValue{
		{FieldAlternativeTitle, single(m.AlternativeTitle)},
		{FieldAmbitus, single(m.Ambitus)},
		{FieldComposer, single(m.Composer)},
		{FieldDate, single(m.Date)},
		{FieldKeySignatureFirst, first(m.KeySignatures)},
		{FieldKeySignatures, m.KeySignatures},
		{FieldLocaleOfComposition, single(m.LocaleOfComposition)},
		{FieldMovementName, single(m.MovementName)},
		{FieldMovementNumber, single(m.MovementNumber)},
		{FieldNoteCount, noteCount},
		{FieldNumber, single(m.Number)},
		{FieldOpusNumber, single(m.OpusNumber)},
		{FieldPitchHighest, single(m.PitchHighest)},
		{FieldPitchLowest, single(m.PitchLowest)},
		{FieldQuarterLength, quarterLength},
		{FieldTempoFirst, first(m.Tempos)},
		{FieldTempos, m.Tempos},
		{FieldTimeSignatureFirst, first(m.TimeSignatures)},
		{FieldTimeSignatures, m.TimeSignatures},
		{FieldTitle, single(m.Title)},
	}
}

// Search reports whether query matches any searchable field, or only the
// named field when field is not empty. Field names compare case-insensitively.
func (m *Metadata) Search(query, field string) (bool, string, error) {
	if m == nil {
		return false, "", nil
	}

	match, err := compileQuery(query)
	if err != nil {
		return false, "", err
	}

	for _, fv := range m.fieldValues() {
		if field != "" && !strings.EqualFold(fv.name, field) {
			continue
		}
		for _, v := range fv.values {
			if match(v) {
				return true, fv.name, nil
			}
		}
	}
	return false, "", nil
}

// Equal reports whether other is a Metadata with identical values
func (m *Metadata) Equal(other Searchable) bool {
	o, ok := other.(*Metadata)
	if !ok {
		return false
	}
	if m == nil || o == nil {
		return m == o
	}
	return reflect.DeepEqual(m, o)
}

// ValidateQuery reports ErrInvalidQuery when query holds regular expression
// metacharacters but does not compile
func ValidateQuery(query string) error {
	_, err := compileQuery(query)
	return err
}

// compileQuery returns a matcher for query. Plain text matches as a
// case-insensitive substring; anything containing regex metacharacters is
// compiled as a case-insensitive pattern.
func compileQuery(query string) (func(string) bool, error) {
	if !strings.ContainsAny(query, regexMeta) {
		lower := strings.ToLower(query)
		return func(s string) bool {
			return strings.Contains(strings.ToLower(s), lower)
		}, nil
	}

	if re, ok := patternCache.Get(query); ok {
		return re.MatchString, nil
	}
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidQuery, query, err)
	}
	patternCache.Add(query, re)
	return re.MatchString, nil
}

// IsEmpty reports whether no searchable field carries a value
func (m *Metadata) IsEmpty() bool {
	if m == nil {
		return true
	}
	for _, fv := range m.fieldValues() {
		if len(fv.values) > 0 {
			return false
		}
	}
	return true
}
