package types

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetadata() *Metadata {
	return &Metadata{
		Title:          "Christ unser Herr zum Jordan kam",
		Composer:       "J.S. Bach",
		MovementNumber: "6",
		KeySignatures:  []string{"f# minor", "A major"},
		TimeSignatures: []string{"3/4"},
		Tempos:         []string{"Adagio"},
		NoteCount:      412,
	}
}

func TestSearchFields_Sorted(t *testing.T) {
	fields := SearchFields()

	assert.Len(t, fields, 20)
	assert.True(t, sort.StringsAreSorted(fields))
	assert.Contains(t, fields, FieldComposer)
	assert.Contains(t, fields, FieldTimeSignatureFirst)
}

func TestMetadataSearch(t *testing.T) {
	md := sampleMetadata()

	tests := []struct {
		name      string
		query     string
		field     string
		wantMatch bool
		wantField string
	}{
		{"substring any field", "bach", "", true, FieldComposer},
		{"case insensitive", "BACH", "composer", true, FieldComposer},
		{"scoped to other field", "bach", "title", false, ""},
		{"field name case insensitive", "bach", "Composer", true, FieldComposer},
		{"time signature", "3/4", "", true, FieldTimeSignatureFirst},
		{"pattern", "^christ.*jordan", "title", true, FieldTitle},
		{"list field", "a major", "keySignatures", true, FieldKeySignatures},
		{"first of list only", "a major", "keySignatureFirst", false, ""},
		{"note count", "412", "noteCount", true, FieldNoteCount},
		{"unknown field", "bach", "lyricist", false, ""},
		{"no match", "mozart", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, field, err := md.Search(tt.query, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, matched)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestMetadataSearch_InvalidPattern(t *testing.T) {
	md := sampleMetadata()

	_, _, err := md.Search("bach(", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, ValidateQuery("bach"))
	assert.NoError(t, ValidateQuery("^bach.*$"))
	assert.NoError(t, ValidateQuery("J.S. Bach"))
	assert.True(t, errors.Is(ValidateQuery("bach("), ErrInvalidQuery))
}

func TestMetadataSearch_PatternCached(t *testing.T) {
	md := sampleMetadata()

	_, _, err := md.Search("b.ch", "")
	require.NoError(t, err)

	_, ok := patternCache.Get("b.ch")
	assert.True(t, ok, "compiled pattern should be cached")
}

func TestMetadataSearch_NilReceiver(t *testing.T) {
	var md *Metadata
	matched, _, err := md.Search("bach", "")
	assert.NoError(t, err)
	assert.False(t, matched)
}

func TestMetadataEqual(t *testing.T) {
	a := sampleMetadata()
	b := sampleMetadata()

	assert.True(t, a.Equal(b))

	b.Tempos = []string{"Allegro"}
	assert.False(t, a.Equal(b))

	var missing *Metadata
	assert.False(t, a.Equal(missing))
}
