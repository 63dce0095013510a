package bundle

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dshills/scorecache/internal/keycodec"
	"github.com/dshills/scorecache/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_Key(t *testing.T) {
	e := NewEntry("/opt/scores/corpus/bach/bwv66.6.mxl", nil, nil)
	assert.Equal(t, "bach_bwv66_6_mxl", e.Key())
	assert.Equal(t, e.Key(), e.Key())

	numbered := NewEntry("/opt/scores/corpus/folk/reels.abc", intPtr(4), nil)
	assert.Equal(t, "folk_reels_abc_4", numbered.Key())
	assert.Equal(t, keycodec.DeriveKey(numbered.SourcePath(), numbered.Number()), numbered.Key())
}

func TestEntry_NumberIsCopied(t *testing.T) {
	n := 2
	e := NewEntry("/x/reels.abc", &n, nil)
	n = 9

	require.NotNil(t, e.Number())
	assert.Equal(t, 2, *e.Number())
	*e.Number() = 7
	assert.Equal(t, 2, *e.Number())
}

func TestEntry_Equal(t *testing.T) {
	a := metadataEntry("/s/bach.xml", "J.S. Bach")
	b := metadataEntry("/s/bach.xml", "J.S. Bach")
	c := metadataEntry("/s/bach.xml", "C.P.E. Bach")
	stub := NewEntry("/s/bach.xml", nil, nil)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(stub))
	assert.True(t, stub.Equal(NewEntry("/s/bach.xml", nil, nil)))
	assert.False(t, NewEntry("/s/r.abc", intPtr(1), nil).Equal(NewEntry("/s/r.abc", intPtr(2), nil)))
}

func TestEntry_StubNeverMatches(t *testing.T) {
	stub := NewEntry("/s/bach.xml", nil, nil)
	assert.True(t, stub.IsStub())

	matched, _, err := stub.Search("bach", "")
	require.NoError(t, err)
	assert.False(t, matched)
}

type fakeParser struct{}

func (fakeParser) Parse(ctx context.Context, sourcePath string, number *int) (*types.Document, error) {
	if sourcePath == "/missing.xml" {
		return nil, errors.New("no such file")
	}
	return &types.Document{SourcePath: sourcePath, Number: number, Format: "abc", Content: []byte("X:1\nT:Reel")}, nil
}

func TestEntry_ParseAndShow(t *testing.T) {
	ctx := context.Background()
	e := NewEntry("/s/reels.abc", intPtr(1), nil)

	doc, err := e.Parse(ctx, fakeParser{})
	require.NoError(t, err)
	assert.Equal(t, "/s/reels.abc", doc.SourcePath)
	assert.Equal(t, 1, *doc.Number)

	var buf bytes.Buffer
	require.NoError(t, e.Show(ctx, &buf, fakeParser{}))
	assert.Equal(t, "% s_reels_abc_1 (abc)\nX:1\nT:Reel\n", buf.String())

	_, err = e.Parse(ctx, nil)
	assert.True(t, errors.Is(err, ErrNoParser))

	_, err = NewEntry("/missing.xml", nil, nil).Parse(ctx, fakeParser{})
	assert.Error(t, err)
}

func TestBundle_AddKeysAt(t *testing.T) {
	b := New("", testConfig(t, nil))
	b.Add(metadataEntry("/s/c.xml", "x"))
	b.Add(metadataEntry("/s/a.xml", "x"))
	b.Add(metadataEntry("/s/b.xml", "x"))
	b.Add(metadataEntry("/s/a.xml", "y"))

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"s_a_xml", "s_b_xml", "s_c_xml"}, b.Keys())

	first, ok := b.At(0)
	require.True(t, ok)
	assert.Equal(t, "/s/a.xml", first.SourcePath())
	_, ok = b.At(3)
	assert.False(t, ok)

	for _, k := range b.Keys() {
		e, ok := b.Get(k)
		require.True(t, ok)
		assert.Equal(t, k, e.Key())
	}

	assert.True(t, b.Remove("s_b_xml"))
	assert.False(t, b.Remove("s_b_xml"))
	assert.False(t, b.Contains("s_b_xml"))

	b.Clear()
	assert.Equal(t, 0, b.Len())
}

func TestBundle_String(t *testing.T) {
	cfg := testConfig(t, nil)

	core := New(NamespaceCore, cfg)
	assert.Equal(t, "<Bundle 'core': {0 entries}>", core.String())

	core.Add(metadataEntry("/s/a.xml", "x"))
	assert.Equal(t, "<Bundle 'core': {1 entry}>", core.String())

	core.Add(metadataEntry("/s/b.xml", "x"))
	assert.Equal(t, "<Bundle 'core': {2 entries}>", core.String())

	assert.Equal(t, "<Bundle None: {0 entries}>", New("", cfg).String())
}

func TestBundle_Equal(t *testing.T) {
	cfg := testConfig(t, nil)
	a := New(NamespaceCore, cfg)
	b := New("", cfg)
	for _, bb := range []*Bundle{a, b} {
		bb.Add(metadataEntry("/s/a.xml", "x"))
		bb.Add(metadataEntry("/s/b.xml", "y"))
	}

	assert.True(t, a.Equal(b), "namespace is ignored")
	assert.False(t, a.Equal("not a bundle"))
	assert.False(t, a.Equal(nil))

	b.Add(metadataEntry("/s/b.xml", "z"))
	assert.False(t, a.Equal(b))
}

func TestBundle_Show(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.Parser = fakeParser{}
	b := New("", cfg)
	e := NewEntry("/s/reels.abc", intPtr(1), nil)
	b.Add(e)

	var buf bytes.Buffer
	require.NoError(t, b.Show(context.Background(), &buf, e.Key()))
	assert.Contains(t, buf.String(), "T:Reel")

	err := b.Show(context.Background(), &buf, "nope")
	assert.True(t, errors.Is(err, ErrUnknownKey))
}
