package bundle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dshills/scorecache/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// composerBundles returns a Bach bundle with three entries and a Beethoven
// bundle with two
func composerBundles(t *testing.T) (*Bundle, *Bundle) {
	cfg := testConfig(t, nil)
	bach := New("", cfg)
	for i := 1; i <= 3; i++ {
		bach.Add(metadataEntry(fmt.Sprintf("/s/bach/bwv%d.xml", i), "J.S. Bach"))
	}
	beethoven := New("", cfg)
	for i := 1; i <= 2; i++ {
		beethoven.Add(metadataEntry(fmt.Sprintf("/s/beethoven/op%d.xml", i), "Beethoven"))
	}
	return bach, beethoven
}

// setChecks returns helpers that unwrap set-algebra results and fail t on
// error
func setChecks(t *testing.T) (func(*Bundle, error) *Bundle, func(bool, error) bool) {
	mustOp := func(b *Bundle, err error) *Bundle {
		t.Helper()
		require.NoError(t, err)
		return b
	}
	mustBool := func(v bool, err error) bool {
		t.Helper()
		require.NoError(t, err)
		return v
	}
	return mustOp, mustBool
}

func TestSetOps_DisjointComposers(t *testing.T) {
	mustOp, mustBool := setChecks(t)
	bach, beethoven := composerBundles(t)

	assert.True(t, mustBool(bach.IsDisjoint(beethoven)))

	all := mustOp(bach.Union(beethoven))
	assert.Equal(t, 5, all.Len())
	assert.Equal(t, "", all.Name())

	assert.True(t, mustBool(bach.IsProperSubset(all)))
	assert.True(t, mustBool(all.IsProperSuperset(beethoven)))
	assert.True(t, mustBool(bach.Less(all)))
	assert.True(t, mustBool(all.Greater(bach)))
	assert.False(t, mustBool(all.IsDisjoint(bach)))
}

func TestSetOps_Properties(t *testing.T) {
	mustOp, _ := setChecks(t)
	bach, beethoven := composerBundles(t)
	a := mustOp(bach.Union(beethoven))
	a.Remove(bach.Keys()[0])
	b := bach

	union := mustOp(a.Union(b))
	assert.True(t, mustOp(union.Union(b)).Equal(union), "union is idempotent")

	ab := mustOp(a.Intersection(b))
	ba := mustOp(b.Intersection(a))
	assert.True(t, ab.Equal(ba), "intersection commutes")

	assert.Equal(t, a.Len()+b.Len()-ab.Len(), union.Len())

	assert.True(t, mustOp(a.Union(a)).Equal(a))
	assert.True(t, mustOp(a.Intersection(a)).Equal(a))
	assert.Equal(t, 0, mustOp(a.Difference(a)).Len())

	sym := mustOp(a.SymmetricDifference(b))
	diffs := mustOp(mustOp(a.Difference(b)).Union(mustOp(b.Difference(a))))
	assert.True(t, sym.Equal(diffs))
}

func TestSetOps_SubsetComparisons(t *testing.T) {
	mustOp, mustBool := setChecks(t)
	bach, _ := composerBundles(t)
	same := mustOp(bach.Union(bach))

	assert.True(t, mustBool(bach.IsSubset(same)))
	assert.True(t, mustBool(bach.IsSuperset(same)))
	assert.True(t, mustBool(bach.LessEqual(same)))
	assert.True(t, mustBool(bach.GreaterEqual(same)))
	assert.False(t, mustBool(bach.Less(same)))
	assert.False(t, mustBool(bach.Greater(same)))
}

func TestSetOps_SelfWinsOnConflict(t *testing.T) {
	mustOp, _ := setChecks(t)
	cfg := testConfig(t, nil)
	left := New("", cfg)
	right := New("", cfg)
	left.Add(metadataEntry("/s/a.xml", "left"))
	right.Add(metadataEntry("/s/a.xml", "right"))
	right.Add(metadataEntry("/s/b.xml", "right"))

	u := mustOp(left.Union(right))
	e, ok := u.Get("s_a_xml")
	require.True(t, ok)
	assert.Equal(t, "left", e.Payload().(*types.Metadata).Composer)

	i := mustOp(right.Intersection(left))
	e, _ = i.Get("s_a_xml")
	assert.Equal(t, "right", e.Payload().(*types.Metadata).Composer)
}

func TestSetOps_SharesEntries(t *testing.T) {
	mustOp, _ := setChecks(t)
	bach, beethoven := composerBundles(t)
	u := mustOp(bach.Union(beethoven))

	for _, k := range bach.Keys() {
		orig, _ := bach.Get(k)
		got, _ := u.Get(k)
		assert.Same(t, orig, got)
	}
}

func TestSetOps_InvalidOperand(t *testing.T) {
	bach, _ := composerBundles(t)

	_, err := bach.Union(nil)
	assert.True(t, errors.Is(err, types.ErrInvalidOperand))

	_, err = bach.Apply(SetOp(42), bach)
	assert.True(t, errors.Is(err, types.ErrInvalidOperand))

	_, err = bach.IsSubset(nil)
	assert.True(t, errors.Is(err, types.ErrInvalidOperand))

	_, err = bach.Holds(SetPredicate(42), bach)
	assert.True(t, errors.Is(err, types.ErrInvalidOperand))
}

func TestSetOp_String(t *testing.T) {
	assert.Equal(t, "union", OpUnion.String())
	assert.Equal(t, "symmetric_difference", OpSymmetricDifference.String())
	assert.Equal(t, "SetOp(9)", SetOp(9).String())
}
