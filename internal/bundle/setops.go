package bundle

import (
	"fmt"

	"github.com/dshills/scorecache/pkg/types"
)

// SetOp names a binary operation over bundle key sets
type SetOp int

const (
	OpUnion SetOp = iota
	OpIntersection
	OpDifference
	OpSymmetricDifference
)

func (op SetOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpIntersection:
		return "intersection"
	case OpDifference:
		return "difference"
	case OpSymmetricDifference:
		return "symmetric_difference"
	default:
		return fmt.Sprintf("SetOp(%d)", int(op))
	}
}

type keySet map[string]struct{}

func keysOf(b *Bundle) keySet {
	s := make(keySet, len(b.entries))
	for k := range b.entries {
		s[k] = struct{}{}
	}
	return s
}

var setOps = map[SetOp]func(a, b keySet) keySet{
	OpUnion: func(a, b keySet) keySet {
		out := make(keySet, len(a)+len(b))
		for k := range a {
			out[k] = struct{}{}
		}
		for k := range b {
			out[k] = struct{}{}
		}
		return out
	},
	OpIntersection: func(a, b keySet) keySet {
		out := make(keySet)
		for k := range a {
			if _, ok := b[k]; ok {
				out[k] = struct{}{}
			}
		}
		return out
	},
	OpDifference: func(a, b keySet) keySet {
		out := make(keySet)
		for k := range a {
			if _, ok := b[k]; !ok {
				out[k] = struct{}{}
			}
		}
		return out
	},
	OpSymmetricDifference: func(a, b keySet) keySet {
		out := make(keySet)
		for k := range a {
			if _, ok := b[k]; !ok {
				out[k] = struct{}{}
			}
		}
		for k := range b {
			if _, ok := a[k]; !ok {
				out[k] = struct{}{}
			}
		}
		return out
	},
}

// SetPredicate names a relation between two bundle key sets
type SetPredicate int

const (
	PredSubset SetPredicate = iota
	PredSuperset
	PredDisjoint
	PredProperSubset
	PredProperSuperset
)

func isSubset(a, b keySet) bool {
	if len(a) > len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

var setPredicates = map[SetPredicate]func(a, b keySet) bool{
	PredSubset:   isSubset,
	PredSuperset: func(a, b keySet) bool { return isSubset(b, a) },
	PredDisjoint: func(a, b keySet) bool {
		for k := range a {
			if _, ok := b[k]; ok {
				return false
			}
		}
		return true
	},
	PredProperSubset:   func(a, b keySet) bool { return len(a) < len(b) && isSubset(a, b) },
	PredProperSuperset: func(a, b keySet) bool { return len(b) < len(a) && isSubset(b, a) },
}

// Apply computes op over the key sets of b and other and rehydrates the
// resulting keys into a new anonymous bundle. When both sides hold a key,
// b's entry is used.
func (b *Bundle) Apply(op SetOp, other *Bundle) (*Bundle, error) {
	fn, ok := setOps[op]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation %s", types.ErrInvalidOperand, op)
	}
	if b == nil || other == nil {
		return nil, fmt.Errorf("%w: %s needs two bundles", types.ErrInvalidOperand, op)
	}

	out := b.derive()
	for k := range fn(keysOf(b), keysOf(other)) {
		if e, ok := b.entries[k]; ok {
			out.entries[k] = e
		} else {
			out.entries[k] = other.entries[k]
		}
	}
	return out, nil
}

// Holds evaluates predicate p with b on the left
func (b *Bundle) Holds(p SetPredicate, other *Bundle) (bool, error) {
	fn, ok := setPredicates[p]
	if !ok {
		return false, fmt.Errorf("%w: unknown predicate %d", types.ErrInvalidOperand, int(p))
	}
	if b == nil || other == nil {
		return false, fmt.Errorf("%w: comparison needs two bundles", types.ErrInvalidOperand)
	}
	return fn(keysOf(b), keysOf(other)), nil
}

// Union returns the entries present in either bundle
func (b *Bundle) Union(other *Bundle) (*Bundle, error) {
	return b.Apply(OpUnion, other)
}

// Intersection returns the entries present in both bundles
func (b *Bundle) Intersection(other *Bundle) (*Bundle, error) {
	return b.Apply(OpIntersection, other)
}

// Difference returns the entries of b missing from other
func (b *Bundle) Difference(other *Bundle) (*Bundle, error) {
	return b.Apply(OpDifference, other)
}

// SymmetricDifference returns the entries present in exactly one bundle
func (b *Bundle) SymmetricDifference(other *Bundle) (*Bundle, error) {
	return b.Apply(OpSymmetricDifference, other)
}

func (b *Bundle) IsSubset(other *Bundle) (bool, error) {
	return b.Holds(PredSubset, other)
}

func (b *Bundle) IsSuperset(other *Bundle) (bool, error) {
	return b.Holds(PredSuperset, other)
}

func (b *Bundle) IsDisjoint(other *Bundle) (bool, error) {
	return b.Holds(PredDisjoint, other)
}

func (b *Bundle) IsProperSubset(other *Bundle) (bool, error) {
	return b.Holds(PredProperSubset, other)
}

func (b *Bundle) IsProperSuperset(other *Bundle) (bool, error) {
	return b.Holds(PredProperSuperset, other)
}

// Less reports whether b is a proper subset of other
func (b *Bundle) Less(other *Bundle) (bool, error) {
	return b.IsProperSubset(other)
}

// LessEqual reports whether b is a subset of other
func (b *Bundle) LessEqual(other *Bundle) (bool, error) {
	return b.IsSubset(other)
}

// Greater reports whether b is a proper superset of other
func (b *Bundle) Greater(other *Bundle) (bool, error) {
	return b.IsProperSuperset(other)
}

// GreaterEqual reports whether b is a superset of other
func (b *Bundle) GreaterEqual(other *Bundle) (bool, error) {
	return b.IsSuperset(other)
}
