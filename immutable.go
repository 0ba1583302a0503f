package sparsearray

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/logger"
	"github.com/consensys/gnark/std/selector"
)

// Array is an immutable sparse lookup table. It is built once from a batch
// of (key, value) pairs and answers [Array.Get] queries thereafter.
//
// Internally the keys live in a sorted sequence padded with 0 below and
// maximum (= size-1) above, and values[i+1] pairs with keys[i]; values[0]
// holds the zero value returned for absent indices. The two padding slots
// carry the value of the matching input key when that key is exactly 0 or
// exactly maximum, and the zero value otherwise.
type Array struct {
	checker

	keys    []frontend.Variable // n+2, weakly increasing, keys[0]=0, keys[n+1]=maximum
	values  []frontend.Variable // n+3, values[0] is the zero value
	maximum frontend.Variable
}

// New builds an immutable sparse array from len(keys) unsorted (key, value)
// pairs. size is the logical length: lookups are defined for indices in
// [0, size-1]. Keys must be unique and smaller than size, and size-1 must
// fit the configured bit width.
//
// The pairs are sorted by an out-of-circuit hint; the claimed order is
// re-verified in-circuit, so a misbehaving sort makes the circuit
// unsatisfiable rather than the table silently wrong.
func New(api frontend.API, keys, values []frontend.Variable, size frontend.Variable, opts ...Option) (*Array, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%d keys for %d values", len(keys), len(values))
	}
	if len(keys) == 0 {
		return nil, errors.New("empty batch")
	}
	cfg, err := newConfig(api, opts...)
	if err != nil {
		return nil, err
	}
	log := logger.Logger()
	log.Debug().Int("entries", len(keys)).Int("nbBits", cfg.nbBits).Msg("building sparse array")

	t := &Array{checker: newChecker(api, cfg)}
	if err := t.checkHeadroom(len(keys) + 2); err != nil {
		return nil, err
	}
	t.maximum = api.Sub(size, 1)
	// maximum in [0, 2^b) also forces size >= 1
	t.rc.Check(t.maximum, cfg.nbBits)

	sorted, placed, err := sortAndBind(t.checker, keys, values, t.maximum)
	if err != nil {
		return nil, err
	}

	n := len(keys)
	t.keys = make([]frontend.Variable, n+2)
	t.keys[0] = 0
	copy(t.keys[1:], sorted)
	t.keys[n+1] = t.maximum

	t.values = make([]frontend.Variable, n+3)
	t.values[0] = 0
	t.values[1] = api.Select(api.IsZero(sorted[0]), placed[0], 0)
	copy(t.values[2:], placed)
	t.values[n+2] = api.Select(api.IsZero(api.Sub(t.maximum, sorted[n-1])), placed[n-1], 0)
	return t, nil
}

// NewFromSorted wraps an already padded sorted layout, as produced by the
// precompute package: keys = [0, k_1 .. k_n, maximum] and len(keys)+1 values
// with values[0] = 0. The layout invariants are re-asserted in-circuit, but
// no sorting takes place; for constant layouts this is considerably cheaper
// than [New].
func NewFromSorted(api frontend.API, keys, values []frontend.Variable, maximum frontend.Variable, opts ...Option) (*Array, error) {
	if len(keys) < 3 {
		return nil, fmt.Errorf("padded layout has %d slots, need at least 3", len(keys))
	}
	if len(values) != len(keys)+1 {
		return nil, fmt.Errorf("%d values for %d key slots", len(values), len(keys))
	}
	cfg, err := newConfig(api, opts...)
	if err != nil {
		return nil, err
	}
	t := &Array{
		checker: newChecker(api, cfg),
		keys:    append([]frontend.Variable(nil), keys...),
		values:  append([]frontend.Variable(nil), values...),
		maximum: maximum,
	}
	if err := t.checkHeadroom(len(keys)); err != nil {
		return nil, err
	}
	api.AssertIsEqual(t.keys[0], 0)
	api.AssertIsEqual(t.keys[len(keys)-1], maximum)
	api.AssertIsEqual(t.values[0], 0)
	t.rc.Check(maximum, cfg.nbBits)
	// the padding slots may duplicate their neighbour, the interior is strict
	t.assertLessEq(t.keys[0], t.keys[1])
	for i := 1; i+2 < len(keys); i++ {
		t.assertLess(t.keys[i], t.keys[i+1])
	}
	t.assertLessEq(t.keys[len(keys)-2], t.keys[len(keys)-1])
	return t, nil
}

// Get returns the value stored at index, or the zero value when index is
// not one of the construction keys. index must be in [0, size-1]: for
// anything larger no bracket exists and the circuit is unsatisfiable.
func (t *Array) Get(index frontend.Variable) frontend.Variable {
	in := make([]frontend.Variable, 0, len(t.keys)+1)
	in = append(in, index)
	in = append(in, t.keys...)
	res, err := t.api.Compiler().NewHint(searchHint, 2, in...)
	if err != nil {
		panic(fmt.Sprintf("search hint: %v", err))
	}
	found, at := res[0], res[1]
	t.api.AssertIsBoolean(found)

	lhs := selector.Mux(t.api, at, t.keys...)
	// the right neighbour collapses onto the bracket itself on an exact hit
	rhs := selector.Mux(t.api, t.api.Sub(t.api.Add(at, 1), found), t.keys...)
	t.verifyBracket(index, lhs, rhs, found)

	// values index (at+1)*found: slot 0, the zero value, on a miss
	return selector.Mux(t.api, t.api.Mul(t.api.Add(at, 1), found), t.values...)
}

// Maximum returns the largest valid index, i.e. the logical size minus one.
func (t *Array) Maximum() frontend.Variable {
	return t.maximum
}

// sortAndBind invokes the sort hint and re-verifies its output: every
// sorted key is bound to its claimed original position through a one-hot
// decoder (carrying the matching value along), adjacent sorted keys must
// strictly increase and the largest must not exceed maximum. Strict increase
// makes the sorted keys pairwise distinct, which in turn forces the claimed
// positions to form a permutation.
func sortAndBind(c checker, keys, values []frontend.Variable, maximum frontend.Variable) (sorted, placed []frontend.Variable, err error) {
	n := len(keys)
	outs, err := c.api.Compiler().NewHint(sortHint, 2*n, keys...)
	if err != nil {
		return nil, nil, fmt.Errorf("sort hint: %w", err)
	}
	sorted, indices := outs[:n], outs[n:]

	placed = make([]frontend.Variable, n)
	for i := 0; i < n; i++ {
		d := selector.Decoder(c.api, n, indices[i])
		c.api.AssertIsEqual(sorted[i], dot(c.api, d, keys))
		placed[i] = dot(c.api, d, values)
	}

	c.rc.Check(sorted[0], c.nbBits)
	for i := 0; i+1 < n; i++ {
		c.assertLess(sorted[i], sorted[i+1])
	}
	c.assertLessEq(sorted[n-1], maximum)
	return sorted, placed, nil
}
