package sparsearray

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/selector"
	"github.com/consensys/gnark/test"
)

// forcedSlotCircuit replays the bracket verification of [MutArray.Get] with
// a caller-chosen (found, at) claim instead of the hint's, then asserts the
// selected value. Any claim the verification admits must resolve to the one
// true value for the index.
type forcedSlotCircuit struct {
	Found frontend.Variable
	At    frontend.Variable
	Index frontend.Variable
	Want  frontend.Variable

	keys     []uint64
	values   []uint64
	size     uint64
	capacity int
	setKey   uint64
	setValue uint64
	withSet  bool
}

func (c *forcedSlotCircuit) Define(api frontend.API) error {
	keys := make([]frontend.Variable, len(c.keys))
	values := make([]frontend.Variable, len(c.values))
	for i := range c.keys {
		keys[i] = c.keys[i]
		values[i] = c.values[i]
	}
	m, err := NewMut(api, keys, values, c.size, c.capacity)
	if err != nil {
		return err
	}
	if c.withSet {
		m.Set(c.setKey, c.setValue)
	}
	m.verifySlot(c.Index, c.Found, c.At)
	res := selector.Mux(api, api.Mul(api.Add(c.At, 1), c.Found), m.values...)
	api.AssertIsEqual(res, c.Want)
	return nil
}

// a stored key equal to the maximum index occupies two slots: its batch slot
// and the upper padding anchor. After an overwrite both must serve the new
// value, and the old value must not be resolvable at either slot.
func TestMutSetOverwritesDuplicatedAnchor(t *testing.T) {
	assert := test.NewAssert(t)
	shape := func() *forcedSlotCircuit {
		return &forcedSlotCircuit{
			keys:     []uint64{1, 99, 7, 5},
			values:   []uint64{123, 101112, 789, 456},
			size:     100,
			capacity: 4,
			withSet:  true,
			setKey:   99,
			setValue: 2222,
		}
	}
	// slot 4 holds key 99 from the batch, slot 5 is the maximum anchor
	for _, at := range []uint64{4, 5} {
		fresh := &forcedSlotCircuit{Found: 1, At: at, Index: 99, Want: 2222}
		assert.NoError(test.IsSolved(shape(), fresh, ecc.BN254.ScalarField()))
		stale := &forcedSlotCircuit{Found: 1, At: at, Index: 99, Want: 101112}
		assert.Error(test.IsSolved(shape(), stale, ecc.BN254.ScalarField()))
	}
}

// same at the lower end: key 0 occupies slot 0 (the anchor) and slot 1.
func TestMutSetOverwritesDuplicatedZeroAnchor(t *testing.T) {
	assert := test.NewAssert(t)
	shape := func() *forcedSlotCircuit {
		return &forcedSlotCircuit{
			keys:     []uint64{0, 5},
			values:   []uint64{77, 88},
			size:     100,
			capacity: 4,
			withSet:  true,
			setKey:   0,
			setValue: 11,
		}
	}
	for _, at := range []uint64{0, 1} {
		fresh := &forcedSlotCircuit{Found: 1, At: at, Index: 0, Want: 11}
		assert.NoError(test.IsSolved(shape(), fresh, ecc.BN254.ScalarField()))
		stale := &forcedSlotCircuit{Found: 1, At: at, Index: 0, Want: 77}
		assert.Error(test.IsSolved(shape(), stale, ecc.BN254.ScalarField()))
	}
}

// slots not yet threaded into the chain hold no key: a match claim there
// must not verify, in particular it must not resolve a stored key to the
// default value. Indices past maximum admit no claim at all.
func TestMutFreeSlotUnmatchable(t *testing.T) {
	assert := test.NewAssert(t)
	shape := func() *forcedSlotCircuit {
		return &forcedSlotCircuit{
			keys:     []uint64{0, 5},
			values:   []uint64{77, 88},
			size:     100,
			capacity: 4,
		}
	}
	// slots 0..3 are the chain (anchors and batch), slots 4 and 5 are free
	forged := &forcedSlotCircuit{Found: 1, At: 4, Index: 0, Want: 0}
	assert.Error(test.IsSolved(shape(), forged, ecc.BN254.ScalarField()))

	// the free slots park their key at maximum+1; claiming that index must
	// fail the index bound, not resolve to the parked slot
	past := &forcedSlotCircuit{Found: 1, At: 4, Index: 100, Want: 0}
	assert.Error(test.IsSolved(shape(), past, ecc.BN254.ScalarField()))

	honest := &forcedSlotCircuit{Found: 1, At: 0, Index: 0, Want: 77}
	assert.NoError(test.IsSolved(shape(), honest, ecc.BN254.ScalarField()))
	twin := &forcedSlotCircuit{Found: 1, At: 1, Index: 0, Want: 77}
	assert.NoError(test.IsSolved(shape(), twin, ecc.BN254.ScalarField()))
}
