package sparsearray

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark/constraint/solver"
)

func init() {
	solver.RegisterHint(GetHints()...)
}

// GetHints returns all hint functions used in this package. This method is
// useful for registering all hints in the solver.
func GetHints() []solver.Hint {
	return []solver.Hint{sortHint, searchHint, linkedSearchHint, insertSearchHint}
}

// sortHint sorts the n input keys. The first n outputs are the keys in
// increasing order, the last n outputs the original position of each sorted
// key. The result is not trusted by the caller: the circuit re-binds every
// sorted key to its claimed origin and re-asserts strict adjacent increase.
// Equal keys are rejected here with [ErrDuplicateKey] so that the failure is
// named instead of surfacing as an opaque unsatisfied range check.
func sortHint(_ *big.Int, inputs, outputs []*big.Int) error {
	n := len(inputs)
	if len(outputs) != 2*n {
		return fmt.Errorf("expected %d outputs, got %d", 2*n, len(outputs))
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int { return inputs[a].Cmp(inputs[b]) })

	placed := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		if i > 0 && inputs[perm[i-1]].Cmp(inputs[perm[i]]) == 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, inputs[perm[i]].String())
		}
		outputs[i].Set(inputs[perm[i]])
		outputs[n+i].SetInt64(int64(perm[i]))
		placed.Set(uint(perm[i]))
	}
	if placed.Count() != uint(n) {
		return errors.New("sort did not produce a permutation")
	}
	return nil
}

// searchHint scans the padded sorted key sequence for the bracket of a
// query. Inputs are the query followed by the keys; outputs are the found
// flag and the largest position whose key is <= the query.
func searchHint(_ *big.Int, inputs, outputs []*big.Int) error {
	if len(inputs) < 3 {
		return errors.New("malformed search input")
	}
	query := inputs[0]
	keys := inputs[1:]
	at := 0
	for i := range keys {
		if keys[i].Cmp(query) <= 0 {
			at = i
		}
	}
	setBracket(outputs, keys[at].Cmp(query) == 0, at)
	return nil
}

// linkedSearchHint walks the slot chain of a mutable table for the bracket
// of a query. Inputs are the query, the tail pointer bounding the walk, the
// keys of all slots and the next-slot links (a link outside the slot range
// is the end-of-chain sentinel). Outputs are the found flag and the bracket
// slot.
func linkedSearchHint(_ *big.Int, inputs, outputs []*big.Int) error {
	_, err := linkedSearch(inputs, outputs)
	return err
}

// insertSearchHint is linkedSearchHint with the capacity precondition of an
// insert: locating a fresh key on a table whose slots are exhausted fails
// with [ErrCapacityExceeded].
func insertSearchHint(_ *big.Int, inputs, outputs []*big.Int) error {
	full, err := linkedSearch(inputs, outputs)
	if err != nil {
		return err
	}
	if full && outputs[0].Sign() == 0 {
		return ErrCapacityExceeded
	}
	return nil
}

func linkedSearch(inputs, outputs []*big.Int) (full bool, err error) {
	if len(inputs) < 4 || (len(inputs)-2)%2 != 0 {
		return false, errors.New("malformed linked search input")
	}
	nbSlots := (len(inputs) - 2) / 2
	query := inputs[0]
	tail := inputs[1]
	keys := inputs[2 : 2+nbSlots]
	next := inputs[2+nbSlots:]
	if !tail.IsUint64() || tail.Uint64() > uint64(nbSlots) {
		return false, errors.New("corrupted tail pointer")
	}

	// slot 0 always holds key 0; advance while the successor key does not
	// pass the query
	at, found := 0, false
	for step := uint64(0); step < tail.Uint64(); step++ {
		if keys[at].Cmp(query) == 0 {
			found = true
			break
		}
		nx := next[at]
		if !nx.IsUint64() || nx.Uint64() >= uint64(nbSlots) {
			break // sentinel
		}
		if keys[nx.Uint64()].Cmp(query) > 0 {
			break
		}
		at = int(nx.Uint64())
	}
	setBracket(outputs, found, at)
	return tail.Uint64() == uint64(nbSlots), nil
}

func setBracket(outputs []*big.Int, found bool, at int) {
	if found {
		outputs[0].SetUint64(1)
	} else {
		outputs[0].SetUint64(0)
	}
	outputs[1].SetInt64(int64(at))
}
