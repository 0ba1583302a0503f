package sparsearray

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/logger"
	"github.com/consensys/gnark/std/selector"
)

// MutArray is a sparse lookup table with a fixed capacity of explicit
// entries that supports in-circuit updates. Key order is maintained by a
// singly linked list threaded through fixed slots: slot 0 always holds key
// 0, the chain visits the active keys in increasing order and terminates in
// a sentinel link at the slot holding maximum. [MutArray.Set] on a fresh key
// splices a new slot into the chain instead of re-sorting, so existing slots
// never move and previously resolved brackets stay valid.
//
// A MutArray is single-writer state threaded through the circuit
// definition: every Get observes all Sets issued before it.
type MutArray struct {
	checker

	capacity int
	keys     []frontend.Variable // capacity+2 slots
	next     []frontend.Variable // chain links, sentinel-terminated
	values   []frontend.Variable // capacity+3, values[0] is the zero value
	tail     frontend.Variable   // next free slot
	maximum  frontend.Variable
	sentinel *big.Int // 2^nbBits - 1, outside the slot range
}

// NewMut builds a mutable sparse array from an initial batch of up to
// capacity (key, value) pairs, with the same key constraints as [New]. The
// remaining capacity-len(keys) slots are consumed by Sets of fresh keys;
// overwriting an existing key never consumes a slot.
func NewMut(api frontend.API, keys, values []frontend.Variable, size frontend.Variable, capacity int, opts ...Option) (*MutArray, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%d keys for %d values", len(keys), len(values))
	}
	if len(keys) == 0 {
		return nil, errors.New("empty batch")
	}
	if len(keys) > capacity {
		return nil, fmt.Errorf("batch of %d exceeds capacity %d", len(keys), capacity)
	}
	cfg, err := newConfig(api, opts...)
	if err != nil {
		return nil, err
	}
	sentinel := new(big.Int).Lsh(big.NewInt(1), uint(cfg.nbBits))
	sentinel.Sub(sentinel, big.NewInt(1))
	if sentinel.Cmp(big.NewInt(int64(capacity+3))) < 0 {
		return nil, fmt.Errorf("capacity %d not addressable with %d-bit links", capacity, cfg.nbBits)
	}
	log := logger.Logger()
	log.Debug().Int("entries", len(keys)).Int("capacity", capacity).Int("nbBits", cfg.nbBits).Msg("building mutable sparse array")

	m := &MutArray{
		checker:  newChecker(api, cfg),
		capacity: capacity,
		sentinel: sentinel,
	}
	m.maximum = api.Sub(size, 1)
	m.rc.Check(m.maximum, cfg.nbBits)
	if err := m.checkHeadroom(capacity + 2); err != nil {
		return nil, err
	}

	sorted, placed, err := sortAndBind(m.checker, keys, values, m.maximum)
	if err != nil {
		return nil, err
	}

	n := len(keys)
	nbSlots := capacity + 2
	m.keys = make([]frontend.Variable, nbSlots)
	m.next = make([]frontend.Variable, nbSlots)
	m.values = make([]frontend.Variable, nbSlots+1)

	m.keys[0] = 0
	copy(m.keys[1:], sorted)
	m.keys[n+1] = m.maximum
	for i := 0; i <= n; i++ {
		m.next[i] = i + 1
	}
	m.next[n+1] = m.sentinel
	for i := n + 2; i < nbSlots; i++ {
		// free slots are unreachable through the chain; their key is parked
		// past the maximum index so no valid query can claim a match there
		m.keys[i] = api.Add(m.maximum, 1)
		m.next[i] = m.sentinel
	}

	m.values[0] = 0
	m.values[1] = api.Select(api.IsZero(sorted[0]), placed[0], 0)
	for i := 0; i < n; i++ {
		m.values[i+2] = placed[i]
	}
	m.values[n+2] = api.Select(api.IsZero(api.Sub(m.maximum, sorted[n-1])), placed[n-1], 0)
	for i := n + 3; i < len(m.values); i++ {
		m.values[i] = 0
	}

	m.tail = n + 2
	return m, nil
}

// Get returns the value stored at index, or the zero value when index is
// not an active key. index must be in [0, size-1].
func (m *MutArray) Get(index frontend.Variable) frontend.Variable {
	found, at, _ := m.locate(index, linkedSearchHint)
	return selector.Mux(m.api, m.api.Mul(m.api.Add(at, 1), found), m.values...)
}

// Set stores value at index, overwriting in place when index is an active
// key and splicing a fresh slot into the chain otherwise. Setting a fresh
// key on a table with no free slot fails: the insert hint aborts the solver
// with [ErrCapacityExceeded], and an equivalent range check on the tail
// pointer enforces the bound in-circuit. index must be in [0, size-1].
func (m *MutArray) Set(index, value frontend.Variable) {
	found, at, oldNext := m.locate(index, insertSearchHint)
	api := m.api
	notFound := api.Sub(1, found)

	// fresh key: tail <= capacity+1, i.e. a free slot remains
	m.rc.Check(api.Sub(api.Add(found, m.capacity+1), m.tail), m.nbBits)

	nbSlots := len(m.keys)
	dAt := selector.Decoder(api, nbSlots, at)
	// one spare decoder position so a full table still decodes its tail
	dTail := selector.Decoder(api, nbSlots+1, m.tail)[:nbSlots]
	for j := 0; j < nbSlots; j++ {
		grow := api.Mul(notFound, dTail[j])
		splice := api.Mul(notFound, dAt[j])
		m.keys[j] = api.Select(grow, index, m.keys[j])
		// bracket slot now points at the fresh slot, which inherits the old
		// right neighbour
		m.next[j] = api.Select(grow, oldNext, api.Select(splice, m.tail, m.next[j]))
		// on an overwrite the value lands in every slot holding the key, so a
		// key duplicated into a padding anchor slot can never serve a stale
		// value afterwards
		hit := api.Mul(found, api.IsZero(api.Sub(m.keys[j], index)))
		m.values[j+1] = api.Select(api.Add(hit, grow), value, m.values[j+1])
	}
	m.tail = api.Add(m.tail, notFound)
}

// Maximum returns the largest valid index, i.e. the logical size minus one.
func (m *MutArray) Maximum() frontend.Variable {
	return m.maximum
}

// locate runs the given linked search hint and verifies the claimed bracket
// against the chain. It returns the found flag, the bracket slot and the
// bracket's successor link (the sentinel when the bracket is the last active
// slot).
func (m *MutArray) locate(index frontend.Variable, hint solver.Hint) (found, at, oldNext frontend.Variable) {
	in := make([]frontend.Variable, 0, 2+2*len(m.keys))
	in = append(in, index, m.tail)
	in = append(in, m.keys...)
	in = append(in, m.next...)
	res, err := m.api.Compiler().NewHint(hint, 2, in...)
	if err != nil {
		panic(fmt.Sprintf("linked search hint: %v", err))
	}
	found, at = res[0], res[1]
	oldNext = m.verifySlot(index, found, at)
	return found, at, oldNext
}

// verifySlot pins an untrusted (found, at) claim against the chain and
// returns the bracket's successor link. The index is bounded by maximum
// first: past it no bracket exists and free slots, whose parked key is
// maximum+1, stay unmatchable.
func (m *MutArray) verifySlot(index, found, at frontend.Variable) (oldNext frontend.Variable) {
	m.assertLessEq(index, m.maximum)
	m.api.AssertIsBoolean(found)

	lhs := selector.Mux(m.api, at, m.keys...)
	oldNext = selector.Mux(m.api, at, m.next...)
	// on a miss the right neighbour is read through the chain; on a hit it
	// collapses onto the bracket itself (the successor may be the sentinel)
	rhs := selector.Mux(m.api, m.api.Select(found, at, oldNext), m.keys...)
	m.verifyBracket(index, lhs, rhs, found)
	return oldNext
}
