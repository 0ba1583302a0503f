// Package precompute builds sparse lookup tables out of circuit, for tables
// whose keys and values are known at compile time. A [Table] can be queried
// directly on the host, serialized, and embedded in a circuit as constants
// through [Table.Array], which skips the in-circuit sorting of
// [github.com/consensys/gnark-sparse-array.New] entirely.
package precompute

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
	sparsearray "github.com/consensys/gnark-sparse-array"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	log = logger.Logger().With().Str("component", "precompute").Logger()
}

// SetLogger overrides the package logger.
func SetLogger(l zerolog.Logger) {
	log = l
}

// Table is a sparse lookup table built on the host. It holds the padded
// sorted layout directly: keys = [0, k_1 .. k_n, maximum] and n+3 values
// where values[i+1] pairs with keys[i] and values[0] is the zero value
// returned for absent indices.
type Table struct {
	keys    []uint64
	values  []*big.Int
	maximum uint64
	nbBits  int
}

// Option configures the construction of a table.
type Option func(*config) error

type config struct {
	nbBits int
}

// WithNbBits sets the bit width bounding keys and the logical size, between
// 1 and 64. Defaults to [sparsearray.DefaultNbBits]. The embedded circuit
// table inherits this width.
func WithNbBits(nbBits int) Option {
	return func(c *config) error {
		if nbBits < 1 || nbBits > 64 {
			return fmt.Errorf("bit width %d outside [1,64]", nbBits)
		}
		c.nbBits = nbBits
		return nil
	}
}

// New builds a table from len(keys) unsorted (key, value) pairs. size is the
// logical length of the array; keys must be unique and smaller than size,
// and size-1 must fit the configured bit width. The sort is treated as an
// untrusted oracle: its output is re-checked for strict ordering and for
// being a permutation of the input before the layout is committed.
func New(keys []uint64, values []*big.Int, size uint64, opts ...Option) (*Table, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%d keys for %d values", len(keys), len(values))
	}
	if len(keys) == 0 {
		return nil, errors.New("empty batch")
	}
	cfg := &config{nbBits: sparsearray.DefaultNbBits}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if size == 0 {
		return nil, sparsearray.ErrInvalidSize
	}
	maximum := size - 1
	if cfg.nbBits < 64 && maximum > (uint64(1)<<cfg.nbBits)-1 {
		return nil, fmt.Errorf("maximum %#x does not fit %d bits", maximum, cfg.nbBits)
	}
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("nil value at position %d", i)
		}
	}

	n := len(keys)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool { return keys[perm[i]] < keys[perm[j]] })

	// re-verify the oracle: strictly increasing and a complete permutation
	seen := bitset.New(uint(n))
	for i, p := range perm {
		if i > 0 && keys[perm[i-1]] >= keys[p] {
			return nil, fmt.Errorf("%w: %d", sparsearray.ErrDuplicateKey, keys[p])
		}
		seen.Set(uint(p))
	}
	if seen.Count() != uint(n) {
		return nil, errors.New("sort did not produce a permutation")
	}
	if largest := keys[perm[n-1]]; largest > maximum {
		return nil, fmt.Errorf("%w: %d >= size %d", sparsearray.ErrKeyTooLarge, largest, size)
	}

	t := &Table{
		keys:    make([]uint64, n+2),
		values:  make([]*big.Int, n+3),
		maximum: maximum,
		nbBits:  cfg.nbBits,
	}
	t.keys[0] = 0
	for i, p := range perm {
		t.keys[i+1] = keys[p]
		t.values[i+2] = new(big.Int).Set(values[p])
	}
	t.keys[n+1] = maximum

	t.values[0] = new(big.Int)
	t.values[1] = new(big.Int)
	if t.keys[1] == 0 {
		t.values[1].Set(t.values[2])
	}
	t.values[n+2] = new(big.Int)
	if t.keys[n] == maximum {
		t.values[n+2].Set(t.values[n+1])
	}

	log.Debug().Int("entries", n).Uint64("maximum", maximum).Msg("built sparse table")
	return t, nil
}

// Get returns the value stored at index, or the zero value when index is
// not one of the construction keys. Looking up past the maximum index
// returns [sparsearray.ErrOutOfRange].
func (t *Table) Get(index uint64) (*big.Int, error) {
	if index > t.maximum {
		return nil, fmt.Errorf("%w: %d > %d", sparsearray.ErrOutOfRange, index, t.maximum)
	}
	// bracket [left, right): keys[left] <= index < keys[right]
	left, right := 0, len(t.keys)-1
	for left+1 < right {
		mid := (left + right) / 2
		if t.keys[mid] <= index {
			left = mid
		} else {
			right = mid
		}
	}
	if t.keys[left] == index {
		return new(big.Int).Set(t.values[left+1]), nil
	}
	return new(big.Int), nil
}

// Array embeds the table in a circuit as constants. The layout invariants
// are still re-asserted in-circuit, but no sort hint is involved.
func (t *Table) Array(api frontend.API) (*sparsearray.Array, error) {
	keys := make([]frontend.Variable, len(t.keys))
	for i := range t.keys {
		keys[i] = t.keys[i]
	}
	values := make([]frontend.Variable, len(t.values))
	for i := range t.values {
		values[i] = new(big.Int).Set(t.values[i])
	}
	return sparsearray.NewFromSorted(api, keys, values, t.maximum, sparsearray.WithNbBits(t.nbBits))
}

// Maximum returns the largest valid index, i.e. the logical size minus one.
func (t *Table) Maximum() uint64 {
	return t.maximum
}

// NbEntries returns the number of (key, value) pairs the table was built
// from.
func (t *Table) NbEntries() int {
	return len(t.keys) - 2
}

// NbBits returns the bit width bounding the table's keys and size.
func (t *Table) NbBits() int {
	return t.nbBits
}

// String renders the padded layout in hex.
func (t *Table) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SparseArray{nbBits: %d, maximum: %#x, keys: [", t.nbBits, t.maximum)
	for i, k := range t.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%#x", k)
	}
	sb.WriteString("], values: [")
	for i, v := range t.values {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%s", v.Text(16))
	}
	sb.WriteString("]}")
	return sb.String()
}
