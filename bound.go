package sparsearray

import (
	"fmt"
	"math/bits"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/rangecheck"
)

// DefaultNbBits is the default bit width bounding keys and the logical size.
// It matches the 32-bit range of the original sparse array layout.
const DefaultNbBits = 32

// Option configures the construction of a table.
type Option func(*config) error

type config struct {
	nbBits int
}

// WithNbBits sets the bit width b bounding the keys and the logical size of
// the table. All ordering assertions are expressed as b-bit range checks on
// differences, so keys and size must fit b bits. Defaults to [DefaultNbBits].
func WithNbBits(nbBits int) Option {
	return func(c *config) error {
		if nbBits < 1 {
			return fmt.Errorf("non-positive bit width %d", nbBits)
		}
		c.nbBits = nbBits
		return nil
	}
}

func newConfig(api frontend.API, opts ...Option) (*config, error) {
	c := &config{nbBits: DefaultNbBits}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	// differences of the form rhs+found-query-1 must not wrap in the field
	if fieldLen := api.Compiler().FieldBitLen(); c.nbBits+2 > fieldLen {
		return nil, fmt.Errorf("bit width %d too large for %d-bit field", c.nbBits, fieldLen)
	}
	return c, nil
}

// checker is the ordering primitive shared by both table variants. Every
// comparison is an assertion that a difference fits nbBits bits; there is no
// other way to compare two values.
type checker struct {
	api    frontend.API
	rc     frontend.Rangechecker
	nbBits int
}

func newChecker(api frontend.API, cfg *config) checker {
	return checker{api: api, rc: rangecheck.New(api), nbBits: cfg.nbBits}
}

// checkHeadroom guards the telescoped adjacency chain over nbSlots key
// slots: each verified difference is below 2^nbBits, so their sum stays
// below nbSlots*2^nbBits and must not reach the field modulus. Without this
// bound, keys wrapped around the modulus could satisfy every individual
// difference check.
func (c checker) checkHeadroom(nbSlots int) error {
	fieldLen := c.api.Compiler().FieldBitLen()
	if c.nbBits+bits.Len(uint(nbSlots)) >= fieldLen {
		return fmt.Errorf("bit width %d with %d key slots overflows %d-bit field", c.nbBits, nbSlots, fieldLen)
	}
	return nil
}

// assertLess constrains a < b.
func (c checker) assertLess(a, b frontend.Variable) {
	c.rc.Check(c.api.Sub(b, a, 1), c.nbBits)
}

// assertLessEq constrains a <= b.
func (c checker) assertLessEq(a, b frontend.Variable) {
	c.rc.Check(c.api.Sub(b, a), c.nbBits)
}

// verifyBracket pins the untrusted (found, bracket) pair produced by a
// search hint: on an exact hit (found=1, rhs=lhs) the query must equal the
// bracket key, on a miss it must lie strictly between the bracket key and
// its right neighbour. Both cases share one algebraic form so no branching
// on witness data is needed.
func (c checker) verifyBracket(query, lhs, rhs, found frontend.Variable) {
	// lhs + 1 - found <= query
	c.rc.Check(c.api.Sub(c.api.Add(query, found), lhs, 1), c.nbBits)
	// query <= rhs - 1 + found
	c.rc.Check(c.api.Sub(c.api.Add(rhs, found), query, 1), c.nbBits)
}

// dot returns the inner product of a and b.
func dot(api frontend.API, a, b []frontend.Variable) frontend.Variable {
	acc := frontend.Variable(0)
	for i := range a {
		acc = api.MulAcc(acc, a[i], b[i])
	}
	return acc
}
