package sparsearray_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	sparsearray "github.com/consensys/gnark-sparse-array"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
)

type vectorCircuit struct {
	Keys   []frontend.Variable
	Values []frontend.Variable
	Length frontend.Variable

	size     uint64
	capacity int
}

func (c *vectorCircuit) Define(api frontend.API) error {
	v, err := sparsearray.NewVector(api, c.Keys, c.Values, c.size, c.capacity)
	if err != nil {
		return err
	}
	api.AssertIsEqual(v.Length(), c.Length)
	v.Set(3, 42)
	api.AssertIsEqual(v.Get(3), 42)
	api.AssertIsEqual(v.Get(2), 0)
	api.AssertIsEqual(v.Get(10), 1001)
	return nil
}

func TestVector(t *testing.T) {
	assert := test.NewAssert(t)

	witness := vectorCircuit{
		Keys:   vars(10, 20),
		Values: vars(1001, 1002),
		Length: 1000,
	}
	circuit := vectorCircuit{
		Keys:     make([]frontend.Variable, 2),
		Values:   make([]frontend.Variable, 2),
		size:     1000,
		capacity: 4,
	}
	assert.NoError(test.IsSolved(&circuit, &witness, ecc.BN254.ScalarField()))
}
