package sparsearray

import "github.com/consensys/gnark/frontend"

// Vector models a logically dense array of a fixed length with at most
// capacity explicit entries; every other index reads as zero. It is a thin
// facade over [MutArray] and adds no invariants beyond the capacity bound
// already enforced there.
type Vector struct {
	arr *MutArray
}

// NewVector builds a vector of the given logical size from an initial batch
// of (index, value) pairs. See [NewMut] for the constraints on the batch.
func NewVector(api frontend.API, keys, values []frontend.Variable, size frontend.Variable, capacity int, opts ...Option) (*Vector, error) {
	arr, err := NewMut(api, keys, values, size, capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &Vector{arr: arr}, nil
}

// Get returns the value at index, or zero when index was never set.
func (v *Vector) Get(index frontend.Variable) frontend.Variable {
	return v.arr.Get(index)
}

// Set stores value at index. See [MutArray.Set].
func (v *Vector) Set(index, value frontend.Variable) {
	v.arr.Set(index, value)
}

// Length returns the logical length of the vector, i.e. maximum+1.
func (v *Vector) Length() frontend.Variable {
	return v.arr.api.Add(v.arr.maximum, 1)
}
