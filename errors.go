package sparsearray

import "errors"

// Errors returned by the table constructors and, at solving time, by the
// hints backing construction and [MutArray.Set]. A hint error aborts the
// solver with the named condition, so "table full" is distinguishable from a
// broken ordering invariant.
var (
	// ErrDuplicateKey is returned when two construction keys are equal.
	ErrDuplicateKey = errors.New("sparsearray: duplicate key")
	// ErrKeyTooLarge is returned when a key is not smaller than the declared
	// logical size.
	ErrKeyTooLarge = errors.New("sparsearray: key exceeds declared size")
	// ErrInvalidSize is returned when the declared logical size is zero.
	ErrInvalidSize = errors.New("sparsearray: size must be at least 1")
	// ErrCapacityExceeded is returned when setting a new key on a table whose
	// slots are exhausted.
	ErrCapacityExceeded = errors.New("sparsearray: capacity exceeded")
	// ErrOutOfRange is returned by host-side lookups past the maximum index.
	ErrOutOfRange = errors.New("sparsearray: index out of range")
)
