// Package sparsearray implements lookup tables over logically large,
// mostly-zero arrays using space proportional to the number of stored
// entries.
//
// A table of capacity n over a logical index range [0, size) stores its keys
// in a padded sorted sequence bracketed by 0 and size-1. Queries follow a
// hint-then-verify pattern: at solving time an unconstrained search computes
// the bracket containing the queried index, and the circuit pins that claim
// with two range checks,
//
//	lhs + 1 - found <= query
//	query <= rhs - 1 + found
//
// where lhs and rhs are the bracketing keys and found indicates an exact
// match. When found is 1 both inequalities collapse to query == lhs; when
// found is 0 they force the query strictly between two adjacent stored keys,
// in which case the default (zero) value is selected. A wrong hint makes the
// circuit unsatisfiable, it can never make a lookup return a wrong value.
//
// [Array] is built once and read thereafter. [MutArray] additionally
// supports in-circuit updates: key order is maintained by a linked list
// threaded through fixed slots, so inserting splices a fresh slot instead of
// re-sorting, and previously computed slot references stay valid. [Vector]
// is a thin capacity-bounded facade over [MutArray].
//
// The lookup cost is linear in the table capacity per query. For tables
// whose content is known at compile time, the
// [github.com/consensys/gnark-sparse-array/precompute] package builds the
// layout out of circuit and embeds it as constants.
package sparsearray
