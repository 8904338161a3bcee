package core

import (
	"fmt"
	"math/bits"
)

// MulDiv computes a*b/den with the intermediate product held in 128 bits,
// rounding down. Dust from the floor stays wherever the caller left it (the
// pool), never manufactured. Returns an error when den is zero or the
// quotient would not fit in 64 bits; pool invariants (a ≤ den-side pool)
// make the overflow case unreachable in practice.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrInvalidAmount)
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, fmt.Errorf("%w: quotient overflow", ErrInvalidAmount)
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}
