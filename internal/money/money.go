// Package money provides checked fixed-point arithmetic on amounts expressed
// in the smallest currency unit. All settlement math must go through these
// helpers so that overflow is surfaced instead of wrapping.
package money

import (
	"errors"
	"math"
)

// ErrOverflow is returned when a checked operation would exceed int64 range.
var ErrOverflow = errors.New("arithmetic overflow")

// BpsDenominator is the basis-point scale: 10_000 bps = 100%.
const BpsDenominator = 10_000

// Add returns a+b or ErrOverflow.
func Add(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrOverflow
	}

	if b < 0 && a < math.MinInt64-b {
		return 0, ErrOverflow
	}

	return a + b, nil
}

// Sub returns a-b or ErrOverflow.
func Sub(a, b int64) (int64, error) {
	if b == math.MinInt64 {
		if a >= 0 {
			return 0, ErrOverflow
		}

		return a - b, nil
	}

	return Add(a, -b)
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}

	// MinInt64 * -1 wraps to MinInt64 and the division check below would
	// panic on it.
	if (a == math.MinInt64 && b == -1) || (a == -1 && b == math.MinInt64) {
		return 0, ErrOverflow
	}

	res := a * b
	if res/b != a {
		return 0, ErrOverflow
	}

	return res, nil
}

// ApplyBps returns amount scaled by bps, truncated toward zero.
// Both operands must be non-negative.
func ApplyBps(amount, bps int64) (int64, error) {
	if amount < 0 || bps < 0 {
		return 0, ErrOverflow
	}

	scaled, err := Mul(amount, bps)
	if err != nil {
		return 0, err
	}

	return scaled / BpsDenominator, nil
}
