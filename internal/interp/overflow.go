package interp

import "math"

// addChecked returns (a+b, ok). ok is false on signed overflow.
func addChecked(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// subChecked returns (a-b, ok). ok is false on signed overflow.
func subChecked(a, b int64) (int64, bool) {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		return 0, false
	}
	return a - b, true
}

// mulChecked returns (a*b, ok). ok is false on signed overflow.
func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, false
	}
	res := a * b
	if res/b != a {
		return 0, false
	}
	return res, true
}

// Compile-time integer arithmetic saturates at the int64 bounds.

func saturate(negative bool) int64 {
	if negative {
		return math.MinInt64
	}
	return math.MaxInt64
}

func SaturatingAdd(a, b int64) int64 {
	if r, ok := addChecked(a, b); ok {
		return r
	}
	return saturate(b < 0)
}

func SaturatingSub(a, b int64) int64 {
	if r, ok := subChecked(a, b); ok {
		return r
	}
	return saturate(b > 0)
}

func SaturatingMul(a, b int64) int64 {
	if r, ok := mulChecked(a, b); ok {
		return r
	}
	return saturate((a < 0) != (b < 0))
}

func SaturatingNeg(a int64) int64 {
	if a == math.MinInt64 {
		return math.MaxInt64
	}
	return -a
}

// SaturatingPow raises base to a non-negative exponent.
func SaturatingPow(base int64, exp uint64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = SaturatingMul(result, base)
		}
		exp >>= 1
		if exp > 0 {
			base = SaturatingMul(base, base)
		}
	}
	return result
}
