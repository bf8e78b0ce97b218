package kernels

import "math"

// Cast kernels. All buffers hold float32; a cast changes the represented
// value, not the storage. Integral casts truncate toward zero and saturate
// at the target range; NaN casts to 0. Saturation over wrap is a deliberate
// choice so out-of-range behavior is defined identically in the Go reference
// and the emitted C.

const (
	// Largest float32 values that round-trip through the integer targets.
	i32MaxF = 2147483647
	i32MinF = -2147483648
	i64MaxF = 9223372036854775807
	i64MinF = -9223372036854775808
)

func castI32(v float32) int32 {
	if v != v { // NaN
		return 0
	}
	if float64(v) >= i32MaxF {
		return math.MaxInt32
	}
	if float64(v) <= i32MinF {
		return math.MinInt32
	}
	return int32(v) // Go truncates toward zero
}

func castI64(v float32) int64 {
	if v != v {
		return 0
	}
	if float64(v) >= i64MaxF {
		return math.MaxInt64
	}
	if float64(v) <= i64MinF {
		return math.MinInt64
	}
	return int64(v)
}

// CastF32 is a value-preserving copy.
func CastF32(x, out []float32) {
	copy(out, x)
}

// CastF64 round-trips through float64. float32 → float64 is exact, so this
// is also a value-preserving copy; it exists because the operator kind does.
func CastF64(x, out []float32) {
	for i := range out {
		out[i] = float32(float64(x[i]))
	}
}

// CastI32 truncates toward zero with int32 saturation.
func CastI32(x, out []float32) {
	for i := range out {
		out[i] = float32(castI32(x[i]))
	}
}

// CastI64 truncates toward zero with int64 saturation.
func CastI64(x, out []float32) {
	for i := range out {
		out[i] = float32(castI64(x[i]))
	}
}

// CastBool produces 1 for nonzero (including NaN), 0 for zero.
func CastBool(x, out []float32) {
	for i := range out {
		out[i] = b2f(x[i] != 0)
	}
}
