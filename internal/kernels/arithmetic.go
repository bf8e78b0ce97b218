package kernels

import "math"

// Binary arithmetic kernels. Operands are equal-size flat buffers; the
// broadcast normalization pass guarantees that before emission, and callers
// of the Go reference are expected to do the same.

// Add computes out[i] = a[i] + b[i].
func Add(a, b, out []float32) {
	for i := range out {
		out[i] = a[i] + b[i]
	}
}

// Sub computes out[i] = a[i] - b[i].
func Sub(a, b, out []float32) {
	for i := range out {
		out[i] = a[i] - b[i]
	}
}

// Mul computes out[i] = a[i] * b[i].
func Mul(a, b, out []float32) {
	for i := range out {
		out[i] = a[i] * b[i]
	}
}

// Div computes out[i] = a[i] / b[i]. Division by zero follows IEEE 754
// (inf/NaN), the same as the generated C.
func Div(a, b, out []float32) {
	for i := range out {
		out[i] = a[i] / b[i]
	}
}

// Pow computes out[i] = a[i] ** b[i].
func Pow(a, b, out []float32) {
	for i := range out {
		out[i] = float32(math.Pow(float64(a[i]), float64(b[i])))
	}
}

// Remainder computes the C fmodf remainder, truncated toward zero.
func Remainder(a, b, out []float32) {
	for i := range out {
		out[i] = float32(math.Mod(float64(a[i]), float64(b[i])))
	}
}

// FloorDivide computes out[i] = floor(a[i] / b[i]).
func FloorDivide(a, b, out []float32) {
	for i := range out {
		out[i] = float32(math.Floor(float64(a[i] / b[i])))
	}
}

// Minimum computes the elementwise minimum.
func Minimum(a, b, out []float32) {
	for i := range out {
		if a[i] < b[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
}

// Maximum computes the elementwise maximum.
func Maximum(a, b, out []float32) {
	for i := range out {
		if a[i] > b[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
}
