package kernels

// Comparison kernels produce the float values 0 and 1 so the library keeps a
// single element type.

// Greater computes out[i] = a[i] > b[i] ? 1 : 0.
func Greater(a, b, out []float32) {
	for i := range out {
		out[i] = b2f(a[i] > b[i])
	}
}

// Less computes out[i] = a[i] < b[i] ? 1 : 0.
func Less(a, b, out []float32) {
	for i := range out {
		out[i] = b2f(a[i] < b[i])
	}
}

// Equal computes out[i] = a[i] == b[i] ? 1 : 0.
func Equal(a, b, out []float32) {
	for i := range out {
		out[i] = b2f(a[i] == b[i])
	}
}

// GreaterEqual computes out[i] = a[i] >= b[i] ? 1 : 0.
func GreaterEqual(a, b, out []float32) {
	for i := range out {
		out[i] = b2f(a[i] >= b[i])
	}
}

// LessEqual computes out[i] = a[i] <= b[i] ? 1 : 0.
func LessEqual(a, b, out []float32) {
	for i := range out {
		out[i] = b2f(a[i] <= b[i])
	}
}

// NotEqual computes out[i] = a[i] != b[i] ? 1 : 0.
func NotEqual(a, b, out []float32) {
	for i := range out {
		out[i] = b2f(a[i] != b[i])
	}
}

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
