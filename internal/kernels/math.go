package kernels

import "math"

// Unary math kernels. Domain errors (log of a negative, sqrt of a negative)
// follow IEEE 754 and produce NaN, matching libm in the generated C; the
// compiler never guards domains because the synthesized graphs may not
// either.

// Round rounds half away from zero, like C roundf.
func Round(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Round(float64(x[i])))
	}
}

// Floor computes out[i] = floor(x[i]).
func Floor(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Floor(float64(x[i])))
	}
}

// Ceil computes out[i] = ceil(x[i]).
func Ceil(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Ceil(float64(x[i])))
	}
}

// Trunc truncates toward zero.
func Trunc(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Trunc(float64(x[i])))
	}
}

// Abs computes out[i] = |x[i]|.
func Abs(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Abs(float64(x[i])))
	}
}

// Neg computes out[i] = -x[i].
func Neg(x, out []float32) {
	for i := range out {
		out[i] = -x[i]
	}
}

// Reciprocal computes out[i] = 1 / x[i].
func Reciprocal(x, out []float32) {
	for i := range out {
		out[i] = 1 / x[i]
	}
}

// Sin computes out[i] = sin(x[i]).
func Sin(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Sin(float64(x[i])))
	}
}

// Cos computes out[i] = cos(x[i]).
func Cos(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Cos(float64(x[i])))
	}
}

// Tan computes out[i] = tan(x[i]).
func Tan(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Tan(float64(x[i])))
	}
}

// Asin computes out[i] = asin(x[i]).
func Asin(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Asin(float64(x[i])))
	}
}

// Acos computes out[i] = acos(x[i]).
func Acos(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Acos(float64(x[i])))
	}
}

// Atan computes out[i] = atan(x[i]).
func Atan(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Atan(float64(x[i])))
	}
}

// Sinh computes out[i] = sinh(x[i]).
func Sinh(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Sinh(float64(x[i])))
	}
}

// Cosh computes out[i] = cosh(x[i]).
func Cosh(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Cosh(float64(x[i])))
	}
}

// Asinh computes out[i] = asinh(x[i]).
func Asinh(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Asinh(float64(x[i])))
	}
}

// Acosh computes out[i] = acosh(x[i]).
func Acosh(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Acosh(float64(x[i])))
	}
}

// Atanh computes out[i] = atanh(x[i]).
func Atanh(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Atanh(float64(x[i])))
	}
}

// Exp computes out[i] = exp(x[i]).
func Exp(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Exp(float64(x[i])))
	}
}

// Expm1 computes out[i] = exp(x[i]) - 1 with small-value accuracy.
func Expm1(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Expm1(float64(x[i])))
	}
}

// Log computes the natural logarithm.
func Log(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Log(float64(x[i])))
	}
}

// Log2 computes the base-2 logarithm.
func Log2(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Log2(float64(x[i])))
	}
}

// Log10 computes the base-10 logarithm.
func Log10(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Log10(float64(x[i])))
	}
}

// Log1p computes log(1 + x[i]) with small-value accuracy.
func Log1p(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Log1p(float64(x[i])))
	}
}

// Sqrt computes out[i] = sqrt(x[i]).
func Sqrt(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Sqrt(float64(x[i])))
	}
}

// Rsqrt computes out[i] = 1 / sqrt(x[i]).
func Rsqrt(x, out []float32) {
	for i := range out {
		out[i] = float32(1 / math.Sqrt(float64(x[i])))
	}
}

// Square computes out[i] = x[i]^2.
func Square(x, out []float32) {
	for i := range out {
		out[i] = x[i] * x[i]
	}
}

// Cube computes out[i] = x[i]^3.
func Cube(x, out []float32) {
	for i := range out {
		out[i] = x[i] * x[i] * x[i]
	}
}

// Erf computes the error function.
func Erf(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Erf(float64(x[i])))
	}
}

// Erfc computes the complementary error function.
func Erfc(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Erfc(float64(x[i])))
	}
}

// Sign computes -1, 0, or 1 per element.
func Sign(x, out []float32) {
	for i := range out {
		switch {
		case x[i] > 0:
			out[i] = 1
		case x[i] < 0:
			out[i] = -1
		default:
			out[i] = 0
		}
	}
}

// IsNaN produces 1 where x[i] is NaN, else 0.
func IsNaN(x, out []float32) {
	for i := range out {
		out[i] = b2f(math.IsNaN(float64(x[i])))
	}
}

// IsInf produces 1 where x[i] is +inf or -inf, else 0.
func IsInf(x, out []float32) {
	for i := range out {
		out[i] = b2f(math.IsInf(float64(x[i]), 0))
	}
}

// IsFinite produces 1 where x[i] is neither NaN nor infinite.
func IsFinite(x, out []float32) {
	for i := range out {
		v := float64(x[i])
		out[i] = b2f(!math.IsNaN(v) && !math.IsInf(v, 0))
	}
}
