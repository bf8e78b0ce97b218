package kernels

import "math"

// Activation kernels. Constants follow the PyTorch definitions the synthesis
// engine assumes (SELU scale/alpha, GELU via erf).

const (
	seluScale = 1.0507009873554805
	seluAlpha = 1.6732632423543772
)

func sigmoidf(v float32) float32 {
	return float32(1 / (1 + math.Exp(float64(-v))))
}

func softplusf(v float32) float32 {
	return float32(math.Log1p(math.Exp(float64(v))))
}

// Relu computes max(0, x).
func Relu(x, out []float32) {
	for i := range out {
		if x[i] > 0 {
			out[i] = x[i]
		} else {
			out[i] = 0
		}
	}
}

// Relu6 computes min(max(0, x), 6).
func Relu6(x, out []float32) {
	for i := range out {
		v := x[i]
		if v < 0 {
			v = 0
		}
		if v > 6 {
			v = 6
		}
		out[i] = v
	}
}

// Sigmoid computes 1 / (1 + exp(-x)).
func Sigmoid(x, out []float32) {
	for i := range out {
		out[i] = sigmoidf(x[i])
	}
}

// HardSigmoid computes clamp(x/6 + 0.5, 0, 1).
func HardSigmoid(x, out []float32) {
	for i := range out {
		v := x[i]/6 + 0.5
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out[i] = v
	}
}

// LogSigmoid computes log(sigmoid(x)) as -softplus(-x).
func LogSigmoid(x, out []float32) {
	for i := range out {
		out[i] = -softplusf(-x[i])
	}
}

// Tanh computes the hyperbolic tangent.
func Tanh(x, out []float32) {
	for i := range out {
		out[i] = float32(math.Tanh(float64(x[i])))
	}
}

// Gelu computes the exact (erf-based) GELU: 0.5 * x * (1 + erf(x / sqrt(2))).
func Gelu(x, out []float32) {
	for i := range out {
		v := float64(x[i])
		out[i] = float32(0.5 * v * (1 + math.Erf(v/math.Sqrt2)))
	}
}

// Selu computes scale * (max(0,x) + min(0, alpha*(exp(x)-1))).
func Selu(x, out []float32) {
	for i := range out {
		v := float64(x[i])
		if v > 0 {
			out[i] = float32(seluScale * v)
		} else {
			out[i] = float32(seluScale * seluAlpha * (math.Exp(v) - 1))
		}
	}
}

// Silu computes x * sigmoid(x).
func Silu(x, out []float32) {
	for i := range out {
		out[i] = x[i] * sigmoidf(x[i])
	}
}

// HardSwish computes x * clamp(x/6 + 0.5, 0, 1).
func HardSwish(x, out []float32) {
	for i := range out {
		h := x[i]/6 + 0.5
		if h < 0 {
			h = 0
		}
		if h > 1 {
			h = 1
		}
		out[i] = x[i] * h
	}
}

// Mish computes x * tanh(softplus(x)).
func Mish(x, out []float32) {
	for i := range out {
		out[i] = x[i] * float32(math.Tanh(float64(softplusf(x[i]))))
	}
}

// Softplus computes log(1 + exp(x)).
func Softplus(x, out []float32) {
	for i := range out {
		out[i] = softplusf(x[i])
	}
}

// Softsign computes x / (1 + |x|).
func Softsign(x, out []float32) {
	for i := range out {
		out[i] = x[i] / (1 + float32(math.Abs(float64(x[i]))))
	}
}

// LeakyRelu computes x for x >= 0, negativeSlope*x otherwise.
func LeakyRelu(x, out []float32, negativeSlope float32) {
	for i := range out {
		if x[i] >= 0 {
			out[i] = x[i]
		} else {
			out[i] = negativeSlope * x[i]
		}
	}
}

// Elu computes x for x > 0, alpha*(exp(x)-1) otherwise.
func Elu(x, out []float32, alpha float32) {
	for i := range out {
		if x[i] > 0 {
			out[i] = x[i]
		} else {
			out[i] = alpha * float32(math.Expm1(float64(x[i])))
		}
	}
}

// Celu computes max(0,x) + min(0, alpha*(exp(x/alpha)-1)).
func Celu(x, out []float32, alpha float32) {
	for i := range out {
		pos := x[i]
		if pos < 0 {
			pos = 0
		}
		neg := alpha * float32(math.Expm1(float64(x[i]/alpha)))
		if neg > 0 {
			neg = 0
		}
		out[i] = pos + neg
	}
}

// HardTanh clamps into [minVal, maxVal].
func HardTanh(x, out []float32, minVal, maxVal float32) {
	for i := range out {
		v := x[i]
		if v < minVal {
			v = minVal
		}
		if v > maxVal {
			v = maxVal
		}
		out[i] = v
	}
}

// HardShrink zeroes values with |x| <= lambd.
func HardShrink(x, out []float32, lambd float32) {
	for i := range out {
		if x[i] > lambd || x[i] < -lambd {
			out[i] = x[i]
		} else {
			out[i] = 0
		}
	}
}

// SoftShrink shrinks values toward zero by lambd.
func SoftShrink(x, out []float32, lambd float32) {
	for i := range out {
		switch {
		case x[i] > lambd:
			out[i] = x[i] - lambd
		case x[i] < -lambd:
			out[i] = x[i] + lambd
		default:
			out[i] = 0
		}
	}
}

// Clip clamps into [minVal, maxVal].
func Clip(x, out []float32, minVal, maxVal float32) {
	HardTanh(x, out, minVal, maxVal)
}

// Prelu computes x for x >= 0, alpha[i]*x otherwise, with per-element alpha.
func Prelu(x, alpha, out []float32) {
	for i := range out {
		if x[i] >= 0 {
			out[i] = x[i]
		} else {
			out[i] = alpha[i] * x[i]
		}
	}
}

// Softmax computes a numerically stable softmax over the whole buffer. The
// library folds over the flattened buffer; axis grouping is resolved by the
// emitter before the call (see the softmax axis note in the shape rules).
func Softmax(x, out []float32) {
	maxV := x[0]
	for _, v := range x[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i := range x {
		e := math.Exp(float64(x[i] - maxV))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
}

// Softmin computes softmax(-x).
func Softmin(x, out []float32) {
	neg := make([]float32, len(x))
	for i := range x {
		neg[i] = -x[i]
	}
	Softmax(neg, out)
}

// LogSoftmax computes x - max - log(sum(exp(x - max))).
func LogSoftmax(x, out []float32) {
	maxV := x[0]
	for _, v := range x[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i := range x {
		sum += math.Exp(float64(x[i] - maxV))
	}
	logSum := float32(math.Log(sum))
	for i := range out {
		out[i] = x[i] - maxV - logSum
	}
}

// Glu halves the split dimension: with the outer/half/inner decomposition of
// the input around that dimension (half = splitDim/2),
// out[o,h,i] = x[o,h,i] * sigmoid(x[o,h+half,i]).
func Glu(x, out []float32, outer, half, inner int) {
	for o := 0; o < outer; o++ {
		for h := 0; h < half; h++ {
			for i := 0; i < inner; i++ {
				a := x[(o*2*half+h)*inner+i]
				b := x[(o*2*half+half+h)*inner+i]
				out[(o*half+h)*inner+i] = a * sigmoidf(b)
			}
		}
	}
}
