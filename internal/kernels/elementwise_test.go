package kernels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5}
	b := []float32{5, 4, 3, 2, 1}
	out := make([]float32, 5)

	Add(a, b, out)
	assert.Equal(t, []float32{6, 6, 6, 6, 6}, out)
}

func TestBinaryBasics(t *testing.T) {
	a := []float32{4, -2, 9}
	b := []float32{2, 2, 3}
	out := make([]float32, 3)

	Sub(a, b, out)
	assert.Equal(t, []float32{2, -4, 6}, out)

	Mul(a, b, out)
	assert.Equal(t, []float32{8, -4, 27}, out)

	Div(a, b, out)
	assert.Equal(t, []float32{2, -1, 3}, out)

	FloorDivide(a, b, out)
	assert.Equal(t, []float32{2, -1, 3}, out)

	Maximum(a, b, out)
	assert.Equal(t, []float32{4, 2, 9}, out)
}

func TestComparisons(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{2, 2, 2}
	out := make([]float32, 3)

	Greater(a, b, out)
	assert.Equal(t, []float32{0, 0, 1}, out)

	LessEqual(a, b, out)
	assert.Equal(t, []float32{1, 1, 0}, out)

	Equal(a, b, out)
	assert.Equal(t, []float32{0, 1, 0}, out)
}

func TestShiftClamping(t *testing.T) {
	a := []float32{1, 1, 8}
	out := make([]float32, 3)

	// Shift counts outside [0, 31] clamp rather than wrap; a full 31-bit
	// shift of 1 lands on the int32 sign bit.
	LeftShift(a, []float32{40, -3, 2}, out)
	assert.Equal(t, []float32{float32(math.MinInt32), 1, 32}, out)

	RightShift([]float32{16, 16, 16}, []float32{2, 100, -1}, out)
	assert.Equal(t, []float32{4, 0, 16}, out)
}

func TestBitwise(t *testing.T) {
	out := make([]float32, 2)

	BitwiseAnd([]float32{6, 12}, []float32{3, 10}, out)
	assert.Equal(t, []float32{2, 8}, out)

	BitwiseXor([]float32{6, 12}, []float32{3, 10}, out)
	assert.Equal(t, []float32{5, 6}, out)
}

func TestRelu(t *testing.T) {
	out := make([]float32, 4)
	Relu([]float32{-1, 0, 2, -0.5}, out)
	assert.Equal(t, []float32{0, 0, 2, 0}, out)
}

func TestSigmoid(t *testing.T) {
	out := make([]float32, 3)
	Sigmoid([]float32{0, 100, -100}, out)
	assert.InDelta(t, 0.5, out[0], 1e-6)
	assert.InDelta(t, 1.0, out[1], 1e-6)
	assert.InDelta(t, 0.0, out[2], 1e-6)
}

func TestLeakyRelu(t *testing.T) {
	out := make([]float32, 2)
	LeakyRelu([]float32{-2, 3}, out, 0.1)
	assert.InDelta(t, -0.2, out[0], 1e-6)
	assert.InDelta(t, 3.0, out[1], 1e-6)
}

func TestHardTanhAndClip(t *testing.T) {
	out := make([]float32, 3)
	HardTanh([]float32{-5, 0.5, 5}, out, -1, 1)
	assert.Equal(t, []float32{-1, 0.5, 1}, out)

	Clip([]float32{-5, 0.5, 5}, out, 0, 2)
	assert.Equal(t, []float32{0, 0.5, 2}, out)
}

func TestSelu(t *testing.T) {
	out := make([]float32, 2)
	Selu([]float32{1, -1}, out)
	assert.InDelta(t, 1.0507009, out[0], 1e-5)
	assert.InDelta(t, 1.0507009*1.6732632*(math.Exp(-1)-1), float64(out[1]), 1e-5)
}

func TestSoftmax(t *testing.T) {
	x := []float32{1, 2, 3, 4}
	out := make([]float32, 4)
	Softmax(x, out)

	var sum float32
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
	assert.True(t, out[3] > out[2] && out[2] > out[1] && out[1] > out[0])

	// Shift invariance: softmax(x) == softmax(x + c).
	shifted := make([]float32, 4)
	Softmax([]float32{101, 102, 103, 104}, shifted)
	for i := range out {
		assert.InDelta(t, out[i], shifted[i], 1e-5)
	}
}

func TestLogSoftmax(t *testing.T) {
	x := []float32{1, 2, 3}
	sm := make([]float32, 3)
	lsm := make([]float32, 3)
	Softmax(x, sm)
	LogSoftmax(x, lsm)
	for i := range sm {
		assert.InDelta(t, math.Log(float64(sm[i])), float64(lsm[i]), 1e-5)
	}
}

func TestGlu(t *testing.T) {
	// One outer row, halves of length 2, inner 1: out = a * sigmoid(g).
	x := []float32{1, 2, 0, 0}
	out := make([]float32, 2)
	Glu(x, out, 1, 2, 1)
	assert.InDelta(t, 0.5, out[0], 1e-6)
	assert.InDelta(t, 1.0, out[1], 1e-6)
}

func TestCastSaturation(t *testing.T) {
	out := make([]float32, 4)
	CastI32([]float32{2.9, -2.9, 3e9, float32(math.NaN())}, out)
	assert.Equal(t, float32(2), out[0])
	assert.Equal(t, float32(-2), out[1])
	assert.Equal(t, float32(2147483647), out[2])
	assert.Equal(t, float32(0), out[3], "NaN casts to zero")
}

func TestCastBool(t *testing.T) {
	out := make([]float32, 3)
	CastBool([]float32{0, -0.5, 7}, out)
	assert.Equal(t, []float32{0, 1, 1}, out)
}

func TestWhere(t *testing.T) {
	out := make([]float32, 3)
	Where([]float32{1, 0, 1}, []float32{10, 20, 30}, []float32{-1, -2, -3}, out)
	assert.Equal(t, []float32{10, -2, 30}, out)
}

func TestIsPredicates(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	out := make([]float32, 3)

	IsNaN([]float32{nan, inf, 1}, out)
	assert.Equal(t, []float32{1, 0, 0}, out)

	IsInf([]float32{nan, inf, 1}, out)
	assert.Equal(t, []float32{0, 1, 0}, out)

	IsFinite([]float32{nan, inf, 1}, out)
	assert.Equal(t, []float32{0, 0, 1}, out)
}

func TestReduceFull(t *testing.T) {
	x := []float32{1, 2, 3, 4}
	assert.InDelta(t, 10, ReduceSum(x), 1e-6)
	assert.InDelta(t, 2.5, ReduceMean(x), 1e-6)
	assert.Equal(t, float32(1), ReduceMin(x))
	assert.Equal(t, float32(4), ReduceMax(x))
	assert.InDelta(t, 24, ReduceProd(x), 1e-6)
	assert.InDelta(t, math.Sqrt(30), float64(ReduceL2(x)), 1e-6)
}

func TestArgMinMaxFirstIndex(t *testing.T) {
	x := []float32{3, 1, 1, 5, 5}
	assert.Equal(t, 1, ArgMin(x), "ties resolve to the first index")
	assert.Equal(t, 3, ArgMax(x))
}

func TestReduceSumAxis(t *testing.T) {
	// 2x3 matrix reduced along axis 1.
	x := []float32{1, 2, 3, 10, 20, 30}
	out := make([]float32, 2)
	ReduceSumAxis(x, out, 2, 3, 1)
	assert.InDelta(t, 6, out[0], 1e-6)
	assert.InDelta(t, 60, out[1], 1e-6)

	// Same matrix along axis 0.
	out = make([]float32, 3)
	ReduceSumAxis(x, out, 1, 2, 3)
	require.InDelta(t, 11, out[0], 1e-6)
	require.InDelta(t, 22, out[1], 1e-6)
	require.InDelta(t, 33, out[2], 1e-6)
}
