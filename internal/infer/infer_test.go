package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

func node(k graph.Kind, attrs ...graph.Attr) *graph.Node {
	return &graph.Node{Name: "n", Kind: k, Attrs: attrs}
}

func TestInferBinaryBroadcast(t *testing.T) {
	out, err := Infer(node(graph.KindAdd), []tensor.Shape{{2, 3}, {2, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, out)

	out, err = Infer(node(graph.KindMul), []tensor.Shape{{4, 1}, {1, 5}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 5}, out)

	_, err = Infer(node(graph.KindAdd), []tensor.Shape{{2, 3}, {2, 4}})
	require.Error(t, err)
	var serr *ShapeError
	assert.ErrorAs(t, err, &serr)
}

func TestInferUnary(t *testing.T) {
	out, err := Infer(node(graph.KindRelu), []tensor.Shape{{3, 7}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 7}, out)

	_, err = Infer(node(graph.KindRelu), []tensor.Shape{{3}, {3}})
	assert.Error(t, err, "wrong arity")
}

func TestInferReduction(t *testing.T) {
	// No axis attribute: full reduction to a scalar.
	out, err := Infer(node(graph.KindReduceSum), []tensor.Shape{{2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{}, out)

	// Axis 1 drops that dimension.
	out, err = Infer(node(graph.KindReduceSum, graph.Attr{Name: "axis", I: 1}),
		[]tensor.Shape{{2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 4}, out)

	// Negative axis counts from the back.
	out, err = Infer(node(graph.KindReduceMax, graph.Attr{Name: "axis", I: -1}),
		[]tensor.Shape{{2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, out)

	// ArgMax only reduces fully.
	_, err = Infer(node(graph.KindArgMax, graph.Attr{Name: "axis", I: 0}),
		[]tensor.Shape{{2, 3}})
	assert.Error(t, err)

	out, err = Infer(node(graph.KindArgMax), []tensor.Shape{{2, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{}, out)
}

func TestInferGlu(t *testing.T) {
	out, err := Infer(node(graph.KindGlu, graph.Attr{Name: "dim", I: -1}),
		[]tensor.Shape{{2, 6}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, out)

	// Odd dimension cannot halve.
	_, err = Infer(node(graph.KindGlu, graph.Attr{Name: "dim", I: -1}),
		[]tensor.Shape{{2, 5}})
	assert.Error(t, err)
}

func TestInferMatMul(t *testing.T) {
	out, err := Infer(node(graph.KindMatMul), []tensor.Shape{{2, 3}, {3, 5}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 5}, out)

	_, err = Infer(node(graph.KindMatMul), []tensor.Shape{{2, 3}, {4, 5}})
	assert.Error(t, err, "inner dimensions must agree")

	_, err = Infer(node(graph.KindMatMul), []tensor.Shape{{2, 3, 4}, {4, 5}})
	assert.Error(t, err, "only 2D operands")
}

func TestInferTranspose(t *testing.T) {
	// Default permutation reverses the axes.
	out, err := Infer(node(graph.KindTranspose), []tensor.Shape{{2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 3, 2}, out)

	out, err = Infer(node(graph.KindTranspose, graph.Attr{Name: "perm", Ints: []int64{0, 2, 1}}),
		[]tensor.Shape{{2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 4, 3}, out)

	_, err = Infer(node(graph.KindTranspose, graph.Attr{Name: "perm", Ints: []int64{0, 0, 1}}),
		[]tensor.Shape{{2, 3, 4}})
	assert.Error(t, err, "permutation must be a bijection")
}

func TestInferConv2D(t *testing.T) {
	// The 4x4 input with a 3x3 kernel, stride 1, no padding gives 2x2.
	out, err := Infer(node(graph.KindConv2D),
		[]tensor.Shape{{1, 1, 4, 4}, {1, 1, 3, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out)

	// Strides and pads change the spatial formula.
	out, err = Infer(node(graph.KindConv2D,
		graph.Attr{Name: "strides", Ints: []int64{2, 2}},
		graph.Attr{Name: "pads", Ints: []int64{1, 1}}),
		[]tensor.Shape{{1, 3, 8, 8}, {16, 3, 3, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 16, 4, 4}, out)

	// Channel mismatch between input and weight.
	_, err = Infer(node(graph.KindConv2D),
		[]tensor.Shape{{1, 3, 8, 8}, {16, 4, 3, 3}})
	assert.Error(t, err)

	// Kernel larger than padded input.
	_, err = Infer(node(graph.KindConv2D),
		[]tensor.Shape{{1, 1, 2, 2}, {1, 1, 3, 3}})
	assert.Error(t, err)
}

func TestInferConv1D(t *testing.T) {
	out, err := Infer(node(graph.KindConv1D,
		graph.Attr{Name: "stride", I: 2}),
		[]tensor.Shape{{1, 2, 9}, {4, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 4, 4}, out)
}

func TestInferPool2D(t *testing.T) {
	out, err := Infer(node(graph.KindMaxPool2D,
		graph.Attr{Name: "kernel_shape", Ints: []int64{2, 2}}),
		[]tensor.Shape{{1, 3, 4, 4}})
	require.NoError(t, err)
	// Stride defaults to the kernel size.
	assert.Equal(t, tensor.Shape{1, 3, 2, 2}, out)

	_, err = Infer(node(graph.KindAvgPool2D), []tensor.Shape{{1, 3, 4, 4}})
	assert.Error(t, err, "kernel_shape is required")
}

func TestInferBatchNorm(t *testing.T) {
	param := tensor.Shape{3}
	out, err := Infer(node(graph.KindBatchNorm2D),
		[]tensor.Shape{{2, 3, 5, 5}, param, param, param, param})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 5, 5}, out)

	_, err = Infer(node(graph.KindBatchNorm2D),
		[]tensor.Shape{{2, 3, 5, 5}, {4}, param, param, param})
	assert.Error(t, err, "parameter length must match channels")
}

func TestInferReshape(t *testing.T) {
	out, err := Infer(node(graph.KindReshape,
		graph.Attr{Name: "shape", Ints: []int64{6}}),
		[]tensor.Shape{{2, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{6}, out)

	_, err = Infer(node(graph.KindReshape,
		graph.Attr{Name: "shape", Ints: []int64{5}}),
		[]tensor.Shape{{2, 3}})
	assert.Error(t, err, "element count must be preserved")
}

func TestInferSqueezeUnsqueeze(t *testing.T) {
	out, err := Infer(node(graph.KindSqueeze), []tensor.Shape{{1, 3, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, out)

	out, err = Infer(node(graph.KindUnsqueeze,
		graph.Attr{Name: "axes", Ints: []int64{0}}),
		[]tensor.Shape{{3, 2}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 2}, out)
}

func TestInferExpand(t *testing.T) {
	out, err := Infer(node(graph.KindExpand,
		graph.Attr{Name: "shape", Ints: []int64{4, 3}}),
		[]tensor.Shape{{1, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 3}, out)

	// Target must be exactly the broadcast result.
	_, err = Infer(node(graph.KindExpand,
		graph.Attr{Name: "shape", Ints: []int64{4, 2}}),
		[]tensor.Shape{{1, 3}})
	assert.Error(t, err)
}

func TestInferSliceAndConcat(t *testing.T) {
	out, err := Infer(node(graph.KindSlice,
		graph.Attr{Name: "starts", Ints: []int64{1, 0}},
		graph.Attr{Name: "sizes", Ints: []int64{2, 2}}),
		[]tensor.Shape{{3, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, out)

	// Slice past the end.
	_, err = Infer(node(graph.KindSlice,
		graph.Attr{Name: "starts", Ints: []int64{2, 0}},
		graph.Attr{Name: "sizes", Ints: []int64{2, 2}}),
		[]tensor.Shape{{3, 3}})
	assert.Error(t, err)

	out, err = Infer(node(graph.KindConcat, graph.Attr{Name: "axis", I: 1}),
		[]tensor.Shape{{2, 1}, {2, 2}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, out)

	_, err = Infer(node(graph.KindConcat, graph.Attr{Name: "axis", I: 0}),
		[]tensor.Shape{{2, 1}, {2, 2}})
	assert.Error(t, err, "non-axis dimensions must agree")
}

func TestInferPad(t *testing.T) {
	out, err := Infer(node(graph.KindConstantPad,
		graph.Attr{Name: "before", I: 1}, graph.Attr{Name: "after", I: 2}),
		[]tensor.Shape{{2, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 6}, out)

	// Reflection padding needs pad < dim.
	_, err = Infer(node(graph.KindReflectPad,
		graph.Attr{Name: "before", I: 3}, graph.Attr{Name: "after", I: 0}),
		[]tensor.Shape{{2, 3}})
	assert.Error(t, err)
}

func TestInferInterp(t *testing.T) {
	out, err := Infer(node(graph.KindBilinearInterp,
		graph.Attr{Name: "size", Ints: []int64{8, 8}}),
		[]tensor.Shape{{1, 3, 4, 4}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 8, 8}, out)

	out, err = Infer(node(graph.KindLinearInterp,
		graph.Attr{Name: "size", Ints: []int64{10}}),
		[]tensor.Shape{{2, 5}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 10}, out)
}

func TestInferFallbackOnlyKinds(t *testing.T) {
	// Unmapped operators still have a shape rule so fallback programs can
	// be planned.
	out, err := Infer(node(graph.KindErfinv), []tensor.Shape{{3, 3}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 3}, out)

	out, err = Infer(node(graph.KindDigamma), []tensor.Shape{{7}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{7}, out)
}
