package cgen

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/plan"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// addGraph builds a + b -> relu -> out over two 5-element constants and
// returns the graph with shapes and plan ready for emission.
func addGraph(t *testing.T) (*graph.Graph, map[int]tensor.Shape, *plan.Plan) {
	t.Helper()
	g := graph.New("add_model")
	shape := tensor.Shape{5}
	shapes := map[int]tensor.Shape{}

	a := g.AddTensor("a", shape)
	b := g.AddTensor("b", shape)
	g.Constants[a] = []float32{1, 2, 3, 4, 5}
	g.Constants[b] = []float32{5, 4, 3, 2, 1}
	sum := g.AddTensor("sum", shape)
	out := g.AddTensor("out", shape)
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{
		{Name: "sum", Kind: graph.KindAdd, Inputs: []int{a, b}, Outputs: []int{sum}},
		{Name: "out", Kind: graph.KindRelu, Inputs: []int{sum}, Outputs: []int{out}},
	}
	for id := range g.Tensors {
		shapes[id] = shape
	}

	require.NoError(t, g.Validate())
	p, err := plan.Build(g, shapes)
	require.NoError(t, err)
	return g, shapes, p
}

func TestEmitAddProgram(t *testing.T) {
	g, shapes, p := addGraph(t)
	res, err := Emit(g, shapes, p, Options{})
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.Empty(t, res.Warnings)

	src := res.Source
	// Self-contained translation unit.
	assert.Contains(t, src, "#include <math.h>")
	assert.Contains(t, src, "#include <time.h>")
	assert.Contains(t, src, "static void op_add(const float* a, const float* b, float* c, int size)")
	assert.Contains(t, src, "static void op_relu(const float* x, float* y, int size)")
	assert.Contains(t, src, "int main(void)")
	assert.Contains(t, src, "static void model_forward(void)")

	// Constant data and its materialization.
	assert.Contains(t, src, "static const float a_data[5]")
	assert.Contains(t, src, "1.0f, 2.0f, 3.0f, 4.0f, 5.0f,")
	assert.Contains(t, src, "load_constants();")

	// Calls reference planned buffers and exact element counts.
	assert.Contains(t, src, ", 5);")
	assert.Contains(t, src, "clock()")
}

func TestEmitDeterministic(t *testing.T) {
	opts := Options{InlineRate: 0.5, Variants: true}

	g1, s1, p1 := addGraph(t)
	r1, err := Emit(g1, s1, p1, opts)
	require.NoError(t, err)

	g2, s2, p2 := addGraph(t)
	r2, err := Emit(g2, s2, p2, opts)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(r1.Source, r2.Source))
}

func TestEmitInlineAll(t *testing.T) {
	g, shapes, p := addGraph(t)
	res, err := Emit(g, shapes, p, Options{InlineRate: 1})
	require.NoError(t, err)

	assert.Contains(t, res.Source, "/* INLINED */")
	// Every call is inlined, so no kernel definitions are emitted.
	assert.NotContains(t, res.Source, "static void op_add(")
	assert.NotContains(t, res.Source, "static void op_relu(")
}

func TestEmitFallbackCopy(t *testing.T) {
	g := graph.New("fallback")
	shape := tensor.Shape{4}
	in := g.AddTensor("in", shape)
	g.Inputs = []int{in}
	out := g.AddTensor("out", shape)
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{
		{Name: "out", Kind: graph.KindErfinv, Inputs: []int{in}, Outputs: []int{out}},
	}
	shapes := map[int]tensor.Shape{in: shape, out: shape}
	p, err := plan.Build(g, shapes)
	require.NoError(t, err)

	res, err := Emit(g, shapes, p, Options{})
	require.NoError(t, err)
	assert.True(t, res.Partial)
	require.Len(t, res.Warnings, 1)
	assert.True(t, res.Warnings[0].Copied)
	assert.Contains(t, res.Source, "op_identity")
	assert.Contains(t, res.Source, "(fallback copy)")
}

func TestEmitFallbackStub(t *testing.T) {
	// Element counts differ, so an identity copy is not compatible and the
	// node becomes an aborting stub.
	g := graph.New("stub")
	in := g.AddTensor("in", tensor.Shape{4})
	g.Inputs = []int{in}
	out := g.AddTensor("out", tensor.Shape{2})
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{
		{Name: "out", Kind: graph.KindDigamma, Inputs: []int{in}, Outputs: []int{out}},
	}
	shapes := map[int]tensor.Shape{in: {4}, out: {2}}
	p, err := plan.Build(g, shapes)
	require.NoError(t, err)

	res, err := Emit(g, shapes, p, Options{})
	require.NoError(t, err)
	assert.True(t, res.Partial)
	require.Len(t, res.Warnings, 1)
	assert.False(t, res.Warnings[0].Copied)
	assert.Contains(t, res.Source, "unsupported operator digamma")
	assert.Contains(t, res.Source, "exit(1);")
}

func TestEmitConcatLowering(t *testing.T) {
	g := graph.New("concat")
	a := g.AddTensor("a", tensor.Shape{2, 1})
	b := g.AddTensor("b", tensor.Shape{2, 2})
	g.Inputs = []int{a, b}
	out := g.AddTensor("out", tensor.Shape{2, 3})
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{{
		Name: "out", Kind: graph.KindConcat,
		Inputs: []int{a, b}, Outputs: []int{out},
		Attrs: []graph.Attr{{Name: "axis", I: 1}},
	}}
	shapes := map[int]tensor.Shape{a: {2, 1}, b: {2, 2}, out: {2, 3}}
	p, err := plan.Build(g, shapes)
	require.NoError(t, err)

	res, err := Emit(g, shapes, p, Options{})
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.Empty(t, res.Warnings)
	// One kernel definition plus one strided copy per input, into the same
	// output at offsets 0 and 1.
	assert.Equal(t, 3, strings.Count(res.Source, "op_concat_part("))
	assert.NotContains(t, res.Source, "unsupported operator")
}

func TestEmitBitwiseHelpers(t *testing.T) {
	g := graph.New("bits")
	shape := tensor.Shape{3}
	a := g.AddTensor("a", shape)
	b := g.AddTensor("b", shape)
	g.Inputs = []int{a, b}
	out := g.AddTensor("out", shape)
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{{
		Name: "out", Kind: graph.KindBitwiseAnd,
		Inputs: []int{a, b}, Outputs: []int{out},
	}}
	shapes := map[int]tensor.Shape{a: shape, b: shape, out: shape}
	p, err := plan.Build(g, shapes)
	require.NoError(t, err)

	res, err := Emit(g, shapes, p, Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Source, "static int cast_i32(float v)")
	assert.Contains(t, res.Source, "cast_i32(a[i]) & cast_i32(b[i])")
}

func TestEmitStructuralArgs(t *testing.T) {
	g := graph.New("structural")
	in := g.AddTensor("in", tensor.Shape{2, 3})
	g.Inputs = []int{in}
	out := g.AddTensor("out", tensor.Shape{3, 2})
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{{
		Name: "out", Kind: graph.KindTranspose,
		Inputs: []int{in}, Outputs: []int{out},
		Attrs: []graph.Attr{{Name: "perm", Ints: []int64{1, 0}}},
	}}
	shapes := map[int]tensor.Shape{in: {2, 3}, out: {3, 2}}
	p, err := plan.Build(g, shapes)
	require.NoError(t, err)

	res, err := Emit(g, shapes, p, Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Source, "(const int[]){2, 3}")
	assert.Contains(t, res.Source, "(const int[]){1, 0}")
}

func TestEmitRejectsExcessiveRank(t *testing.T) {
	// The strided kernels index through fixed int[8] arrays, so rank 9
	// must be refused rather than emitted as out-of-bounds C.
	g := graph.New("deep")
	shape := tensor.Shape{1, 1, 1, 1, 1, 1, 1, 1, 2}
	in := g.AddTensor("in", shape)
	g.Inputs = []int{in}
	out := g.AddTensor("out", shape)
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{
		{Name: "out", Kind: graph.KindRelu, Inputs: []int{in}, Outputs: []int{out}},
	}
	shapes := map[int]tensor.Shape{in: shape, out: shape}
	p, err := plan.Build(g, shapes)
	require.NoError(t, err)

	_, err = Emit(g, shapes, p, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank 9")
}

func TestEmitMissingShape(t *testing.T) {
	g, shapes, p := addGraph(t)
	delete(shapes, g.Outputs[0])
	_, err := Emit(g, shapes, p, Options{})
	assert.Error(t, err)
}

func TestFloatLit(t *testing.T) {
	assert.Equal(t, "1.0f", floatLit(1))
	assert.Equal(t, "-0.5f", floatLit(-0.5))
	assert.Equal(t, "0.1f", floatLit(0.1))
	assert.Equal(t, "1e+10f", floatLit(1e10))
}
