package torchsyn

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/graphgen"
	"github.com/qiuchuy/torchsyn/internal/kernels"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

func addModel() *graph.Graph {
	g := graph.New("add_model")
	shape := tensor.Shape{5}
	a := g.AddTensor("a", shape)
	b := g.AddTensor("b", shape)
	g.Constants[a] = []float32{1, 2, 3, 4, 5}
	g.Constants[b] = []float32{5, 4, 3, 2, 1}
	out := g.AddTensor("out", shape)
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{
		{Name: "out", Kind: graph.KindAdd, Inputs: []int{a, b}, Outputs: []int{out}},
	}
	return g
}

func TestCompileAddModel(t *testing.T) {
	g := addModel()
	prog, err := Compile(g, Options{})
	require.NoError(t, err)
	assert.False(t, prog.Partial)
	assert.NoError(t, prog.Warnings)
	assert.Contains(t, prog.Source, "op_add")
	assert.Contains(t, prog.Source, "int main(void)")

	// The reference kernel agrees with what the program will print: every
	// output element is 6.
	out, err := kernels.Run(&g.Nodes[0],
		[][]float32{g.Constants[0], g.Constants[1]},
		[]tensor.Shape{{5}, {5}}, tensor.Shape{5})
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 6, 6, 6, 6}, out)
}

func TestCompileAnnotatesTensors(t *testing.T) {
	g := addModel()
	_, err := Compile(g, Options{})
	require.NoError(t, err)

	for _, tn := range g.Tensors {
		assert.GreaterOrEqual(t, int(tn.Buffer), 0, "tensor %q has no buffer", tn.Name)
		assert.NoError(t, tn.Shape.Validate())
	}
}

func TestCompileDeterministic(t *testing.T) {
	opts := Options{InlineRate: 0.5, Variants: true}
	p1, err := Compile(addModel(), opts)
	require.NoError(t, err)
	p2, err := Compile(addModel(), opts)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(p1.Source, p2.Source))
}

func TestCompileBroadcastNormalization(t *testing.T) {
	g := graph.New("bcast")
	a := g.AddTensor("a", tensor.Shape{2, 3})
	b := g.AddTensor("b", tensor.Shape{3})
	g.Inputs = []int{a, b}
	out := g.AddTensor("out", nil)
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{
		{Name: "out", Kind: graph.KindAdd, Inputs: []int{a, b}, Outputs: []int{out}},
	}

	prog, err := Compile(g, Options{})
	require.NoError(t, err)

	// The narrower operand is routed through an inserted expansion node.
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, graph.KindExpand, g.Nodes[0].Kind)
	assert.Equal(t, graph.KindAdd, g.Nodes[1].Kind)
	assert.Equal(t, tensor.Shape{2, 3}, g.Tensor(out).Shape)
	assert.Contains(t, prog.Source, "op_expand")
}

func TestCompileShapeError(t *testing.T) {
	g := graph.New("bad")
	a := g.AddTensor("a", tensor.Shape{2, 3})
	b := g.AddTensor("b", tensor.Shape{2, 4})
	g.Inputs = []int{a, b}
	out := g.AddTensor("out", nil)
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{
		{Name: "out", Kind: graph.KindAdd, Inputs: []int{a, b}, Outputs: []int{out}},
	}

	_, err := Compile(g, Options{})
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "shape inference", cerr.Stage)
}

func TestCompileMaxNodes(t *testing.T) {
	g := addModel()
	_, err := Compile(g, Options{MaxNodes: 1})
	require.NoError(t, err)

	g = addModel()
	g.Nodes = append(g.Nodes, graph.Node{
		Name: "relu", Kind: graph.KindRelu,
		Inputs:  []int{g.Outputs[0]},
		Outputs: []int{g.AddTensor("r", tensor.Shape{5})},
	})
	g.Outputs = []int{g.Nodes[1].Outputs[0]}

	_, err = Compile(g, Options{MaxNodes: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestCompilePartialProgram(t *testing.T) {
	g := addModel()
	erf := g.AddTensor("erf", tensor.Shape{5})
	g.Nodes = append(g.Nodes, graph.Node{
		Name: "erf", Kind: graph.KindErfinv,
		Inputs:  []int{g.Outputs[0]},
		Outputs: []int{erf},
	})
	g.Outputs = []int{erf}

	prog, err := Compile(g, Options{})
	require.NoError(t, err, "partial programs still compile")
	assert.True(t, prog.Partial)
	require.Error(t, prog.Warnings)
	assert.Len(t, multierr.Errors(prog.Warnings), 1)
	assert.Contains(t, prog.Warnings.Error(), "Erfinv")
}

func TestCompileInvalidGraph(t *testing.T) {
	g := graph.New("invalid")
	out := g.AddTensor("out", tensor.Shape{1})
	g.Outputs = []int{out}
	g.Nodes = []graph.Node{
		{Name: "out", Kind: graph.KindRelu, Inputs: []int{99}, Outputs: []int{out}},
	}

	_, err := Compile(g, Options{})
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "validate", cerr.Stage)
}

func TestCompileReshapeRoundTrip(t *testing.T) {
	g := graph.New("reshape")
	in := g.AddTensor("in", tensor.Shape{2, 3})
	g.Inputs = []int{in}
	flat := g.AddTensor("flat", nil)
	back := g.AddTensor("back", nil)
	g.Outputs = []int{back}
	g.Nodes = []graph.Node{
		{Name: "flat", Kind: graph.KindReshape, Inputs: []int{in}, Outputs: []int{flat},
			Attrs: []graph.Attr{{Name: "shape", Ints: []int64{6}}}},
		{Name: "back", Kind: graph.KindReshape, Inputs: []int{flat}, Outputs: []int{back},
			Attrs: []graph.Attr{{Name: "shape", Ints: []int64{2, 3}}}},
	}

	prog, err := Compile(g, Options{})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, g.Tensor(back).Shape)
	// One definition plus two calls.
	assert.Equal(t, 3, strings.Count(prog.Source, "op_reshape("))
}

// Arbitrary generated graphs must compile cleanly; planning runs its own
// interval-overlap check on every build, so any aliasing bug surfaces here.
func TestCompileGeneratedGraphs(t *testing.T) {
	for seed := int64(0); seed < 40; seed++ {
		cfg := graphgen.DefaultConfig()
		cfg.Seed = seed
		g := graphgen.Generate(fmt.Sprintf("gen_%d", seed), cfg)
		prog, err := Compile(g, Options{})
		require.NoError(t, err, "seed %d", seed)
		assert.Contains(t, prog.Source, "int main(void)", "seed %d", seed)
		assert.False(t, prog.Partial, "seed %d", seed)
	}
}
