package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// chain builds in -> Relu -> Relu -> ... -> out with n unary nodes, all
// tensors the same shape, and returns the graph with a full shape map.
func chain(n int) (*graph.Graph, map[int]tensor.Shape) {
	g := graph.New("chain")
	shape := tensor.Shape{8}
	shapes := map[int]tensor.Shape{}

	prev := g.AddTensor("in", shape)
	g.Inputs = []int{prev}
	shapes[prev] = shape
	for i := 0; i < n; i++ {
		out := g.AddTensor("", shape)
		shapes[out] = shape
		g.Nodes = append(g.Nodes, graph.Node{
			Kind: graph.KindRelu, Inputs: []int{prev}, Outputs: []int{out},
		})
		prev = out
	}
	g.Outputs = []int{prev}
	return g, shapes
}

func TestBuildChainReuse(t *testing.T) {
	g, shapes := chain(6)
	p, err := Build(g, shapes)
	require.NoError(t, err)

	// Input and output are pinned; the four intermediates ping-pong
	// between two scratch buffers.
	assert.Equal(t, 4, p.NumBuffers())
}

func TestBuildPinnedNeverReused(t *testing.T) {
	g, shapes := chain(4)
	p, err := Build(g, shapes)
	require.NoError(t, err)

	inBuf := p.BufferFor(g.Inputs[0])
	outBuf := p.BufferFor(g.Outputs[0])
	require.NotNil(t, inBuf)
	require.NotNil(t, outBuf)
	assert.True(t, inBuf.Pinned)
	assert.True(t, outBuf.Pinned)
	assert.NotEqual(t, inBuf.ID, outBuf.ID)

	// No intermediate shares a pinned slot.
	for id := range shapes {
		if g.IsInput(id) || g.IsOutput(id) {
			continue
		}
		b := p.BufferFor(id)
		require.NotNil(t, b)
		assert.False(t, b.Pinned, "tensor %d landed in pinned buffer %d", id, b.ID)
	}
}

func TestBuildRepeatedInputReleasedOnce(t *testing.T) {
	// Add(a, a): a dies at the node reading it twice. Its buffer must hit
	// the free list once, or two later tensors end up sharing it.
	g := graph.New("repeat")
	shape := tensor.Shape{4}
	shapes := map[int]tensor.Shape{}

	in := g.AddTensor("in", shape)
	g.Inputs = []int{in}
	shapes[in] = shape
	a := g.AddTensor("a", shape)
	shapes[a] = shape
	doubled := g.AddTensor("doubled", shape)
	shapes[doubled] = shape
	m := g.AddTensor("m", shape)
	shapes[m] = shape
	n := g.AddTensor("n", shape)
	shapes[n] = shape
	out := g.AddTensor("out", shape)
	g.Outputs = []int{out}
	shapes[out] = shape
	g.Nodes = []graph.Node{
		{Kind: graph.KindRelu, Inputs: []int{in}, Outputs: []int{a}},
		{Kind: graph.KindAdd, Inputs: []int{a, a}, Outputs: []int{doubled}},
		{Kind: graph.KindNeg, Inputs: []int{doubled}, Outputs: []int{m}},
		{Kind: graph.KindNeg, Inputs: []int{m}, Outputs: []int{n}},
		{Kind: graph.KindAdd, Inputs: []int{m, n}, Outputs: []int{out}},
	}

	p, err := Build(g, shapes)
	require.NoError(t, err)
	assert.NotEqual(t, p.BufferFor(m).ID, p.BufferFor(n).ID)
}

func TestBuildNoAliasAtDefiningNode(t *testing.T) {
	// a -> Neg -> b -> Neg -> c: b dies at the node defining c, but c must
	// not take b's buffer because the kernel reads b while writing c.
	g, shapes := chain(2)
	p, err := Build(g, shapes)
	require.NoError(t, err)

	b := g.Nodes[0].Outputs[0]
	c := g.Nodes[1].Outputs[0]
	assert.NotEqual(t, p.BufferFor(b).ID, p.BufferFor(c).ID)
}

func TestBuildSmallestAdequateBuffer(t *testing.T) {
	// Two dead tensors of sizes 4 and 16 sit on the free list; a new
	// tensor of size 4 must take the size-4 slot.
	g := graph.New("sizes")
	shapes := map[int]tensor.Shape{}

	small := g.AddTensor("small", tensor.Shape{4})
	big := g.AddTensor("big", tensor.Shape{16})
	g.Inputs = []int{small, big}
	shapes[small] = tensor.Shape{4}
	shapes[big] = tensor.Shape{16}

	add := func(kind graph.Kind, in []int, shape tensor.Shape) int {
		out := g.AddTensor("", shape)
		shapes[out] = shape
		g.Nodes = append(g.Nodes, graph.Node{Kind: kind, Inputs: in, Outputs: []int{out}})
		return out
	}

	deadSmall := add(graph.KindNeg, []int{small}, tensor.Shape{4})
	deadBig := add(graph.KindNeg, []int{big}, tensor.Shape{16})
	// Both intermediates die here, putting a size-4 and a size-16 slot on
	// the free list.
	sink := add(graph.KindAdd, []int{deadSmall, deadBig}, tensor.Shape{4})
	mid := add(graph.KindRelu, []int{sink}, tensor.Shape{4})
	keep := add(graph.KindRelu, []int{mid}, tensor.Shape{4})
	g.Outputs = []int{keep}

	p, err := Build(g, shapes)
	require.NoError(t, err)

	assert.Equal(t, p.BufferFor(deadSmall).ID, p.BufferFor(mid).ID,
		"the size-4 slot should be picked over the size-16 one")
	assert.Equal(t, 4, p.BufferFor(mid).Size)
}

func TestBuildConstantsPinned(t *testing.T) {
	g := graph.New("consts")
	shapes := map[int]tensor.Shape{}

	c := g.AddTensor("w", tensor.Shape{3})
	g.Constants[c] = []float32{1, 2, 3}
	shapes[c] = tensor.Shape{3}

	out := g.AddTensor("out", tensor.Shape{3})
	shapes[out] = tensor.Shape{3}
	g.Nodes = []graph.Node{{Kind: graph.KindNeg, Inputs: []int{c}, Outputs: []int{out}}}
	g.Outputs = []int{out}

	p, err := Build(g, shapes)
	require.NoError(t, err)
	assert.True(t, p.BufferFor(c).Pinned)
}

func TestCheckDetectsOverlap(t *testing.T) {
	g, shapes := chain(3)
	p, err := Build(g, shapes)
	require.NoError(t, err)

	// Corrupt the plan: force two simultaneously live tensors into one
	// buffer. The first intermediate is live across node 1 while the
	// second is defined there.
	a := g.Nodes[0].Outputs[0]
	b := g.Nodes[1].Outputs[0]
	p.byTensor[b] = p.byTensor[a]

	err = p.Check(g, shapes)
	require.Error(t, err)
	var viol *InvariantViolation
	require.ErrorAs(t, err, &viol)
	assert.Contains(t, viol.Error(), "planner invariant violation")
}

func TestCheckDetectsUndersizedBuffer(t *testing.T) {
	g, shapes := chain(1)
	p, err := Build(g, shapes)
	require.NoError(t, err)

	p.Buffers[p.byTensor[g.Inputs[0]]].Size = 2

	err = p.Check(g, shapes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer size")
}

func TestBuildMissingShape(t *testing.T) {
	g, shapes := chain(1)
	delete(shapes, g.Outputs[0])
	_, err := Build(g, shapes)
	assert.Error(t, err)
}
