// Package graphgen builds seeded random operator graphs. It exists to feed
// batch program generation: each graph is a layered DAG drawn from the
// kernel-backed operator set, with optional unmapped operators mixed in to
// exercise the fallback path. The same seed always yields the same graph.
package graphgen

import (
	"fmt"
	"math/rand"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// Config bounds the generated graph.
type Config struct {
	Seed     int64
	MinNodes int
	MaxNodes int
	MaxDim   int // largest extent of any generated dimension

	// AllowUnmapped mixes in operators that have no runtime kernel, so the
	// emitted programs exercise the fallback policy.
	AllowUnmapped bool
}

// DefaultConfig generates small graphs suitable for compile-and-run tests.
func DefaultConfig() Config {
	return Config{MinNodes: 4, MaxNodes: 12, MaxDim: 6}
}

// Operator sets the generator draws from. Only kinds whose operands the
// generator can always satisfy are included; anything with intricate shape
// preconditions (convolution, pooling, interpolation) is left to
// hand-constructed graphs.
var (
	unaryKinds = []graph.Kind{
		graph.KindRelu, graph.KindSigmoid, graph.KindTanh, graph.KindAbs,
		graph.KindNeg, graph.KindSin, graph.KindCos, graph.KindFloor,
		graph.KindCeil, graph.KindRound, graph.KindSquare, graph.KindSoftplus,
		graph.KindSoftsign, graph.KindErf, graph.KindGelu, graph.KindSilu,
		graph.KindHardSwish, graph.KindSign,
	}
	binaryKinds = []graph.Kind{
		graph.KindAdd, graph.KindSub, graph.KindMul,
		graph.KindMinimum, graph.KindMaximum,
		graph.KindGreater, graph.KindLess,
	}
	unmappedKinds = []graph.Kind{graph.KindErfinv, graph.KindDigamma}
)

type builder struct {
	g     *graph.Graph
	rng   *rand.Rand
	cfg   Config
	avail []int // tensors usable as operands
	used  map[int]bool
}

// Generate builds a random valid graph. The result passes graph.Validate
// and every operand pair is either equal-shaped or broadcastable.
func Generate(name string, cfg Config) *graph.Graph {
	if cfg.MaxNodes < cfg.MinNodes {
		cfg.MaxNodes = cfg.MinNodes
	}
	if cfg.MaxDim < 1 {
		cfg.MaxDim = 4
	}
	b := &builder{
		g:    graph.New(name),
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		cfg:  cfg,
		used: map[int]bool{},
	}

	for i := 0; i < 1+b.rng.Intn(2); i++ {
		id := b.g.AddTensor(fmt.Sprintf("in%d", i), b.randomShape())
		b.g.Inputs = append(b.g.Inputs, id)
		b.avail = append(b.avail, id)
	}

	n := cfg.MinNodes
	if cfg.MaxNodes > cfg.MinNodes {
		n += b.rng.Intn(cfg.MaxNodes - cfg.MinNodes + 1)
	}
	for i := 0; i < n; i++ {
		b.addNode(i)
	}

	// Every tensor no node consumed becomes a graph output.
	for _, id := range b.avail {
		if !b.used[id] {
			b.g.Outputs = append(b.g.Outputs, id)
		}
	}
	if len(b.g.Outputs) == 0 {
		b.g.Outputs = append(b.g.Outputs, b.avail[len(b.avail)-1])
	}
	return b.g
}

func (b *builder) randomShape() tensor.Shape {
	rank := 1 + b.rng.Intn(3)
	s := make(tensor.Shape, rank)
	for i := range s {
		s[i] = 1 + b.rng.Intn(b.cfg.MaxDim)
	}
	return s
}

func (b *builder) pick() int {
	return b.avail[b.rng.Intn(len(b.avail))]
}

// pickMate returns an operand broadcast-compatible with id: an existing
// equal-shaped tensor when one exists, otherwise a fresh scalar constant.
func (b *builder) pickMate(id int) int {
	want := b.g.Tensor(id).Shape
	var candidates []int
	for _, c := range b.avail {
		if b.g.Tensor(c).Shape.Equal(want) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) > 0 && b.rng.Intn(4) != 0 {
		return candidates[b.rng.Intn(len(candidates))]
	}
	cid := b.g.AddTensor(fmt.Sprintf("c%d", len(b.g.Tensors)), tensor.Shape{})
	b.g.Constants[cid] = []float32{b.rng.Float32()*4 - 2}
	b.avail = append(b.avail, cid)
	return cid
}

func (b *builder) emit(name string, kind graph.Kind, inputs []int, outShape tensor.Shape, attrs ...graph.Attr) {
	out := b.g.AddTensor(name, outShape)
	b.g.Nodes = append(b.g.Nodes, graph.Node{
		Name:    name,
		Kind:    kind,
		Inputs:  inputs,
		Outputs: []int{out},
		Attrs:   attrs,
	})
	for _, id := range inputs {
		b.used[id] = true
	}
	b.avail = append(b.avail, out)
}

func (b *builder) addNode(i int) {
	name := fmt.Sprintf("t%d", i)
	roll := b.rng.Intn(100)
	in := b.pick()
	shape := b.g.Tensor(in).Shape

	switch {
	case b.cfg.AllowUnmapped && roll < 8:
		kind := unmappedKinds[b.rng.Intn(len(unmappedKinds))]
		b.emit(name, kind, []int{in}, shape)
	case roll < 40:
		kind := unaryKinds[b.rng.Intn(len(unaryKinds))]
		b.emit(name, kind, []int{in}, shape)
	case roll < 70:
		kind := binaryKinds[b.rng.Intn(len(binaryKinds))]
		mate := b.pickMate(in)
		out, _, err := tensor.BroadcastShapes(shape, b.g.Tensor(mate).Shape)
		if err != nil {
			out = shape
			mate = in
		}
		b.emit(name, kind, []int{in, mate}, out)
	case roll < 78:
		b.emit(name, graph.KindLeakyRelu, []int{in}, shape,
			graph.Attr{Name: "negative_slope", F: 0.1})
	case roll < 86 && len(shape) > 0:
		axis := b.rng.Intn(len(shape))
		reduced := make(tensor.Shape, 0, len(shape)-1)
		reduced = append(reduced, shape[:axis]...)
		reduced = append(reduced, shape[axis+1:]...)
		b.emit(name, graph.KindReduceSum, []int{in}, reduced,
			graph.Attr{Name: "axis", I: int64(axis)})
	case roll < 93 && shape.NumElements() > 0:
		flat := tensor.Shape{shape.NumElements()}
		b.emit(name, graph.KindReshape, []int{in}, flat,
			graph.Attr{Name: "shape", Ints: []int64{int64(flat[0])}})
	default:
		b.emit(name, graph.KindSoftmax, []int{in}, shape)
	}
}
