// Package torchsyn compiles abstract operator graphs into standalone C
// programs backed by a fixed runtime library of tensor kernels.
//
// Compile is the single-graph entry point: it validates the graph, infers
// every tensor shape, plans buffer reuse, and emits the C source. Graphs
// whose binary operators mix shapes are normalized first by inserting
// explicit broadcast nodes, so emitted kernels only ever see equal-sized
// operands. GenerateBatch produces many independent programs concurrently.
package torchsyn

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/qiuchuy/torchsyn/internal/cgen"
	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/infer"
	"github.com/qiuchuy/torchsyn/internal/plan"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// Options control one compilation.
type Options struct {
	// InlineRate is the fraction of kernel calls emitted as inlined blocks
	// instead of calls, in [0, 1].
	InlineRate float64

	// Variants allows equivalent alternative loop forms in inlined code.
	Variants bool

	// MaxNodes rejects graphs with more nodes. 0 means no limit.
	MaxNodes int
}

// Program is a compiled graph: complete C99 source plus compilation facts.
type Program struct {
	Name    string
	Source  string
	Nodes   int
	Buffers int

	// Partial is set when at least one operator had no kernel mapping and
	// was lowered by the fallback policy; Warnings then carries one entry
	// per affected node.
	Partial  bool
	Warnings error
}

// CompileError wraps any failure of the compilation pipeline with the graph
// name and the stage that rejected it.
type CompileError struct {
	Graph string
	Stage string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s: %v", e.Graph, e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

func compileErr(g *graph.Graph, stage string, err error) error {
	return &CompileError{Graph: g.Name, Stage: stage, Err: err}
}

// Compile lowers g to a C program. The graph is normalized in place:
// broadcasting binary operators gain explicit expansion nodes, and every
// tensor is annotated with its inferred shape and planned buffer.
func Compile(g *graph.Graph, opts Options) (*Program, error) {
	if err := g.Validate(); err != nil {
		return nil, compileErr(g, "validate", err)
	}
	if opts.MaxNodes > 0 && len(g.Nodes) > opts.MaxNodes {
		return nil, compileErr(g, "validate",
			errors.Errorf("graph has %d nodes, limit is %d", len(g.Nodes), opts.MaxNodes))
	}

	shapes, err := inferShapes(g)
	if err != nil {
		return nil, compileErr(g, "shape inference", err)
	}

	pl, err := plan.Build(g, shapes)
	if err != nil {
		return nil, compileErr(g, "buffer planning", err)
	}
	for id, t := range g.Tensors {
		if b := pl.BufferFor(id); b != nil {
			t.Buffer = b.ID
		}
	}

	res, err := cgen.Emit(g, shapes, pl, cgen.Options{
		InlineRate: opts.InlineRate,
		Variants:   opts.Variants,
	})
	if err != nil {
		return nil, compileErr(g, "code generation", err)
	}

	var warns error
	for _, w := range res.Warnings {
		warns = multierr.Append(warns, w)
	}
	return &Program{
		Name:     g.Name,
		Source:   res.Source,
		Nodes:    len(g.Nodes),
		Buffers:  pl.NumBuffers(),
		Partial:  res.Partial,
		Warnings: warns,
	}, nil
}

// inferShapes walks the graph in topological order, inferring every node
// output shape. Binary elementwise nodes with mismatched operand shapes are
// rewritten on the fly: each narrower operand is routed through an inserted
// expansion node, so downstream stages see equal-sized operands only.
func inferShapes(g *graph.Graph) (map[int]tensor.Shape, error) {
	shapes := make(map[int]tensor.Shape, len(g.Tensors))
	for _, id := range g.Inputs {
		shapes[id] = g.Tensor(id).Shape
	}
	for id := range g.Constants {
		shapes[id] = g.Tensor(id).Shape
	}

	rewritten := make([]graph.Node, 0, len(g.Nodes))
	for i := range g.Nodes {
		n := g.Nodes[i]
		if n.Kind.IsBinaryElementwise() && len(n.Inputs) == 2 {
			expands, err := normalizeBroadcast(g, &n, shapes)
			if err != nil {
				return nil, err
			}
			rewritten = append(rewritten, expands...)
		}

		inShapes := make([]tensor.Shape, len(n.Inputs))
		for j, id := range n.Inputs {
			s, ok := shapes[id]
			if !ok {
				return nil, errors.Errorf("node %s: input tensor %d has no shape", n.Name, id)
			}
			inShapes[j] = s
		}
		outShape, err := infer.Infer(&n, inShapes)
		if err != nil {
			return nil, err
		}
		out := n.Outputs[0]
		shapes[out] = outShape
		g.Tensor(out).Shape = outShape.Clone()
		rewritten = append(rewritten, n)
	}
	g.Nodes = rewritten
	return shapes, nil
}

// normalizeBroadcast rewires n's mismatched operands through explicit
// expansion nodes and returns those nodes, already shape-annotated.
func normalizeBroadcast(g *graph.Graph, n *graph.Node, shapes map[int]tensor.Shape) ([]graph.Node, error) {
	a, b := shapes[n.Inputs[0]], shapes[n.Inputs[1]]
	target, need, err := tensor.BroadcastShapes(a, b)
	if err != nil {
		return nil, &infer.ShapeError{Kind: n.Kind, Node: n.Name, Reason: err.Error()}
	}
	if !need {
		return nil, nil
	}

	var expands []graph.Node
	for j, id := range n.Inputs {
		if shapes[id].Equal(target) {
			continue
		}
		nid := g.AddTensor(fmt.Sprintf("%s_bcast%d", g.Tensor(id).Name, j), target)
		shapes[nid] = target
		expands = append(expands, graph.Node{
			Name:    fmt.Sprintf("%s_bcast%d", n.Name, j),
			Kind:    graph.KindExpand,
			Inputs:  []int{id},
			Outputs: []int{nid},
			Attrs:   []graph.Attr{{Name: "shape", Ints: toInt64(target)}},
		})
		n.Inputs[j] = nid
	}
	return expands, nil
}

func toInt64(s tensor.Shape) []int64 {
	out := make([]int64, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}
