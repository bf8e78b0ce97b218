package graph

import (
	"github.com/pkg/errors"

	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// Graph is a DAG of operator nodes in topological order, plus the tensor
// table they index into. Inputs, Outputs, and Constants designate the
// externally visible tensors; every constant carries its literal elements.
type Graph struct {
	Name    string
	Nodes   []Node
	Tensors []*tensor.Tensor
	Inputs  []int
	Outputs []int

	// Constants maps tensor ID to literal element data (weights, biases,
	// attribute-materialized values). len(data) equals the tensor's element
	// count; Validate enforces it.
	Constants map[int][]float32
}

// New returns an empty graph.
func New(name string) *Graph {
	return &Graph{Name: name, Constants: make(map[int][]float32)}
}

// AddTensor appends a tensor with the given shape and returns its ID. The
// name is derived from the ID so generated identifiers stay deterministic.
func (g *Graph) AddTensor(name string, shape tensor.Shape) int {
	id := len(g.Tensors)
	g.Tensors = append(g.Tensors, &tensor.Tensor{
		ID:     id,
		Name:   name,
		Shape:  shape.Clone(),
		Buffer: -1,
	})
	return id
}

// Tensor returns the tensor with the given ID, or nil.
func (g *Graph) Tensor(id int) *tensor.Tensor {
	if id < 0 || id >= len(g.Tensors) {
		return nil
	}
	return g.Tensors[id]
}

// IsConstant reports whether the tensor ID designates a constant.
func (g *Graph) IsConstant(id int) bool {
	_, ok := g.Constants[id]
	return ok
}

// IsInput reports whether the tensor ID designates a graph input.
func (g *Graph) IsInput(id int) bool {
	for _, in := range g.Inputs {
		if in == id {
			return true
		}
	}
	return false
}

// IsOutput reports whether the tensor ID designates a graph output.
func (g *Graph) IsOutput(id int) bool {
	for _, out := range g.Outputs {
		if out == id {
			return true
		}
	}
	return false
}

// Validate checks the topological-order invariant: every node input is a
// graph input, a constant, or the output of an earlier node; no tensor is
// defined twice; constants carry exactly their element count.
func (g *Graph) Validate() error {
	available := make(map[int]bool, len(g.Tensors))
	for _, id := range g.Inputs {
		if g.Tensor(id) == nil {
			return errors.Errorf("graph %q: input tensor %d does not exist", g.Name, id)
		}
		available[id] = true
	}
	for id, data := range g.Constants {
		t := g.Tensor(id)
		if t == nil {
			return errors.Errorf("graph %q: constant tensor %d does not exist", g.Name, id)
		}
		if len(data) != t.NumElements() {
			return errors.Errorf("graph %q: constant %q has %d elements, shape %v needs %d",
				g.Name, t.Name, len(data), t.Shape, t.NumElements())
		}
		available[id] = true
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Kind <= KindInvalid || n.Kind >= kindCount {
			return errors.Errorf("graph %q: node %d has invalid kind %d", g.Name, i, n.Kind)
		}
		for _, in := range n.Inputs {
			if g.Tensor(in) == nil {
				return errors.Errorf("graph %q: node %d (%s) reads missing tensor %d", g.Name, i, n.Kind, in)
			}
			if !available[in] {
				return errors.Errorf("graph %q: node %d (%s) reads tensor %d before it is defined",
					g.Name, i, n.Kind, in)
			}
		}
		if len(n.Outputs) == 0 {
			return errors.Errorf("graph %q: node %d (%s) declares no output", g.Name, i, n.Kind)
		}
		for _, out := range n.Outputs {
			if g.Tensor(out) == nil {
				return errors.Errorf("graph %q: node %d (%s) writes missing tensor %d", g.Name, i, n.Kind, out)
			}
			if available[out] {
				return errors.Errorf("graph %q: node %d (%s) redefines tensor %d", g.Name, i, n.Kind, out)
			}
			available[out] = true
		}
	}

	for _, id := range g.Outputs {
		if !available[id] {
			return errors.Errorf("graph %q: output tensor %d is never defined", g.Name, id)
		}
	}
	return nil
}

// Producer returns the index of the node defining tensor id, or -1 when the
// tensor is a graph input or constant.
func (g *Graph) Producer(id int) int {
	for i := range g.Nodes {
		for _, out := range g.Nodes[i].Outputs {
			if out == id {
				return i
			}
		}
	}
	return -1
}

// LastUse returns the index of the last node consuming tensor id, or -1 when
// no node reads it.
func (g *Graph) LastUse(id int) int {
	last := -1
	for i := range g.Nodes {
		for _, in := range g.Nodes[i].Inputs {
			if in == id {
				last = i
			}
		}
	}
	return last
}
