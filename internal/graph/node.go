// Package graph defines the operator-graph data model the compiler consumes:
// the fixed operator-kind enumeration, nodes with per-kind attribute payloads,
// and the DAG with its designated inputs, outputs, and constants.
//
// Graphs arrive fully shaped from the external synthesis engine; this package
// only validates the topological-order invariant, it never reorders nodes.
package graph

import "github.com/qiuchuy/torchsyn/internal/tensor"

// Attr is one named attribute of a node. Exactly one payload field is
// meaningful per attribute; the accessors below fall back to defaults when an
// attribute is absent, matching how the synthesis engine omits defaults.
type Attr struct {
	Name   string
	I      int64
	F      float32
	Ints   []int64
	Floats []float32
}

// Node is one operator application. Inputs and Outputs index the graph's
// tensor table. Nodes are immutable once taken from the input graph.
type Node struct {
	Name    string // diagnostic name, may be empty
	Kind    Kind
	Inputs  []int
	Outputs []int
	Attrs   []Attr
}

// AttrInt returns an integer attribute or the default value.
func (n *Node) AttrInt(name string, def int64) int64 {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return n.Attrs[i].I
		}
	}
	return def
}

// AttrFloat returns a float attribute or the default value.
func (n *Node) AttrFloat(name string, def float32) float32 {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return n.Attrs[i].F
		}
	}
	return def
}

// AttrInts returns an integer-array attribute, or nil when absent.
func (n *Node) AttrInts(name string) []int64 {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return n.Attrs[i].Ints
		}
	}
	return nil
}

// AttrFloats returns a float-array attribute, or nil when absent.
func (n *Node) AttrFloats(name string) []float32 {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return n.Attrs[i].Floats
		}
	}
	return nil
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(name string) bool {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return true
		}
	}
	return false
}

// AttrShape returns an integer-array attribute converted to a Shape, or nil.
func (n *Node) AttrShape(name string) tensor.Shape {
	ints := n.AttrInts(name)
	if ints == nil {
		return nil
	}
	s := make(tensor.Shape, len(ints))
	for i, v := range ints {
		s[i] = int(v)
	}
	return s
}
