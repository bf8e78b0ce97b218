// Package tensor provides the shape arithmetic and tensor/buffer descriptors
// shared by the shape-inference engine, the buffer planner, and the emitter.
//
// All tensors in the compiler hold float32 elements. There is no element
// storage here: a Tensor is a logical value with a shape, bound to a Buffer
// slot by the planner. The elements only ever exist inside the generated C
// program (or, for constants, as literal data carried by the graph).
package tensor

// BufferID identifies one planner-owned allocation slot.
type BufferID int

// Tensor is a logical tensor value in a graph: a shape plus the buffer slot
// the planner assigned it. Shape is fixed at creation; Buffer is rebound
// exactly once, during planning.
type Tensor struct {
	ID     int    // index into the graph's tensor table
	Name   string // C-identifier-safe name, e.g. "v3"
	Shape  Shape
	Buffer BufferID // -1 until the planner binds it
}

// NumElements returns the element count of the tensor.
func (t *Tensor) NumElements() int { return t.Shape.NumElements() }
