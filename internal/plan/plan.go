// Package plan assigns every tensor to a buffer slot with a single
// deterministic linear scan over the topological order. A buffer freed by the
// last consumer of one tensor may be reused by a later tensor that fits;
// graph inputs, outputs, and constants are pinned and never reused.
package plan

import (
	"fmt"
	"sort"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// Buffer is one allocation slot. Size is in elements. FirstDef/LastUse are
// topological node positions and only advisory once planning is done; the
// invariant checker recomputes liveness from the graph.
type Buffer struct {
	ID     tensor.BufferID
	Size   int
	Pinned bool
}

// InvariantViolation signals a planner bug: a buffer would be shared by two
// tensors with overlapping liveness. It is fatal and never worked around.
type InvariantViolation struct {
	Buffer  tensor.BufferID
	TensorA int
	TensorB int
	Overlap [2]int
	Detail  string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("planner invariant violation: buffer %d shared by tensors %d and %d over [%d, %d]: %s",
		e.Buffer, e.TensorA, e.TensorB, e.Overlap[0], e.Overlap[1], e.Detail)
}

// Plan is the result of planning one graph: the buffer table, plus the
// binding of every tensor ID to its buffer.
type Plan struct {
	Buffers  []*Buffer
	byTensor map[int]tensor.BufferID
	free     freeList
}

// BufferFor returns the buffer bound to the tensor.
func (p *Plan) BufferFor(tensorID int) *Buffer {
	id, ok := p.byTensor[tensorID]
	if !ok {
		return nil
	}
	return p.Buffers[id]
}

// NumBuffers returns how many distinct slots the plan uses.
func (p *Plan) NumBuffers() int { return len(p.Buffers) }

// Build runs the linear scan. shapes maps every tensor ID to its inferred
// shape (graph tensors already carry shapes for inputs/constants; node
// outputs use the inference results). The tensors' Buffer fields are rebound
// as a side effect; the plan owns the buffers until emission.
func Build(g *graph.Graph, shapes map[int]tensor.Shape) (*Plan, error) {
	p := &Plan{byTensor: make(map[int]tensor.BufferID)}

	lastUse := make(map[int]int, len(g.Tensors))
	for i := range g.Nodes {
		for _, in := range g.Nodes[i].Inputs {
			lastUse[in] = i
		}
	}

	alloc := func(tensorID int, pos int, pinned bool) error {
		s, ok := shapes[tensorID]
		if !ok {
			return fmt.Errorf("planner: tensor %d has no inferred shape", tensorID)
		}
		need := s.NumElements()

		var buf *Buffer
		if !pinned {
			buf = p.takeFree(need)
		}
		if buf == nil {
			buf = &Buffer{ID: tensor.BufferID(len(p.Buffers)), Size: need, Pinned: pinned}
			p.Buffers = append(p.Buffers, buf)
		}
		p.byTensor[tensorID] = buf.ID
		if t := g.Tensor(tensorID); t != nil {
			t.Buffer = buf.ID
		}
		return nil
	}

	// Inputs and constants live for the whole program.
	for _, id := range g.Inputs {
		if err := alloc(id, 0, true); err != nil {
			return nil, err
		}
	}
	for _, id := range sortedConstIDs(g) {
		if err := alloc(id, 0, true); err != nil {
			return nil, err
		}
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		// Outputs first: an input freed at this node must not alias the
		// output, since kernels read and write through distinct pointers.
		for _, out := range n.Outputs {
			pinned := g.IsOutput(out)
			if err := alloc(out, i, pinned); err != nil {
				return nil, err
			}
		}
		// A node may read the same tensor through several inputs; release
		// its buffer once, not once per occurrence.
		released := make(map[int]bool, len(n.Inputs))
		for _, in := range n.Inputs {
			if lastUse[in] != i || released[in] {
				continue
			}
			released[in] = true
			id, ok := p.byTensor[in]
			if !ok {
				continue
			}
			buf := p.Buffers[id]
			if !buf.Pinned {
				p.release(buf)
			}
		}
	}

	if err := p.Check(g, shapes); err != nil {
		return nil, err
	}
	return p, nil
}

// free buffers, kept sorted by size so reuse picks the smallest adequate one
// (ties broken by lower ID for determinism).
type freeList struct {
	bufs []*Buffer
}

func (p *Plan) takeFree(need int) *Buffer {
	best := -1
	for i, b := range p.free.bufs {
		if b.Size < need {
			continue
		}
		if best == -1 || b.Size < p.free.bufs[best].Size ||
			(b.Size == p.free.bufs[best].Size && b.ID < p.free.bufs[best].ID) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	b := p.free.bufs[best]
	p.free.bufs = append(p.free.bufs[:best], p.free.bufs[best+1:]...)
	return b
}

func (p *Plan) release(b *Buffer) {
	p.free.bufs = append(p.free.bufs, b)
	sort.Slice(p.free.bufs, func(i, j int) bool {
		if p.free.bufs[i].Size != p.free.bufs[j].Size {
			return p.free.bufs[i].Size < p.free.bufs[j].Size
		}
		return p.free.bufs[i].ID < p.free.bufs[j].ID
	})
}

// Check recomputes every tensor's liveness interval from the graph and
// verifies that no two tensors sharing a buffer overlap, and that every
// buffer is at least as large as each tensor bound to it.
func (p *Plan) Check(g *graph.Graph, shapes map[int]tensor.Shape) error {
	type interval struct {
		tensorID int
		def, use int
	}
	byBuffer := make(map[tensor.BufferID][]interval)

	lastNode := len(g.Nodes) - 1
	for tensorID, bufID := range p.byTensor {
		def := g.Producer(tensorID)
		if def == -1 {
			def = 0 // graph input or constant: live from the start
		}
		use := g.LastUse(tensorID)
		if g.IsOutput(tensorID) || g.IsInput(tensorID) || g.IsConstant(tensorID) {
			use = lastNode // pinned: live to the end
		}
		if use < def {
			use = def
		}

		buf := p.Buffers[bufID]
		if s, ok := shapes[tensorID]; ok && buf.Size < s.NumElements() {
			return &InvariantViolation{
				Buffer: bufID, TensorA: tensorID, TensorB: tensorID,
				Detail: fmt.Sprintf("buffer size %d < element count %d", buf.Size, s.NumElements()),
			}
		}
		byBuffer[bufID] = append(byBuffer[bufID], interval{tensorID, def, use})
	}

	for bufID, ivs := range byBuffer {
		sort.Slice(ivs, func(i, j int) bool {
			if ivs[i].def != ivs[j].def {
				return ivs[i].def < ivs[j].def
			}
			return ivs[i].tensorID < ivs[j].tensorID
		})
		for i := 1; i < len(ivs); i++ {
			prev, cur := ivs[i-1], ivs[i]
			if cur.def <= prev.use {
				return &InvariantViolation{
					Buffer:  bufID,
					TensorA: prev.tensorID,
					TensorB: cur.tensorID,
					Overlap: [2]int{cur.def, minInt(prev.use, cur.use)},
					Detail:  "liveness intervals overlap",
				}
			}
		}
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func sortedConstIDs(g *graph.Graph) []int {
	ids := make([]int, 0, len(g.Constants))
	for id := range g.Constants {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
