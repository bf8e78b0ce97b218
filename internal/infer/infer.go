// Package infer computes the output shape of every graph node from its kind,
// input shapes, and attributes. The rules are deterministic and
// kind-exhaustive; a violated rule yields a ShapeError, which is fatal for
// the whole graph because downstream shapes would be derived from invalid
// data.
package infer

import (
	"fmt"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// ShapeError reports an arity, attribute, or shape-compatibility violation.
type ShapeError struct {
	Kind   graph.Kind
	Node   string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("shape error: %s (node %q): %s", e.Kind, e.Node, e.Reason)
	}
	return fmt.Sprintf("shape error: %s: %s", e.Kind, e.Reason)
}

func shapeErrf(n *graph.Node, format string, args ...interface{}) error {
	return &ShapeError{Kind: n.Kind, Node: n.Name, Reason: fmt.Sprintf(format, args...)}
}

// Infer returns the output shape for the node. It never mutates its inputs.
func Infer(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	k := n.Kind
	switch {
	case k.IsBinaryElementwise():
		if err := wantArity(n, in, 2); err != nil {
			return nil, err
		}
		out, _, err := tensor.BroadcastShapes(in[0], in[1])
		if err != nil {
			return nil, shapeErrf(n, "%v", err)
		}
		return out, nil

	case k.IsUnaryElementwise():
		if err := wantArity(n, in, 1); err != nil {
			return nil, err
		}
		return in[0].Clone(), nil

	case k.IsReduction():
		return inferReduction(n, in)
	}

	switch k {
	case graph.KindPrelu, graph.KindWhere:
		return inferSameShapeVariadic(n, in)
	case graph.KindSoftmax, graph.KindSoftmin, graph.KindLogSoftmax:
		if err := wantArity(n, in, 1); err != nil {
			return nil, err
		}
		return in[0].Clone(), nil
	case graph.KindGlu:
		return inferGlu(n, in)
	case graph.KindMatMul:
		return inferMatMul(n, in)
	case graph.KindTranspose:
		return inferTranspose(n, in)
	case graph.KindTriu, graph.KindTril:
		if err := wantArity(n, in, 1); err != nil {
			return nil, err
		}
		if len(in[0]) != 2 {
			return nil, shapeErrf(n, "input must be 2D, got %dD", len(in[0]))
		}
		return in[0].Clone(), nil
	case graph.KindConv1D:
		return inferConv1D(n, in)
	case graph.KindConv2D:
		return inferConv2D(n, in)
	case graph.KindMaxPool2D, graph.KindAvgPool2D:
		return inferPool2D(n, in)
	case graph.KindBatchNorm2D:
		return inferBatchNorm(n, in)
	case graph.KindConstant:
		return inferConstant(n, in)
	case graph.KindReshape:
		return inferReshape(n, in)
	case graph.KindSqueeze:
		return inferSqueeze(n, in)
	case graph.KindUnsqueeze:
		return inferUnsqueeze(n, in)
	case graph.KindExpand:
		return inferExpand(n, in)
	case graph.KindSlice:
		return inferSlice(n, in)
	case graph.KindConcat:
		return inferConcat(n, in)
	case graph.KindConstantPad, graph.KindReflectPad, graph.KindReplicatePad:
		return inferPad(n, in)
	case graph.KindNearestInterp, graph.KindLinearInterp:
		return inferInterp(n, in, 1)
	case graph.KindBilinearInterp, graph.KindBicubicInterp:
		return inferInterp(n, in, 2)
	case graph.KindTrilinearInterp:
		return inferInterp(n, in, 3)
	case graph.KindErfinv, graph.KindDigamma:
		// Shape rule exists even though the runtime library has no mapping;
		// the emitter's fallback policy needs the shape.
		if err := wantArity(n, in, 1); err != nil {
			return nil, err
		}
		return in[0].Clone(), nil
	}

	return nil, shapeErrf(n, "no shape rule registered")
}

func wantArity(n *graph.Node, in []tensor.Shape, arity int) error {
	if len(in) != arity {
		return shapeErrf(n, "wants %d inputs, got %d", arity, len(in))
	}
	return nil
}

func inferSameShapeVariadic(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	arity := 2
	if n.Kind == graph.KindWhere {
		arity = 3
	}
	if err := wantArity(n, in, arity); err != nil {
		return nil, err
	}
	for i := 1; i < len(in); i++ {
		if !in[0].Equal(in[i]) {
			return nil, shapeErrf(n, "input %d shape %v != input 0 shape %v", i, in[i], in[0])
		}
	}
	return in[0].Clone(), nil
}

func inferReduction(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	if !n.HasAttr("axis") {
		return tensor.Shape{}, nil // full fold → scalar
	}
	if n.Kind == graph.KindArgMin || n.Kind == graph.KindArgMax {
		return nil, shapeErrf(n, "axis form not supported; %s folds the whole buffer", n.Kind)
	}
	axis, ok := tensor.NormalizeAxis(int(n.AttrInt("axis", 0)), len(in[0]))
	if !ok {
		return nil, shapeErrf(n, "axis %d out of range for %dD input", n.AttrInt("axis", 0), len(in[0]))
	}
	out := make(tensor.Shape, 0, len(in[0])-1)
	for d, v := range in[0] {
		if d != axis {
			out = append(out, v)
		}
	}
	return out, nil
}

func inferGlu(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	dim, ok := tensor.NormalizeAxis(int(n.AttrInt("dim", -1)), len(in[0]))
	if !ok {
		return nil, shapeErrf(n, "dim %d out of range for %dD input", n.AttrInt("dim", -1), len(in[0]))
	}
	if in[0][dim]%2 != 0 {
		return nil, shapeErrf(n, "split dimension %d has odd size %d", dim, in[0][dim])
	}
	out := in[0].Clone()
	out[dim] /= 2
	return out, nil
}

func inferMatMul(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 2); err != nil {
		return nil, err
	}
	a, b := in[0], in[1]
	if len(a) != 2 || len(b) != 2 {
		return nil, shapeErrf(n, "wants 2D operands, got %dD and %dD", len(a), len(b))
	}
	if a[1] != b[0] {
		return nil, shapeErrf(n, "inner dimensions mismatch: %v @ %v", a, b)
	}
	return tensor.Shape{a[0], b[1]}, nil
}

func inferTranspose(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	perm := n.AttrInts("perm")
	if perm == nil {
		// Default: reverse all dimensions.
		out := make(tensor.Shape, len(in[0]))
		for i := range out {
			out[i] = in[0][len(in[0])-1-i]
		}
		return out, nil
	}
	if len(perm) != len(in[0]) {
		return nil, shapeErrf(n, "perm has %d entries for %dD input", len(perm), len(in[0]))
	}
	seen := make(map[int64]bool, len(perm))
	out := make(tensor.Shape, len(perm))
	for i, p := range perm {
		if p < 0 || int(p) >= len(in[0]) || seen[p] {
			return nil, shapeErrf(n, "perm %v is not a permutation of 0..%d", perm, len(in[0])-1)
		}
		seen[p] = true
		out[i] = in[0][p]
	}
	return out, nil
}

// convOut applies floor((in + 2*pad - kernel) / stride) + 1.
func convOut(in, kernel, stride, pad int) int {
	return (in+2*pad-kernel)/stride + 1
}

func inferConv1D(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if len(in) != 2 && len(in) != 3 {
		return nil, shapeErrf(n, "wants 2 or 3 inputs (x, weight[, bias]), got %d", len(in))
	}
	x, w := in[0], in[1]
	if len(x) != 3 || len(w) != 3 {
		return nil, shapeErrf(n, "wants x [N,C,L] and weight [O,C,K], got %v and %v", x, w)
	}
	if x[1] != w[1] {
		return nil, shapeErrf(n, "input channels %d != weight channels %d", x[1], w[1])
	}
	if len(in) == 3 && (len(in[2]) != 1 || in[2][0] != w[0]) {
		return nil, shapeErrf(n, "bias shape %v, want [%d]", in[2], w[0])
	}
	stride := int(n.AttrInt("stride", 1))
	pad := int(n.AttrInt("padding", 0))
	if stride < 1 {
		return nil, shapeErrf(n, "stride must be >= 1, got %d", stride)
	}
	outL := convOut(x[2], w[2], stride, pad)
	if outL < 1 {
		return nil, shapeErrf(n, "kernel %d with stride %d, padding %d does not fit input length %d", w[2], stride, pad, x[2])
	}
	return tensor.Shape{x[0], w[0], outL}, nil
}

func inferConv2D(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if len(in) != 2 && len(in) != 3 {
		return nil, shapeErrf(n, "wants 2 or 3 inputs (x, weight[, bias]), got %d", len(in))
	}
	x, w := in[0], in[1]
	if len(x) != 4 || len(w) != 4 {
		return nil, shapeErrf(n, "wants x [N,C,H,W] and weight [O,C,Kh,Kw], got %v and %v", x, w)
	}
	if x[1] != w[1] {
		return nil, shapeErrf(n, "input channels %d != weight channels %d", x[1], w[1])
	}
	if len(in) == 3 && (len(in[2]) != 1 || in[2][0] != w[0]) {
		return nil, shapeErrf(n, "bias shape %v, want [%d]", in[2], w[0])
	}
	sh, sw := intPair(n.AttrInts("strides"), 1, 1)
	ph, pw := intPair(n.AttrInts("pads"), 0, 0)
	if sh < 1 || sw < 1 {
		return nil, shapeErrf(n, "strides must be >= 1, got [%d %d]", sh, sw)
	}
	outH := convOut(x[2], w[2], sh, ph)
	outW := convOut(x[3], w[3], sw, pw)
	if outH < 1 || outW < 1 {
		return nil, shapeErrf(n, "kernel %dx%d does not fit padded input %dx%d", w[2], w[3], x[2]+2*ph, x[3]+2*pw)
	}
	return tensor.Shape{x[0], w[0], outH, outW}, nil
}

func inferPool2D(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	x := in[0]
	if len(x) != 4 {
		return nil, shapeErrf(n, "wants x [N,C,H,W], got %v", x)
	}
	kernel := n.AttrInts("kernel_shape")
	if len(kernel) != 2 {
		return nil, shapeErrf(n, "kernel_shape wants 2 entries, got %v", kernel)
	}
	kh, kw := int(kernel[0]), int(kernel[1])
	sh, sw := intPair(n.AttrInts("strides"), kh, kw) // default stride = kernel
	ph, pw := intPair(n.AttrInts("pads"), 0, 0)
	if sh < 1 || sw < 1 {
		return nil, shapeErrf(n, "strides must be >= 1, got [%d %d]", sh, sw)
	}
	outH := convOut(x[2], kh, sh, ph)
	outW := convOut(x[3], kw, sw, pw)
	if outH < 1 || outW < 1 {
		return nil, shapeErrf(n, "window %dx%d does not fit padded input %dx%d", kh, kw, x[2]+2*ph, x[3]+2*pw)
	}
	return tensor.Shape{x[0], x[1], outH, outW}, nil
}

func inferBatchNorm(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 5); err != nil {
		return nil, err
	}
	x := in[0]
	if len(x) != 4 {
		return nil, shapeErrf(n, "wants x [N,C,H,W], got %v", x)
	}
	for i := 1; i < 5; i++ {
		if len(in[i]) != 1 || in[i][0] != x[1] {
			return nil, shapeErrf(n, "parameter %d shape %v, want [%d]", i, in[i], x[1])
		}
	}
	return x.Clone(), nil
}

func inferConstant(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 0); err != nil {
		return nil, err
	}
	shape := n.AttrShape("shape")
	if shape == nil {
		return nil, shapeErrf(n, "missing shape attribute")
	}
	if err := shape.Validate(); err != nil {
		return nil, shapeErrf(n, "%v", err)
	}
	return shape, nil
}

func inferReshape(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	shape := n.AttrShape("shape")
	if shape == nil {
		return nil, shapeErrf(n, "missing shape attribute")
	}
	if err := shape.Validate(); err != nil {
		return nil, shapeErrf(n, "%v", err)
	}
	if shape.NumElements() != in[0].NumElements() {
		return nil, shapeErrf(n, "cannot reshape %v (%d elements) to %v (%d elements)",
			in[0], in[0].NumElements(), shape, shape.NumElements())
	}
	return shape, nil
}

func inferSqueeze(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	axes := n.AttrInts("axes")
	if axes == nil {
		// Drop every size-1 dimension.
		out := make(tensor.Shape, 0, len(in[0]))
		for _, d := range in[0] {
			if d != 1 {
				out = append(out, d)
			}
		}
		return out, nil
	}
	drop := make(map[int]bool, len(axes))
	for _, a := range axes {
		ax, ok := tensor.NormalizeAxis(int(a), len(in[0]))
		if !ok {
			return nil, shapeErrf(n, "axis %d out of range for %dD input", a, len(in[0]))
		}
		if in[0][ax] != 1 {
			return nil, shapeErrf(n, "cannot squeeze dimension %d of size %d", ax, in[0][ax])
		}
		drop[ax] = true
	}
	out := make(tensor.Shape, 0, len(in[0]))
	for d, v := range in[0] {
		if !drop[d] {
			out = append(out, v)
		}
	}
	return out, nil
}

func inferUnsqueeze(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	axes := n.AttrInts("axes")
	if len(axes) == 0 {
		return nil, shapeErrf(n, "missing axes attribute")
	}
	outRank := len(in[0]) + len(axes)
	insert := make(map[int]bool, len(axes))
	for _, a := range axes {
		ax, ok := tensor.NormalizeAxis(int(a), outRank)
		if !ok || insert[ax] {
			return nil, shapeErrf(n, "invalid axes %v for output rank %d", axes, outRank)
		}
		insert[ax] = true
	}
	out := make(tensor.Shape, 0, outRank)
	src := 0
	for d := 0; d < outRank; d++ {
		if insert[d] {
			out = append(out, 1)
		} else {
			out = append(out, in[0][src])
			src++
		}
	}
	return out, nil
}

func inferExpand(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	target := n.AttrShape("shape")
	if target == nil {
		return nil, shapeErrf(n, "missing shape attribute")
	}
	out, _, err := tensor.BroadcastShapes(in[0], target)
	if err != nil {
		return nil, shapeErrf(n, "%v", err)
	}
	if !out.Equal(target) {
		return nil, shapeErrf(n, "cannot expand %v to %v", in[0], target)
	}
	return target.Clone(), nil
}

func inferSlice(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	starts := n.AttrInts("starts")
	sizes := n.AttrInts("sizes")
	if len(starts) != len(in[0]) || len(sizes) != len(in[0]) {
		return nil, shapeErrf(n, "starts/sizes want %d entries, got %d/%d", len(in[0]), len(starts), len(sizes))
	}
	out := make(tensor.Shape, len(in[0]))
	for d := range in[0] {
		if sizes[d] < 1 {
			return nil, shapeErrf(n, "size %d at dimension %d must be >= 1", sizes[d], d)
		}
		if starts[d] < 0 || int(starts[d]+sizes[d]) > in[0][d] {
			return nil, shapeErrf(n, "slice [%d:%d) out of range for dimension %d of size %d",
				starts[d], starts[d]+sizes[d], d, in[0][d])
		}
		out[d] = int(sizes[d])
	}
	return out, nil
}

func inferConcat(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if len(in) < 1 {
		return nil, shapeErrf(n, "wants at least 1 input")
	}
	axis, ok := tensor.NormalizeAxis(int(n.AttrInt("axis", 0)), len(in[0]))
	if !ok {
		return nil, shapeErrf(n, "axis %d out of range for %dD input", n.AttrInt("axis", 0), len(in[0]))
	}
	out := in[0].Clone()
	for i := 1; i < len(in); i++ {
		if len(in[i]) != len(in[0]) {
			return nil, shapeErrf(n, "input %d rank %d != input 0 rank %d", i, len(in[i]), len(in[0]))
		}
		for d := range in[i] {
			if d == axis {
				out[d] += in[i][d]
			} else if in[i][d] != in[0][d] {
				return nil, shapeErrf(n, "input %d dimension %d is %d, want %d", i, d, in[i][d], in[0][d])
			}
		}
	}
	return out, nil
}

func inferPad(n *graph.Node, in []tensor.Shape) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	if len(in[0]) == 0 {
		return nil, shapeErrf(n, "cannot pad a scalar")
	}
	before := int(n.AttrInt("before", 0))
	after := int(n.AttrInt("after", 0))
	if before < 0 || after < 0 {
		return nil, shapeErrf(n, "negative padding [%d %d]", before, after)
	}
	last := in[0][len(in[0])-1]
	if n.Kind == graph.KindReflectPad && (before >= last || after >= last) {
		return nil, shapeErrf(n, "reflect padding [%d %d] must be smaller than the padded dimension %d", before, after, last)
	}
	out := in[0].Clone()
	out[len(out)-1] = before + last + after
	return out, nil
}

func inferInterp(n *graph.Node, in []tensor.Shape, spatial int) (tensor.Shape, error) {
	if err := wantArity(n, in, 1); err != nil {
		return nil, err
	}
	size := n.AttrInts("size")
	if len(size) != spatial {
		return nil, shapeErrf(n, "size wants %d entries, got %v", spatial, size)
	}
	if len(in[0]) < spatial {
		return nil, shapeErrf(n, "input rank %d < %d spatial dimensions", len(in[0]), spatial)
	}
	out := in[0].Clone()
	for i := 0; i < spatial; i++ {
		if size[i] < 1 {
			return nil, shapeErrf(n, "output size %v must be >= 1", size)
		}
		out[len(out)-spatial+i] = int(size[i])
	}
	return out, nil
}

func intPair(v []int64, defA, defB int) (int, int) {
	if len(v) == 2 {
		return int(v[0]), int(v[1])
	}
	return defA, defB
}
