// Package cgen renders a planned graph as a standalone C99 translation unit.
//
// The emitted program is self-contained: it carries the definitions of every
// runtime kernel it calls, the constant data, a static buffer pool sized by
// the planner, a model_forward function that executes the graph in node
// order, and a main that fills the inputs, times the forward pass with
// clock(), and prints the output tensors. Emission is deterministic: the
// same graph, shapes, and plan always produce byte-identical source,
// including the inline and variant choices.
package cgen

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/plan"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// Options control the shape of the emitted source, not its semantics.
type Options struct {
	// InlineRate is the fraction of kernel calls replaced by an inlined
	// block carrying the kernel body. 0 disables inlining, 1 inlines every
	// call. The per-call choice is a hash of the graph name and node
	// position, so it is stable across runs.
	InlineRate float64

	// Variants lets inlined elementwise loops use an alternative but
	// equivalent loop form, marked with a variant comment.
	Variants bool
}

// Warning records an operator that had no runtime-library mapping. Copied
// operators were lowered to an identity copy; the rest became aborting stubs.
type Warning struct {
	Node   string
	Kind   graph.Kind
	Copied bool
}

func (w *Warning) Error() string {
	if w.Copied {
		return fmt.Sprintf("operator %s (%s) has no kernel, lowered to identity copy", w.Kind, w.Node)
	}
	return fmt.Sprintf("operator %s (%s) has no kernel and no compatible fallback", w.Kind, w.Node)
}

// Result is the rendered program. Partial is set when any node was replaced
// by a fallback, copy or stub.
type Result struct {
	Source   string
	Partial  bool
	Warnings []*Warning
}

// call is one kernel invocation: args align one to one with ent.params.
type call struct {
	ent     *opEntry
	args    []string
	variant int
}

// nodePlan is the lowering of a single node.
type nodePlan struct {
	calls  []call
	stub   bool // unmapped, no compatible fallback
	copied bool // unmapped, lowered to identity
	inline bool
}

// Emit renders g as C source. Every tensor must have a shape in shapes and a
// buffer assignment in pl.
func Emit(g *graph.Graph, shapes map[int]tensor.Shape, pl *plan.Plan, opts Options) (*Result, error) {
	for id := range g.Tensors {
		s, ok := shapes[id]
		if !ok {
			return nil, errors.Errorf("emit %s: tensor %s has no inferred shape", g.Name, tname(g, id))
		}
		if len(s) > maxRank {
			return nil, errors.Errorf("emit %s: tensor %s has rank %d, the runtime library supports at most %d",
				g.Name, tname(g, id), len(s), maxRank)
		}
		if pl.BufferFor(id) == nil {
			return nil, errors.Errorf("emit %s: tensor %s has no buffer assignment", g.Name, tname(g, id))
		}
	}

	res := &Result{}
	plans := make([]nodePlan, len(g.Nodes))
	for i := range g.Nodes {
		np, warn, err := lowerNode(g, i, &g.Nodes[i], shapes, pl, opts)
		if err != nil {
			return nil, err
		}
		if warn != nil {
			res.Warnings = append(res.Warnings, warn)
			res.Partial = true
		}
		plans[i] = np
	}

	var (
		defs        []*opEntry
		seen        = map[string]bool{}
		needHelpers bool
		needCubic   bool
	)
	for i := range plans {
		for _, c := range plans[i].calls {
			if c.ent.needHelpers {
				needHelpers = true
			}
			if c.ent.cname == "op_bicubic_interp" {
				needCubic = true
			}
			if plans[i].inline {
				continue
			}
			if !seen[c.ent.cname] {
				seen[c.ent.cname] = true
				defs = append(defs, c.ent)
			}
		}
	}

	e := newEmitter()
	e.line("/* %s: generated by torchsyn */", g.Name)
	e.line("/* nodes: %d, tensors: %d, buffers: %d */", len(g.Nodes), len(g.Tensors), pl.NumBuffers())
	e.blank()
	e.line("#include <math.h>")
	e.line("#include <stdio.h>")
	e.line("#include <stdlib.h>")
	e.line("#include <string.h>")
	e.line("#include <time.h>")
	e.blank()

	if needHelpers {
		e.lines(helperBlock)
		e.blank()
	}
	if needCubic {
		e.lines(bicubicHelper)
		e.blank()
	}
	for _, ent := range defs {
		e.line("%s {", ent.signature())
		e.in()
		e.lines(ent.body)
		e.out()
		e.line("}")
		e.blank()
	}

	emitConstData(e, g, shapes)
	emitBufferPool(e, pl)
	emitLoadConstants(e, g, pl)
	emitForward(e, g, shapes, plans)
	emitMain(e, g, shapes, pl, len(g.Constants) > 0)

	res.Source = e.String()
	return res, nil
}

func emitConstData(e *emitter, g *graph.Graph, shapes map[int]tensor.Shape) {
	ids := constIDs(g)
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		data := g.Constants[id]
		e.line("static const float %s_data[%d] = {", tname(g, id), len(data))
		e.in()
		for off := 0; off < len(data); off += 8 {
			end := off + 8
			if end > len(data) {
				end = len(data)
			}
			parts := make([]string, 0, 8)
			for _, v := range data[off:end] {
				parts = append(parts, floatLit(v))
			}
			e.line("%s,", strings.Join(parts, ", "))
		}
		e.out()
		e.line("};")
	}
	e.blank()
}

func emitBufferPool(e *emitter, pl *plan.Plan) {
	for _, b := range pl.Buffers {
		size := b.Size
		if size < 1 {
			size = 1
		}
		e.line("static float buf%d[%d];", b.ID, size)
	}
	e.blank()
}

func emitLoadConstants(e *emitter, g *graph.Graph, pl *plan.Plan) {
	ids := constIDs(g)
	if len(ids) == 0 {
		return
	}
	e.line("static void load_constants(void) {")
	e.in()
	for _, id := range ids {
		e.line("memcpy(%s, %s_data, sizeof(%s_data));", bufName(pl, id), tname(g, id), tname(g, id))
	}
	e.out()
	e.line("}")
	e.blank()
}

func emitForward(e *emitter, g *graph.Graph, shapes map[int]tensor.Shape, plans []nodePlan) {
	e.line("static void model_forward(void) {")
	e.in()
	for i := range g.Nodes {
		n := &g.Nodes[i]
		out := n.Outputs[0]
		note := ""
		switch {
		case plans[i].stub:
			note = " (no kernel)"
		case plans[i].copied:
			note = " (fallback copy)"
		}
		e.line("/* %s: %s(%s) -> %v%s */", tname(g, out), n.Kind, inNames(g, n), shapes[out], note)
		if plans[i].stub {
			e.line("fprintf(stderr, \"unsupported operator %s (%s)\\n\");", strings.ToLower(n.Kind.String()), tname(g, out))
			e.line("exit(1);")
			continue
		}
		for _, c := range plans[i].calls {
			if plans[i].inline {
				emitInlined(e, n, c)
			} else {
				e.line("%s(%s);", c.ent.cname, strings.Join(c.args, ", "))
			}
		}
	}
	e.out()
	e.line("}")
	e.blank()
}

func emitInlined(e *emitter, n *graph.Node, c call) {
	marker := "{ /* INLINED */"
	if c.variant != 0 {
		marker = fmt.Sprintf("{ /* INLINED */ /* variant %d */", c.variant)
	}
	e.line("%s", marker)
	e.in()
	for j, pr := range c.ent.params {
		typ := pr.typ
		if typ == "int" || typ == "float" {
			typ = "const " + typ
		}
		e.line("%s %s = %s;", typ, pr.name, c.args[j])
	}
	e.lines(bodyFor(n, c.ent, c.variant))
	e.out()
	e.line("}")
}

func emitMain(e *emitter, g *graph.Graph, shapes map[int]tensor.Shape, pl *plan.Plan, hasConsts bool) {
	e.line("int main(void) {")
	e.in()
	for _, id := range g.Inputs {
		size := shapes[id].NumElements()
		e.line("for (int i = 0; i < %d; i++) {", size)
		e.in()
		// Deterministic fill, different per input, mixing positive and
		// negative values of modest magnitude.
		e.line("%s[i] = (float)(((i + %d) %% 11) - 5) * 0.25f;", bufName(pl, id), id)
		e.out()
		e.line("}")
	}
	if hasConsts {
		e.line("load_constants();")
	}
	e.line("clock_t t0 = clock();")
	e.line("model_forward();")
	e.line("double elapsed_ms = (double)(clock() - t0) * 1000.0 / (double)CLOCKS_PER_SEC;")
	for _, id := range g.Outputs {
		size := shapes[id].NumElements()
		e.line("printf(\"%s:\");", tname(g, id))
		e.line("for (int i = 0; i < %d; i++) {", size)
		e.in()
		e.line("printf(\" %%.6g\", (double)%s[i]);", bufName(pl, id))
		e.out()
		e.line("}")
		e.line("printf(\"\\n\");")
	}
	e.line("fprintf(stderr, \"model_forward: %%.3f ms\\n\", elapsed_ms);")
	e.line("return 0;")
	e.out()
	e.line("}")
}

// bodyFor returns the kernel body, regenerating the loop for elementwise
// variants.
func bodyFor(n *graph.Node, ent *opEntry, variant int) []string {
	if variant == 0 {
		return ent.body
	}
	if e, ok := unaryExprs[n.Kind]; ok {
		return loopBody("y[i]", e.expr, variant)
	}
	if e, ok := binaryExprs[n.Kind]; ok {
		return loopBody("c[i]", e.expr, variant)
	}
	return ent.body
}

// lowerNode maps one node to its kernel calls, or to the fallback policy
// when the kind has no runtime mapping.
func lowerNode(g *graph.Graph, idx int, n *graph.Node, shapes map[int]tensor.Shape, pl *plan.Plan, opts Options) (nodePlan, *Warning, error) {
	ent, ok := entryFor(n)
	if !ok {
		return lowerFallback(g, n, shapes, pl, opts, idx)
	}
	args, extra, err := renderArgs(g, n, ent, shapes, pl)
	if err != nil {
		return nodePlan{}, nil, err
	}
	np := nodePlan{inline: inlineNode(g, idx, opts)}
	if extra != nil {
		np.calls = extra
	} else {
		np.calls = []call{{ent: ent, args: args, variant: variantFor(g, idx, n, opts, np.inline)}}
	}
	return np, nil, nil
}

func lowerFallback(g *graph.Graph, n *graph.Node, shapes map[int]tensor.Shape, pl *plan.Plan, opts Options, idx int) (nodePlan, *Warning, error) {
	out := n.Outputs[0]
	warn := &Warning{Node: tname(g, out), Kind: n.Kind}
	if len(n.Inputs) > 0 {
		in := n.Inputs[0]
		if shapes[in].NumElements() == shapes[out].NumElements() {
			warn.Copied = true
			ent := table[kindFallbackCopy]
			args := []string{bufName(pl, in), bufName(pl, out), strconv.Itoa(shapes[out].NumElements())}
			return nodePlan{
				calls:  []call{{ent: ent, args: args}},
				copied: true,
				inline: inlineNode(g, idx, opts),
			}, warn, nil
		}
	}
	return nodePlan{stub: true}, warn, nil
}

func inlineNode(g *graph.Graph, idx int, opts Options) bool {
	if opts.InlineRate <= 0 {
		return false
	}
	if opts.InlineRate >= 1 {
		return true
	}
	h := posHash(g.Name, idx)
	return float64(h%10000)/10000.0 < opts.InlineRate
}

func variantFor(g *graph.Graph, idx int, n *graph.Node, opts Options, inlined bool) int {
	if !opts.Variants || !inlined {
		return 0
	}
	if _, ok := unaryExprs[n.Kind]; !ok {
		if _, ok := binaryExprs[n.Kind]; !ok {
			return 0
		}
	}
	return int((posHash(g.Name, idx) >> 16) & 1)
}

func posHash(name string, idx int) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", name, idx)
	return h.Sum32()
}

// renderArgs produces the argument list for a node's kernel call. For
// concatenation it instead returns one op_concat_part call per input.
func renderArgs(g *graph.Graph, n *graph.Node, ent *opEntry, shapes map[int]tensor.Shape, pl *plan.Plan) ([]string, []call, error) {
	in := func(j int) string { return bufName(pl, n.Inputs[j]) }
	out := bufName(pl, n.Outputs[0])
	inShape := func(j int) tensor.Shape { return shapes[n.Inputs[j]] }
	outShape := shapes[n.Outputs[0]]
	size := strconv.Itoa(outShape.NumElements())
	k := n.Kind

	if _, ok := binaryExprs[k]; ok {
		return []string{in(0), in(1), out, size}, nil, nil
	}
	if _, ok := unaryExprs[k]; ok {
		return []string{in(0), out, size}, nil, nil
	}

	switch k {
	case graph.KindLeakyRelu:
		return []string{in(0), out, size, floatLit(n.AttrFloat("negative_slope", 0.01))}, nil, nil
	case graph.KindElu, graph.KindCelu:
		return []string{in(0), out, size, floatLit(n.AttrFloat("alpha", 1))}, nil, nil
	case graph.KindHardTanh:
		return []string{in(0), out, size,
			floatLit(n.AttrFloat("min_val", -1)), floatLit(n.AttrFloat("max_val", 1))}, nil, nil
	case graph.KindHardShrink, graph.KindSoftShrink:
		return []string{in(0), out, size, floatLit(n.AttrFloat("lambd", 0.5))}, nil, nil
	case graph.KindClip:
		return []string{in(0), out, size,
			floatLit(n.AttrFloat("min", 0)), floatLit(n.AttrFloat("max", 1))}, nil, nil

	case graph.KindPrelu:
		return []string{in(0), in(1), out, size}, nil, nil
	case graph.KindWhere:
		return []string{in(0), in(1), in(2), out, size}, nil, nil

	case graph.KindSoftmax, graph.KindSoftmin, graph.KindLogSoftmax,
		graph.KindArgMin, graph.KindArgMax:
		return []string{in(0), out, strconv.Itoa(inShape(0).NumElements())}, nil, nil

	case graph.KindGlu:
		dim, _ := tensor.NormalizeAxis(int(n.AttrInt("dim", -1)), len(inShape(0)))
		outer, axisLen, inner := tensor.AxisSplit(inShape(0), dim)
		return []string{in(0), out,
			strconv.Itoa(outer), strconv.Itoa(axisLen / 2), strconv.Itoa(inner)}, nil, nil

	case graph.KindReduceSum, graph.KindReduceMean, graph.KindReduceMin,
		graph.KindReduceMax, graph.KindReduceProd, graph.KindReduceL1, graph.KindReduceL2:
		if !n.HasAttr("axis") {
			return []string{in(0), out, strconv.Itoa(inShape(0).NumElements())}, nil, nil
		}
		axis, _ := tensor.NormalizeAxis(int(n.AttrInt("axis", 0)), len(inShape(0)))
		outer, axisLen, inner := tensor.AxisSplit(inShape(0), axis)
		return []string{in(0), out,
			strconv.Itoa(outer), strconv.Itoa(axisLen), strconv.Itoa(inner)}, nil, nil

	case graph.KindMatMul:
		a, b := inShape(0), inShape(1)
		return []string{in(0), in(1), out,
			strconv.Itoa(a[0]), strconv.Itoa(a[1]), strconv.Itoa(b[1])}, nil, nil
	case graph.KindTranspose:
		s := inShape(0)
		if len(s) == 0 {
			return copyCall(g, n, shapes, pl)
		}
		perm := permFor(n, len(s))
		return []string{in(0), out, intList(s), intList(perm), strconv.Itoa(len(s))}, nil, nil
	case graph.KindTriu, graph.KindTril:
		s := inShape(0)
		return []string{in(0), out, strconv.Itoa(s[0]), strconv.Itoa(s[1])}, nil, nil

	case graph.KindConv1D:
		x, w := inShape(0), inShape(1)
		bias := "NULL"
		if len(n.Inputs) == 3 {
			bias = in(2)
		}
		return []string{in(0), in(1), bias, out,
			strconv.Itoa(x[0]), strconv.Itoa(x[1]), strconv.Itoa(w[0]),
			strconv.Itoa(x[2]), strconv.Itoa(w[2]),
			strconv.Itoa(int(n.AttrInt("stride", 1))), strconv.Itoa(int(n.AttrInt("padding", 0)))}, nil, nil
	case graph.KindConv2D:
		x, w := inShape(0), inShape(1)
		bias := "NULL"
		if len(n.Inputs) == 3 {
			bias = in(2)
		}
		sh, sw := intPair(n, "strides", 1, 1)
		ph, pw := intPair(n, "pads", 0, 0)
		return []string{in(0), in(1), bias, out,
			strconv.Itoa(x[0]), strconv.Itoa(x[1]), strconv.Itoa(w[0]),
			strconv.Itoa(x[2]), strconv.Itoa(x[3]),
			strconv.Itoa(w[2]), strconv.Itoa(w[3]),
			strconv.Itoa(sh), strconv.Itoa(sw), strconv.Itoa(ph), strconv.Itoa(pw)}, nil, nil
	case graph.KindMaxPool2D, graph.KindAvgPool2D:
		x := inShape(0)
		kernel := n.AttrInts("kernel_shape")
		kh, kw := int(kernel[0]), int(kernel[1])
		sh, sw := intPair(n, "strides", kh, kw)
		ph, pw := intPair(n, "pads", 0, 0)
		return []string{in(0), out,
			strconv.Itoa(x[0]), strconv.Itoa(x[1]), strconv.Itoa(x[2]), strconv.Itoa(x[3]),
			strconv.Itoa(kh), strconv.Itoa(kw),
			strconv.Itoa(sh), strconv.Itoa(sw), strconv.Itoa(ph), strconv.Itoa(pw)}, nil, nil
	case graph.KindBatchNorm2D:
		x := inShape(0)
		return []string{in(0), in(1), in(2), in(3), in(4), out,
			strconv.Itoa(x[0]), strconv.Itoa(x[1]), strconv.Itoa(x[2] * x[3]),
			floatLit(n.AttrFloat("epsilon", 1e-5))}, nil, nil

	case graph.KindConstant:
		return []string{out, size, floatLit(n.AttrFloat("value", 0))}, nil, nil
	case graph.KindReshape, graph.KindSqueeze, graph.KindUnsqueeze:
		return []string{in(0), out, size}, nil, nil
	case graph.KindExpand:
		if len(outShape) == 0 {
			return copyCall(g, n, shapes, pl)
		}
		strides := tensor.BroadcastStrides(inShape(0), outShape)
		return []string{in(0), out,
			intList(outShape), intList(strides), strconv.Itoa(len(outShape)), size}, nil, nil
	case graph.KindSlice:
		s := inShape(0)
		if len(s) == 0 {
			return copyCall(g, n, shapes, pl)
		}
		starts := make([]int, len(s))
		for i, v := range n.AttrInts("starts") {
			starts[i] = int(v)
		}
		return []string{in(0), out,
			intList(s), intList(outShape), intList(starts), strconv.Itoa(len(s)), size}, nil, nil
	case graph.KindConcat:
		return nil, concatCalls(g, n, shapes, pl), nil

	case graph.KindConstantPad, graph.KindReflectPad, graph.KindReplicatePad:
		s := inShape(0)
		inLen := s[len(s)-1]
		rows := s.NumElements() / inLen
		args := []string{in(0), out,
			strconv.Itoa(rows), strconv.Itoa(inLen),
			strconv.Itoa(int(n.AttrInt("before", 0))), strconv.Itoa(int(n.AttrInt("after", 0)))}
		if k == graph.KindConstantPad {
			args = append(args, floatLit(n.AttrFloat("value", 0)))
		}
		return args, nil, nil

	case graph.KindNearestInterp, graph.KindLinearInterp:
		s := inShape(0)
		inLen := s[len(s)-1]
		return []string{in(0), out,
			strconv.Itoa(s.NumElements() / inLen), strconv.Itoa(inLen),
			strconv.Itoa(outShape[len(outShape)-1])}, nil, nil
	case graph.KindBilinearInterp, graph.KindBicubicInterp:
		s := inShape(0)
		inH, inW := s[len(s)-2], s[len(s)-1]
		return []string{in(0), out,
			strconv.Itoa(s.NumElements() / (inH * inW)),
			strconv.Itoa(inH), strconv.Itoa(inW),
			strconv.Itoa(outShape[len(outShape)-2]), strconv.Itoa(outShape[len(outShape)-1])}, nil, nil
	case graph.KindTrilinearInterp:
		s := inShape(0)
		inD, inH, inW := s[len(s)-3], s[len(s)-2], s[len(s)-1]
		return []string{in(0), out,
			strconv.Itoa(s.NumElements() / (inD * inH * inW)),
			strconv.Itoa(inD), strconv.Itoa(inH), strconv.Itoa(inW),
			strconv.Itoa(outShape[len(outShape)-3]), strconv.Itoa(outShape[len(outShape)-2]),
			strconv.Itoa(outShape[len(outShape)-1])}, nil, nil
	}
	return nil, nil, errors.Errorf("emit %s: no argument rendering for operator %s", g.Name, k)
}

// copyCall degrades a rank-0 structural op to a one-element copy.
func copyCall(g *graph.Graph, n *graph.Node, shapes map[int]tensor.Shape, pl *plan.Plan) ([]string, []call, error) {
	out := n.Outputs[0]
	return nil, []call{{
		ent: table[graph.KindReshape],
		args: []string{bufName(pl, n.Inputs[0]), bufName(pl, out),
			strconv.Itoa(shapes[out].NumElements())},
	}}, nil
}

// concatCalls lowers a concatenation into one strided copy per input.
func concatCalls(g *graph.Graph, n *graph.Node, shapes map[int]tensor.Shape, pl *plan.Plan) []call {
	outShape := shapes[n.Outputs[0]]
	axis, _ := tensor.NormalizeAxis(int(n.AttrInt("axis", 0)), len(outShape))
	inner := 1
	for d := axis + 1; d < len(outShape); d++ {
		inner *= outShape[d]
	}
	outer := 1
	for d := 0; d < axis; d++ {
		outer *= outShape[d]
	}
	outStride := outShape[axis] * inner
	ent := table[kindConcatPart]

	calls := make([]call, 0, len(n.Inputs))
	offset := 0
	for _, id := range n.Inputs {
		copyLen := shapes[id][axis] * inner
		calls = append(calls, call{ent: ent, args: []string{
			bufName(pl, id), bufName(pl, n.Outputs[0]),
			strconv.Itoa(outer), strconv.Itoa(copyLen),
			strconv.Itoa(outStride), strconv.Itoa(offset),
		}})
		offset += copyLen
	}
	return calls
}

func permFor(n *graph.Node, rank int) []int {
	attr := n.AttrInts("perm")
	perm := make([]int, rank)
	if attr == nil {
		for i := range perm {
			perm[i] = rank - 1 - i
		}
		return perm
	}
	for i, v := range attr {
		perm[i] = int(v)
	}
	return perm
}

func intPair(n *graph.Node, name string, defA, defB int) (int, int) {
	v := n.AttrInts(name)
	if len(v) == 2 {
		return int(v[0]), int(v[1])
	}
	return defA, defB
}

func bufName(pl *plan.Plan, id int) string {
	return fmt.Sprintf("buf%d", pl.BufferFor(id).ID)
}

func tname(g *graph.Graph, id int) string {
	if name := g.Tensors[id].Name; name != "" {
		return name
	}
	return fmt.Sprintf("v%d", id)
}

func inNames(g *graph.Graph, n *graph.Node) string {
	parts := make([]string, len(n.Inputs))
	for i, id := range n.Inputs {
		parts[i] = tname(g, id)
	}
	return strings.Join(parts, ", ")
}

func constIDs(g *graph.Graph) []int {
	ids := maps.Keys(g.Constants)
	sort.Ints(ids)
	return ids
}

// intList renders an int slice as a C99 compound literal.
func intList(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return "(const int[]){" + strings.Join(parts, ", ") + "}"
}

// floatLit renders a float32 as the shortest C literal that round-trips.
func floatLit(v float32) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && !strings.Contains(s, "NaN") {
		s += ".0"
	}
	switch {
	case strings.Contains(s, "Inf"):
		if strings.HasPrefix(s, "-") {
			return "-INFINITY"
		}
		return "INFINITY"
	case strings.Contains(s, "NaN"):
		return "NAN"
	}
	return s + "f"
}

// emitter accumulates indented source lines.
type emitter struct {
	buf   bytes.Buffer
	level int
}

func newEmitter() *emitter { return &emitter{} }

func (e *emitter) in()  { e.level++ }
func (e *emitter) out() { e.level-- }

func (e *emitter) line(format string, args ...any) {
	for i := 0; i < e.level; i++ {
		e.buf.WriteString("  ")
	}
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

// lines writes pre-indented body text, preserving its two-space relative
// nesting under the current level.
func (e *emitter) lines(body []string) {
	for _, l := range body {
		if l == "" {
			e.buf.WriteByte('\n')
			continue
		}
		for i := 0; i < e.level; i++ {
			e.buf.WriteString("  ")
		}
		e.buf.WriteString(l)
		e.buf.WriteByte('\n')
	}
}

func (e *emitter) blank() { e.buf.WriteByte('\n') }

func (e *emitter) String() string { return e.buf.String() }
