package kernels

import (
	"github.com/pkg/errors"

	"github.com/qiuchuy/torchsyn/internal/graph"
	"github.com/qiuchuy/torchsyn/internal/tensor"
)

// Supported reports whether the runtime library maps the kind to a kernel.
// Kinds without a mapping go through the emitter's fallback policy.
func Supported(k graph.Kind) bool {
	switch k {
	case graph.KindInvalid, graph.KindErfinv, graph.KindDigamma:
		return false
	}
	return true
}

// Run executes the reference kernel for one node. inputs and inShapes are
// parallel; out is freshly allocated sized to outShape. This is the trusted
// reference the generated C is tested against, not a runtime interpreter
// for production graphs.
func Run(n *graph.Node, inputs [][]float32, inShapes []tensor.Shape, outShape tensor.Shape) ([]float32, error) {
	out := make([]float32, outShape.NumElements())
	k := n.Kind

	if k.IsBinaryElementwise() {
		if len(inputs) != 2 {
			return nil, errors.Errorf("%s: want 2 inputs, got %d", k, len(inputs))
		}
		a, b := inputs[0], inputs[1]
		if len(a) != len(out) || len(b) != len(out) {
			return nil, errors.Errorf("%s: operands not pre-broadcast (%d, %d vs %d)", k, len(a), len(b), len(out))
		}
		binaryKernel(k)(a, b, out)
		return out, nil
	}

	switch k {
	case graph.KindLeakyRelu:
		LeakyRelu(inputs[0], out, n.AttrFloat("negative_slope", 0.01))
	case graph.KindElu:
		Elu(inputs[0], out, n.AttrFloat("alpha", 1))
	case graph.KindCelu:
		Celu(inputs[0], out, n.AttrFloat("alpha", 1))
	case graph.KindHardTanh:
		HardTanh(inputs[0], out, n.AttrFloat("min_val", -1), n.AttrFloat("max_val", 1))
	case graph.KindHardShrink:
		HardShrink(inputs[0], out, n.AttrFloat("lambd", 0.5))
	case graph.KindSoftShrink:
		SoftShrink(inputs[0], out, n.AttrFloat("lambd", 0.5))
	case graph.KindClip:
		Clip(inputs[0], out, n.AttrFloat("min", 0), n.AttrFloat("max", 1))

	case graph.KindPrelu:
		Prelu(inputs[0], inputs[1], out)
	case graph.KindWhere:
		Where(inputs[0], inputs[1], inputs[2], out)

	case graph.KindSoftmax:
		Softmax(inputs[0], out)
	case graph.KindSoftmin:
		Softmin(inputs[0], out)
	case graph.KindLogSoftmax:
		LogSoftmax(inputs[0], out)
	case graph.KindGlu:
		dim, _ := tensor.NormalizeAxis(int(n.AttrInt("dim", -1)), len(inShapes[0]))
		outer, axisLen, inner := tensor.AxisSplit(inShapes[0], dim)
		Glu(inputs[0], out, outer, axisLen/2, inner)

	case graph.KindReduceSum, graph.KindReduceMean, graph.KindReduceMin,
		graph.KindReduceMax, graph.KindReduceProd, graph.KindReduceL1, graph.KindReduceL2:
		runReduce(k, n, inputs[0], out, inShapes[0])
	case graph.KindArgMin:
		out[0] = float32(ArgMin(inputs[0]))
	case graph.KindArgMax:
		out[0] = float32(ArgMax(inputs[0]))

	case graph.KindMatMul:
		MatMul(inputs[0], inputs[1], out, inShapes[0][0], inShapes[0][1], inShapes[1][1])
	case graph.KindTranspose:
		Transpose(inputs[0], out, inShapes[0], transposePerm(n, len(inShapes[0])))
	case graph.KindTriu:
		Triu(inputs[0], out, inShapes[0][0], inShapes[0][1])
	case graph.KindTril:
		Tril(inputs[0], out, inShapes[0][0], inShapes[0][1])

	case graph.KindConv1D:
		x, w := inShapes[0], inShapes[1]
		var bias []float32
		if len(inputs) == 3 {
			bias = inputs[2]
		}
		Conv1D(inputs[0], inputs[1], bias, out,
			x[0], x[1], w[0], x[2], w[2],
			int(n.AttrInt("stride", 1)), int(n.AttrInt("padding", 0)))
	case graph.KindConv2D:
		x, w := inShapes[0], inShapes[1]
		var bias []float32
		if len(inputs) == 3 {
			bias = inputs[2]
		}
		sh, sw := intPairAttr(n, "strides", 1, 1)
		ph, pw := intPairAttr(n, "pads", 0, 0)
		Conv2D(inputs[0], inputs[1], bias, out,
			x[0], x[1], w[0], x[2], x[3], w[2], w[3], sh, sw, ph, pw)
	case graph.KindMaxPool2D, graph.KindAvgPool2D:
		x := inShapes[0]
		kernel := n.AttrInts("kernel_shape")
		kh, kw := int(kernel[0]), int(kernel[1])
		sh, sw := intPairAttr(n, "strides", kh, kw)
		ph, pw := intPairAttr(n, "pads", 0, 0)
		if k == graph.KindMaxPool2D {
			MaxPool2D(inputs[0], out, x[0], x[1], x[2], x[3], kh, kw, sh, sw, ph, pw)
		} else {
			AvgPool2D(inputs[0], out, x[0], x[1], x[2], x[3], kh, kw, sh, sw, ph, pw)
		}
	case graph.KindBatchNorm2D:
		x := inShapes[0]
		BatchNorm2D(inputs[0], inputs[1], inputs[2], inputs[3], inputs[4], out,
			x[0], x[1], x[2]*x[3], n.AttrFloat("epsilon", 1e-5))

	case graph.KindConstant:
		Constant(out, n.AttrFloat("value", 0))
	case graph.KindReshape:
		Reshape(inputs[0], out)
	case graph.KindSqueeze:
		Squeeze(inputs[0], out)
	case graph.KindUnsqueeze:
		Unsqueeze(inputs[0], out)
	case graph.KindExpand:
		Expand(inputs[0], out, outShape, tensor.BroadcastStrides(inShapes[0], outShape))
	case graph.KindSlice:
		starts := make([]int, len(inShapes[0]))
		for i, s := range n.AttrInts("starts") {
			starts[i] = int(s)
		}
		Slice(inputs[0], out, inShapes[0], outShape, starts)
	case graph.KindConcat:
		axis, _ := tensor.NormalizeAxis(int(n.AttrInt("axis", 0)), len(inShapes[0]))
		shapes := make([][]int, len(inShapes))
		for i, s := range inShapes {
			shapes[i] = s
		}
		Concat(inputs, out, shapes, axis)

	case graph.KindConstantPad, graph.KindReflectPad, graph.KindReplicatePad:
		inLen := inShapes[0][len(inShapes[0])-1]
		rows := inShapes[0].NumElements() / inLen
		before := int(n.AttrInt("before", 0))
		after := int(n.AttrInt("after", 0))
		switch k {
		case graph.KindConstantPad:
			ConstantPad(inputs[0], out, rows, inLen, before, after, n.AttrFloat("value", 0))
		case graph.KindReflectPad:
			ReflectPad(inputs[0], out, rows, inLen, before, after)
		default:
			ReplicatePad(inputs[0], out, rows, inLen, before, after)
		}

	case graph.KindNearestInterp, graph.KindLinearInterp:
		inLen := inShapes[0][len(inShapes[0])-1]
		planes := inShapes[0].NumElements() / inLen
		outLen := outShape[len(outShape)-1]
		if k == graph.KindNearestInterp {
			NearestInterp(inputs[0], out, planes, inLen, outLen)
		} else {
			LinearInterp(inputs[0], out, planes, inLen, outLen)
		}
	case graph.KindBilinearInterp, graph.KindBicubicInterp:
		s := inShapes[0]
		inH, inW := s[len(s)-2], s[len(s)-1]
		planes := s.NumElements() / (inH * inW)
		outH, outW := outShape[len(outShape)-2], outShape[len(outShape)-1]
		if k == graph.KindBilinearInterp {
			BilinearInterp(inputs[0], out, planes, inH, inW, outH, outW)
		} else {
			BicubicInterp(inputs[0], out, planes, inH, inW, outH, outW)
		}
	case graph.KindTrilinearInterp:
		s := inShapes[0]
		inD, inH, inW := s[len(s)-3], s[len(s)-2], s[len(s)-1]
		planes := s.NumElements() / (inD * inH * inW)
		TrilinearInterp(inputs[0], out, planes, inD, inH, inW,
			outShape[len(outShape)-3], outShape[len(outShape)-2], outShape[len(outShape)-1])

	default:
		if fn := unaryKernel(k); fn != nil {
			fn(inputs[0], out)
			return out, nil
		}
		return nil, errors.Errorf("no runtime kernel for operator %s", k)
	}
	return out, nil
}

// binaryKernel maps a binary elementwise kind to its kernel.
func binaryKernel(k graph.Kind) func(a, b, out []float32) {
	switch k {
	case graph.KindAdd:
		return Add
	case graph.KindSub:
		return Sub
	case graph.KindMul:
		return Mul
	case graph.KindDiv:
		return Div
	case graph.KindPow:
		return Pow
	case graph.KindRemainder:
		return Remainder
	case graph.KindFloorDivide:
		return FloorDivide
	case graph.KindMinimum:
		return Minimum
	case graph.KindMaximum:
		return Maximum
	case graph.KindGreater:
		return Greater
	case graph.KindLess:
		return Less
	case graph.KindEqual:
		return Equal
	case graph.KindGreaterEqual:
		return GreaterEqual
	case graph.KindLessEqual:
		return LessEqual
	case graph.KindNotEqual:
		return NotEqual
	case graph.KindAnd:
		return And
	case graph.KindOr:
		return Or
	case graph.KindXor:
		return Xor
	case graph.KindLeftShift:
		return LeftShift
	case graph.KindRightShift:
		return RightShift
	case graph.KindBitwiseAnd:
		return BitwiseAnd
	case graph.KindBitwiseOr:
		return BitwiseOr
	case graph.KindBitwiseXor:
		return BitwiseXor
	}
	return nil
}

// unaryKernel maps an attribute-free unary kind to its kernel.
func unaryKernel(k graph.Kind) func(x, out []float32) {
	switch k {
	case graph.KindRelu:
		return Relu
	case graph.KindRelu6:
		return Relu6
	case graph.KindSigmoid:
		return Sigmoid
	case graph.KindHardSigmoid:
		return HardSigmoid
	case graph.KindLogSigmoid:
		return LogSigmoid
	case graph.KindTanh:
		return Tanh
	case graph.KindGelu:
		return Gelu
	case graph.KindSelu:
		return Selu
	case graph.KindSilu:
		return Silu
	case graph.KindHardSwish:
		return HardSwish
	case graph.KindMish:
		return Mish
	case graph.KindSoftplus:
		return Softplus
	case graph.KindSoftsign:
		return Softsign
	case graph.KindRound:
		return Round
	case graph.KindFloor:
		return Floor
	case graph.KindCeil:
		return Ceil
	case graph.KindTrunc:
		return Trunc
	case graph.KindAbs:
		return Abs
	case graph.KindNeg:
		return Neg
	case graph.KindReciprocal:
		return Reciprocal
	case graph.KindSin:
		return Sin
	case graph.KindCos:
		return Cos
	case graph.KindTan:
		return Tan
	case graph.KindAsin:
		return Asin
	case graph.KindAcos:
		return Acos
	case graph.KindAtan:
		return Atan
	case graph.KindSinh:
		return Sinh
	case graph.KindCosh:
		return Cosh
	case graph.KindAsinh:
		return Asinh
	case graph.KindAcosh:
		return Acosh
	case graph.KindAtanh:
		return Atanh
	case graph.KindExp:
		return Exp
	case graph.KindExpm1:
		return Expm1
	case graph.KindLog:
		return Log
	case graph.KindLog2:
		return Log2
	case graph.KindLog10:
		return Log10
	case graph.KindLog1p:
		return Log1p
	case graph.KindSqrt:
		return Sqrt
	case graph.KindRsqrt:
		return Rsqrt
	case graph.KindSquare:
		return Square
	case graph.KindCube:
		return Cube
	case graph.KindErf:
		return Erf
	case graph.KindErfc:
		return Erfc
	case graph.KindSign:
		return Sign
	case graph.KindNot:
		return Not
	case graph.KindBitwiseNot:
		return BitwiseNot
	case graph.KindIsNaN:
		return IsNaN
	case graph.KindIsInf:
		return IsInf
	case graph.KindIsFinite:
		return IsFinite
	case graph.KindCastF32:
		return CastF32
	case graph.KindCastF64:
		return CastF64
	case graph.KindCastI32:
		return CastI32
	case graph.KindCastI64:
		return CastI64
	case graph.KindCastBool:
		return CastBool
	}
	return nil
}

func runReduce(k graph.Kind, n *graph.Node, x, out []float32, inShape tensor.Shape) {
	if !n.HasAttr("axis") {
		switch k {
		case graph.KindReduceSum:
			out[0] = ReduceSum(x)
		case graph.KindReduceMean:
			out[0] = ReduceMean(x)
		case graph.KindReduceMin:
			out[0] = ReduceMin(x)
		case graph.KindReduceMax:
			out[0] = ReduceMax(x)
		case graph.KindReduceProd:
			out[0] = ReduceProd(x)
		case graph.KindReduceL1:
			out[0] = ReduceL1(x)
		case graph.KindReduceL2:
			out[0] = ReduceL2(x)
		}
		return
	}
	axis, _ := tensor.NormalizeAxis(int(n.AttrInt("axis", 0)), len(inShape))
	outer, axisLen, inner := tensor.AxisSplit(inShape, axis)
	switch k {
	case graph.KindReduceSum:
		ReduceSumAxis(x, out, outer, axisLen, inner)
	case graph.KindReduceMean:
		ReduceMeanAxis(x, out, outer, axisLen, inner)
	case graph.KindReduceMin:
		ReduceMinAxis(x, out, outer, axisLen, inner)
	case graph.KindReduceMax:
		ReduceMaxAxis(x, out, outer, axisLen, inner)
	case graph.KindReduceProd:
		ReduceProdAxis(x, out, outer, axisLen, inner)
	case graph.KindReduceL1:
		ReduceL1Axis(x, out, outer, axisLen, inner)
	case graph.KindReduceL2:
		ReduceL2Axis(x, out, outer, axisLen, inner)
	}
}

func transposePerm(n *graph.Node, rank int) []int {
	attr := n.AttrInts("perm")
	perm := make([]int, rank)
	if attr == nil {
		for i := range perm {
			perm[i] = rank - 1 - i
		}
		return perm
	}
	for i, p := range attr {
		perm[i] = int(p)
	}
	return perm
}

func intPairAttr(n *graph.Node, name string, defA, defB int) (int, int) {
	v := n.AttrInts(name)
	if len(v) == 2 {
		return int(v[0]), int(v[1])
	}
	return defA, defB
}
