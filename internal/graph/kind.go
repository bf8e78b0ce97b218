package graph

// Kind discriminates the fixed enumeration of operator kinds. Every stage of
// the pipeline (shape inference, planning, emission) switches exhaustively on
// it; the per-kind attribute payload lives in Node.Attrs.
type Kind uint16

const (
	KindInvalid Kind = iota

	// Binary elementwise (broadcasting handled before the kernel).
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindPow
	KindRemainder
	KindFloorDivide
	KindMinimum
	KindMaximum
	KindGreater
	KindLess
	KindEqual
	KindGreaterEqual
	KindLessEqual
	KindNotEqual
	KindAnd
	KindOr
	KindXor
	KindLeftShift
	KindRightShift
	KindBitwiseAnd
	KindBitwiseOr
	KindBitwiseXor

	// Unary elementwise.
	KindRelu
	KindRelu6
	KindSigmoid
	KindHardSigmoid
	KindLogSigmoid
	KindTanh
	KindGelu
	KindSelu
	KindSilu
	KindHardSwish
	KindMish
	KindSoftplus
	KindSoftsign
	KindRound
	KindFloor
	KindCeil
	KindTrunc
	KindAbs
	KindNeg
	KindReciprocal
	KindSin
	KindCos
	KindTan
	KindAsin
	KindAcos
	KindAtan
	KindSinh
	KindCosh
	KindAsinh
	KindAcosh
	KindAtanh
	KindExp
	KindExpm1
	KindLog
	KindLog2
	KindLog10
	KindLog1p
	KindSqrt
	KindRsqrt
	KindSquare
	KindCube
	KindErf
	KindErfc
	KindSign
	KindNot
	KindBitwiseNot
	KindIsNaN
	KindIsInf
	KindIsFinite

	// Casts (single-element-type library: results are stored back as float).
	KindCastF32
	KindCastF64
	KindCastI32
	KindCastI64
	KindCastBool

	// Unary with scalar attributes.
	KindLeakyRelu
	KindElu
	KindCelu
	KindHardTanh
	KindHardShrink
	KindSoftShrink
	KindClip

	// Parametric elementwise with a second data operand.
	KindPrelu
	KindWhere

	// Axis-normalizing.
	KindSoftmax
	KindSoftmin
	KindLogSoftmax
	KindGlu

	// Reductions.
	KindReduceSum
	KindReduceMean
	KindReduceMin
	KindReduceMax
	KindReduceProd
	KindReduceL1
	KindReduceL2
	KindArgMin
	KindArgMax

	// Matrix.
	KindMatMul
	KindTranspose
	KindTriu
	KindTril

	// Convolution / pooling / normalization (NCHW).
	KindConv1D
	KindConv2D
	KindMaxPool2D
	KindAvgPool2D
	KindBatchNorm2D

	// Shape manipulation.
	KindConstant
	KindReshape
	KindSqueeze
	KindUnsqueeze
	KindExpand
	KindSlice
	KindConcat

	// Padding.
	KindConstantPad
	KindReflectPad
	KindReplicatePad

	// Interpolation (rule is the kind, output size is an attribute).
	KindNearestInterp
	KindLinearInterp
	KindBilinearInterp
	KindBicubicInterp
	KindTrilinearInterp

	// Kinds with shape rules but no runtime-library mapping yet; the emitter
	// resolves them through the fallback policy.
	KindErfinv
	KindDigamma

	kindCount // must stay last
)

var kindNames = [...]string{
	KindInvalid: "Invalid",

	KindAdd:          "Add",
	KindSub:          "Sub",
	KindMul:          "Mul",
	KindDiv:          "Div",
	KindPow:          "Pow",
	KindRemainder:    "Remainder",
	KindFloorDivide:  "FloorDivide",
	KindMinimum:      "Minimum",
	KindMaximum:      "Maximum",
	KindGreater:      "Greater",
	KindLess:         "Less",
	KindEqual:        "Equal",
	KindGreaterEqual: "GreaterEqual",
	KindLessEqual:    "LessEqual",
	KindNotEqual:     "NotEqual",
	KindAnd:          "And",
	KindOr:           "Or",
	KindXor:          "Xor",
	KindLeftShift:    "LeftShift",
	KindRightShift:   "RightShift",
	KindBitwiseAnd:   "BitwiseAnd",
	KindBitwiseOr:    "BitwiseOr",
	KindBitwiseXor:   "BitwiseXor",

	KindRelu:        "Relu",
	KindRelu6:       "Relu6",
	KindSigmoid:     "Sigmoid",
	KindHardSigmoid: "HardSigmoid",
	KindLogSigmoid:  "LogSigmoid",
	KindTanh:        "Tanh",
	KindGelu:        "Gelu",
	KindSelu:        "Selu",
	KindSilu:        "Silu",
	KindHardSwish:   "HardSwish",
	KindMish:        "Mish",
	KindSoftplus:    "Softplus",
	KindSoftsign:    "Softsign",
	KindRound:       "Round",
	KindFloor:       "Floor",
	KindCeil:        "Ceil",
	KindTrunc:       "Trunc",
	KindAbs:         "Abs",
	KindNeg:         "Neg",
	KindReciprocal:  "Reciprocal",
	KindSin:         "Sin",
	KindCos:         "Cos",
	KindTan:         "Tan",
	KindAsin:        "Asin",
	KindAcos:        "Acos",
	KindAtan:        "Atan",
	KindSinh:        "Sinh",
	KindCosh:        "Cosh",
	KindAsinh:       "Asinh",
	KindAcosh:       "Acosh",
	KindAtanh:       "Atanh",
	KindExp:         "Exp",
	KindExpm1:       "Expm1",
	KindLog:         "Log",
	KindLog2:        "Log2",
	KindLog10:       "Log10",
	KindLog1p:       "Log1p",
	KindSqrt:        "Sqrt",
	KindRsqrt:       "Rsqrt",
	KindSquare:      "Square",
	KindCube:        "Cube",
	KindErf:         "Erf",
	KindErfc:        "Erfc",
	KindSign:        "Sign",
	KindNot:         "Not",
	KindBitwiseNot:  "BitwiseNot",
	KindIsNaN:       "IsNaN",
	KindIsInf:       "IsInf",
	KindIsFinite:    "IsFinite",

	KindCastF32:  "CastF32",
	KindCastF64:  "CastF64",
	KindCastI32:  "CastI32",
	KindCastI64:  "CastI64",
	KindCastBool: "CastBool",

	KindLeakyRelu:  "LeakyRelu",
	KindElu:        "Elu",
	KindCelu:       "Celu",
	KindHardTanh:   "HardTanh",
	KindHardShrink: "HardShrink",
	KindSoftShrink: "SoftShrink",
	KindClip:       "Clip",

	KindPrelu: "Prelu",
	KindWhere: "Where",

	KindSoftmax:    "Softmax",
	KindSoftmin:    "Softmin",
	KindLogSoftmax: "LogSoftmax",
	KindGlu:        "Glu",

	KindReduceSum:  "ReduceSum",
	KindReduceMean: "ReduceMean",
	KindReduceMin:  "ReduceMin",
	KindReduceMax:  "ReduceMax",
	KindReduceProd: "ReduceProd",
	KindReduceL1:   "ReduceL1",
	KindReduceL2:   "ReduceL2",
	KindArgMin:     "ArgMin",
	KindArgMax:     "ArgMax",

	KindMatMul:    "MatMul",
	KindTranspose: "Transpose",
	KindTriu:      "Triu",
	KindTril:      "Tril",

	KindConv1D:      "Conv1D",
	KindConv2D:      "Conv2D",
	KindMaxPool2D:   "MaxPool2D",
	KindAvgPool2D:   "AvgPool2D",
	KindBatchNorm2D: "BatchNorm2D",

	KindConstant:  "Constant",
	KindReshape:   "Reshape",
	KindSqueeze:   "Squeeze",
	KindUnsqueeze: "Unsqueeze",
	KindExpand:    "Expand",
	KindSlice:     "Slice",
	KindConcat:    "Concat",

	KindConstantPad:  "ConstantPad",
	KindReflectPad:   "ReflectPad",
	KindReplicatePad: "ReplicatePad",

	KindNearestInterp:   "NearestInterp",
	KindLinearInterp:    "LinearInterp",
	KindBilinearInterp:  "BilinearInterp",
	KindBicubicInterp:   "BicubicInterp",
	KindTrilinearInterp: "TrilinearInterp",

	KindErfinv:  "Erfinv",
	KindDigamma: "Digamma",
}

// String returns the operator name, e.g. "Add" or "Conv2D".
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}

// NumKinds returns the number of valid operator kinds.
func NumKinds() int { return int(kindCount) - 1 }

// IsBinaryElementwise reports whether the kind takes two broadcast-compatible
// operands and applies a scalar function per element.
func (k Kind) IsBinaryElementwise() bool {
	return k >= KindAdd && k <= KindBitwiseXor
}

// IsUnaryElementwise reports whether the kind applies a scalar function per
// element to a single operand, including the attribute-parameterized ones and
// the casts.
func (k Kind) IsUnaryElementwise() bool {
	return (k >= KindRelu && k <= KindCastBool) || (k >= KindLeakyRelu && k <= KindClip)
}

// IsReduction reports whether the kind folds its operand to a scalar or along
// a single axis.
func (k Kind) IsReduction() bool {
	return k >= KindReduceSum && k <= KindArgMax
}
