package cgen

import (
	"fmt"

	"github.com/qiuchuy/torchsyn/internal/graph"
)

// The operator table is the C side of the runtime-library ABI: for every
// mapped kind, the kernel's name, its exact parameter order, and its body.
// Generated source calls these signatures literally, so the table is
// process-wide, populated once, and read-only afterward.
//
// Every kernel is a void function writing into a caller-supplied output;
// reductions write their scalar into y[0]. Bodies mirror the Go reference
// kernels line for line (same accumulator widths, same clamping).

type cparam struct {
	name string
	typ  string
}

type opEntry struct {
	cname       string
	params      []cparam
	body        []string // lines, two-space indent per nesting level
	needHelpers bool     // references the shared cast/shift helpers
}

func p(name, typ string) cparam { return cparam{name: name, typ: typ} }

// signature renders the C prototype line without the trailing brace.
func (e *opEntry) signature() string {
	s := "static void " + e.cname + "("
	for i, pr := range e.params {
		if i > 0 {
			s += ", "
		}
		s += pr.typ + " " + pr.name
	}
	return s + ")"
}

// loopBody builds the canonical elementwise loop. variant 1 walks the buffer
// backwards; the result is identical, the text is not.
func loopBody(lhs, expr string, variant int) []string {
	if variant == 1 {
		return []string{
			"for (int i = size - 1; i >= 0; i--) {",
			"  " + lhs + " = " + expr + ";",
			"}",
		}
	}
	return []string{
		"for (int i = 0; i < size; i++) {",
		"  " + lhs + " = " + expr + ";",
		"}",
	}
}

func unaryEntry(cname, expr string, helpers bool) *opEntry {
	return &opEntry{
		cname:       cname,
		params:      []cparam{p("x", "const float*"), p("y", "float*"), p("size", "int")},
		body:        loopBody("y[i]", expr, 0),
		needHelpers: helpers,
	}
}

func attrUnaryEntry(cname, expr string, attrs ...cparam) *opEntry {
	params := []cparam{p("x", "const float*"), p("y", "float*"), p("size", "int")}
	params = append(params, attrs...)
	return &opEntry{cname: cname, params: params, body: loopBody("y[i]", expr, 0)}
}

func binaryEntry(cname, expr string, helpers bool) *opEntry {
	return &opEntry{
		cname:       cname,
		params:      []cparam{p("a", "const float*"), p("b", "const float*"), p("c", "float*"), p("size", "int")},
		body:        loopBody("c[i]", expr, 0),
		needHelpers: helpers,
	}
}

func reduceEntry(cname string, body ...string) *opEntry {
	return &opEntry{
		cname:  cname,
		params: []cparam{p("x", "const float*"), p("y", "float*"), p("size", "int")},
		body:   body,
	}
}

func reduceAxisEntry(cname, init, fold, finish string) *opEntry {
	body := []string{
		"for (int o = 0; o < outer; o++) {",
		"  for (int in = 0; in < inner; in++) {",
		"    double acc = " + init + ";",
		"    for (int a = 0; a < axis_size; a++) {",
		"      double v = (double)x[(o * axis_size + a) * inner + in];",
		"      " + fold,
		"    }",
		"    y[o * inner + in] = " + finish + ";",
		"  }",
		"}",
	}
	return &opEntry{
		cname: cname,
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("outer", "int"), p("axis_size", "int"), p("inner", "int"),
		},
		body: body,
	}
}

// unaryExprs maps attribute-free unary kinds to their C scalar expression.
var unaryExprs = map[graph.Kind]struct {
	cname   string
	expr    string
	helpers bool
}{
	graph.KindRelu:        {"op_relu", "x[i] > 0.0f ? x[i] : 0.0f", false},
	graph.KindRelu6:       {"op_relu6", "fminf(fmaxf(x[i], 0.0f), 6.0f)", false},
	graph.KindSigmoid:     {"op_sigmoid", "1.0f / (1.0f + expf(-x[i]))", false},
	graph.KindHardSigmoid: {"op_hardsigmoid", "fminf(fmaxf(x[i] / 6.0f + 0.5f, 0.0f), 1.0f)", false},
	graph.KindLogSigmoid:  {"op_logsigmoid", "-log1pf(expf(-x[i]))", false},
	graph.KindTanh:        {"op_tanh", "tanhf(x[i])", false},
	graph.KindGelu:        {"op_gelu", "0.5f * x[i] * (1.0f + erff(x[i] / sqrtf(2.0f)))", false},
	graph.KindSelu:        {"op_selu", "x[i] > 0.0f ? 1.0507009873554805f * x[i] : 1.0507009873554805f * 1.6732632423543772f * (expf(x[i]) - 1.0f)", false},
	graph.KindSilu:        {"op_silu", "x[i] / (1.0f + expf(-x[i]))", false},
	graph.KindHardSwish:   {"op_hardswish", "x[i] * fminf(fmaxf(x[i] / 6.0f + 0.5f, 0.0f), 1.0f)", false},
	graph.KindMish:        {"op_mish", "x[i] * tanhf(log1pf(expf(x[i])))", false},
	graph.KindSoftplus:    {"op_softplus", "log1pf(expf(x[i]))", false},
	graph.KindSoftsign:    {"op_softsign", "x[i] / (1.0f + fabsf(x[i]))", false},
	graph.KindRound:       {"op_round", "roundf(x[i])", false},
	graph.KindFloor:       {"op_floor", "floorf(x[i])", false},
	graph.KindCeil:        {"op_ceil", "ceilf(x[i])", false},
	graph.KindTrunc:       {"op_trunc", "truncf(x[i])", false},
	graph.KindAbs:         {"op_abs", "fabsf(x[i])", false},
	graph.KindNeg:         {"op_neg", "-x[i]", false},
	graph.KindReciprocal:  {"op_reciprocal", "1.0f / x[i]", false},
	graph.KindSin:         {"op_sin", "sinf(x[i])", false},
	graph.KindCos:         {"op_cos", "cosf(x[i])", false},
	graph.KindTan:         {"op_tan", "tanf(x[i])", false},
	graph.KindAsin:        {"op_asin", "asinf(x[i])", false},
	graph.KindAcos:        {"op_acos", "acosf(x[i])", false},
	graph.KindAtan:        {"op_atan", "atanf(x[i])", false},
	graph.KindSinh:        {"op_sinh", "sinhf(x[i])", false},
	graph.KindCosh:        {"op_cosh", "coshf(x[i])", false},
	graph.KindAsinh:       {"op_asinh", "asinhf(x[i])", false},
	graph.KindAcosh:       {"op_acosh", "acoshf(x[i])", false},
	graph.KindAtanh:       {"op_atanh", "atanhf(x[i])", false},
	graph.KindExp:         {"op_exp", "expf(x[i])", false},
	graph.KindExpm1:       {"op_expm1", "expm1f(x[i])", false},
	graph.KindLog:         {"op_log", "logf(x[i])", false},
	graph.KindLog2:        {"op_log2", "log2f(x[i])", false},
	graph.KindLog10:       {"op_log10", "log10f(x[i])", false},
	graph.KindLog1p:       {"op_log1p", "log1pf(x[i])", false},
	graph.KindSqrt:        {"op_sqrt", "sqrtf(x[i])", false},
	graph.KindRsqrt:       {"op_rsqrt", "1.0f / sqrtf(x[i])", false},
	graph.KindSquare:      {"op_square", "x[i] * x[i]", false},
	graph.KindCube:        {"op_cube", "x[i] * x[i] * x[i]", false},
	graph.KindErf:         {"op_erf", "erff(x[i])", false},
	graph.KindErfc:        {"op_erfc", "erfcf(x[i])", false},
	graph.KindSign:        {"op_sign", "x[i] > 0.0f ? 1.0f : (x[i] < 0.0f ? -1.0f : 0.0f)", false},
	graph.KindNot:         {"op_not", "x[i] == 0.0f ? 1.0f : 0.0f", false},
	graph.KindBitwiseNot:  {"op_bitwise_not", "(float)(~cast_i32(x[i]))", true},
	graph.KindIsNaN:       {"op_isnan", "x[i] != x[i] ? 1.0f : 0.0f", false},
	graph.KindIsInf:       {"op_isinf", "isinf(x[i]) ? 1.0f : 0.0f", false},
	graph.KindIsFinite:    {"op_isfinite", "isfinite(x[i]) ? 1.0f : 0.0f", false},
	graph.KindCastF32:     {"op_cast_f32", "x[i]", false},
	graph.KindCastF64:     {"op_cast_f64", "(float)(double)x[i]", false},
	graph.KindCastI32:     {"op_cast_i32", "(float)cast_i32(x[i])", true},
	graph.KindCastI64:     {"op_cast_i64", "(float)cast_i64(x[i])", true},
	graph.KindCastBool:    {"op_cast_bool", "x[i] != 0.0f ? 1.0f : 0.0f", false},
}

// binaryExprs maps binary elementwise kinds to their C scalar expression.
var binaryExprs = map[graph.Kind]struct {
	cname   string
	expr    string
	helpers bool
}{
	graph.KindAdd:          {"op_add", "a[i] + b[i]", false},
	graph.KindSub:          {"op_sub", "a[i] - b[i]", false},
	graph.KindMul:          {"op_mul", "a[i] * b[i]", false},
	graph.KindDiv:          {"op_div", "a[i] / b[i]", false},
	graph.KindPow:          {"op_pow", "powf(a[i], b[i])", false},
	graph.KindRemainder:    {"op_remainder", "fmodf(a[i], b[i])", false},
	graph.KindFloorDivide:  {"op_floor_divide", "floorf(a[i] / b[i])", false},
	graph.KindMinimum:      {"op_min", "a[i] < b[i] ? a[i] : b[i]", false},
	graph.KindMaximum:      {"op_max", "a[i] > b[i] ? a[i] : b[i]", false},
	graph.KindGreater:      {"op_greater", "a[i] > b[i] ? 1.0f : 0.0f", false},
	graph.KindLess:         {"op_less", "a[i] < b[i] ? 1.0f : 0.0f", false},
	graph.KindEqual:        {"op_equal", "a[i] == b[i] ? 1.0f : 0.0f", false},
	graph.KindGreaterEqual: {"op_greater_equal", "a[i] >= b[i] ? 1.0f : 0.0f", false},
	graph.KindLessEqual:    {"op_less_equal", "a[i] <= b[i] ? 1.0f : 0.0f", false},
	graph.KindNotEqual:     {"op_not_equal", "a[i] != b[i] ? 1.0f : 0.0f", false},
	graph.KindAnd:          {"op_and", "(a[i] != 0.0f && b[i] != 0.0f) ? 1.0f : 0.0f", false},
	graph.KindOr:           {"op_or", "(a[i] != 0.0f || b[i] != 0.0f) ? 1.0f : 0.0f", false},
	graph.KindXor:          {"op_xor", "((a[i] != 0.0f) != (b[i] != 0.0f)) ? 1.0f : 0.0f", false},
	graph.KindLeftShift:    {"op_left_shift", "(float)(cast_i32(a[i]) << shift_count(b[i]))", true},
	graph.KindRightShift:   {"op_right_shift", "(float)(cast_i32(a[i]) >> shift_count(b[i]))", true},
	graph.KindBitwiseAnd:   {"op_bitwise_and", "(float)(cast_i32(a[i]) & cast_i32(b[i]))", true},
	graph.KindBitwiseOr:    {"op_bitwise_or", "(float)(cast_i32(a[i]) | cast_i32(b[i]))", true},
	graph.KindBitwiseXor:   {"op_bitwise_xor", "(float)(cast_i32(a[i]) ^ cast_i32(b[i]))", true},
}

// helperBlock is emitted once, before any kernel that needs it. cast_i32 /
// cast_i64 saturate and truncate toward zero with NaN mapping to 0, the
// documented cast policy; shift_count clamps into [0, 31].
var helperBlock = []string{
	"static int cast_i32(float v) {",
	"  if (v != v) return 0;",
	"  if (v >= 2147483647.0f) return 2147483647;",
	"  if (v <= -2147483648.0f) return (-2147483647 - 1);",
	"  return (int)v;",
	"}",
	"",
	"static long long cast_i64(float v) {",
	"  if (v != v) return 0;",
	"  if (v >= 9223372036854775807.0f) return 9223372036854775807LL;",
	"  if (v <= -9223372036854775808.0f) return (-9223372036854775807LL - 1);",
	"  return (long long)v;",
	"}",
	"",
	"static int shift_count(float v) {",
	"  int s = cast_i32(v);",
	"  if (s < 0) s = 0;",
	"  if (s > 31) s = 31;",
	"  return s;",
	"}",
}

// table holds the fixed entries for every non-elementwise mapped kind.
var table = map[graph.Kind]*opEntry{
	graph.KindLeakyRelu: attrUnaryEntry("op_leaky_relu",
		"x[i] >= 0.0f ? x[i] : negative_slope * x[i]", p("negative_slope", "float")),
	graph.KindElu: attrUnaryEntry("op_elu",
		"x[i] > 0.0f ? x[i] : alpha * expm1f(x[i])", p("alpha", "float")),
	graph.KindCelu: attrUnaryEntry("op_celu",
		"fmaxf(x[i], 0.0f) + fminf(alpha * expm1f(x[i] / alpha), 0.0f)", p("alpha", "float")),
	graph.KindHardTanh: attrUnaryEntry("op_hardtanh",
		"fminf(fmaxf(x[i], min_val), max_val)", p("min_val", "float"), p("max_val", "float")),
	graph.KindHardShrink: attrUnaryEntry("op_hardshrink",
		"(x[i] > lambd || x[i] < -lambd) ? x[i] : 0.0f", p("lambd", "float")),
	graph.KindSoftShrink: attrUnaryEntry("op_softshrink",
		"x[i] > lambd ? x[i] - lambd : (x[i] < -lambd ? x[i] + lambd : 0.0f)", p("lambd", "float")),
	graph.KindClip: attrUnaryEntry("op_clip",
		"fminf(fmaxf(x[i], min_val), max_val)", p("min_val", "float"), p("max_val", "float")),

	graph.KindPrelu: {
		cname:  "op_prelu",
		params: []cparam{p("x", "const float*"), p("alpha", "const float*"), p("y", "float*"), p("size", "int")},
		body: []string{
			"for (int i = 0; i < size; i++) {",
			"  y[i] = x[i] >= 0.0f ? x[i] : alpha[i] * x[i];",
			"}",
		},
	},
	graph.KindWhere: {
		cname: "op_where",
		params: []cparam{
			p("cond", "const float*"), p("x", "const float*"), p("y", "const float*"),
			p("out", "float*"), p("size", "int"),
		},
		body: []string{
			"for (int i = 0; i < size; i++) {",
			"  out[i] = cond[i] != 0.0f ? x[i] : y[i];",
			"}",
		},
	},

	graph.KindSoftmax: reduceEntry("op_softmax",
		"float max_v = x[0];",
		"for (int i = 1; i < size; i++) {",
		"  if (x[i] > max_v) max_v = x[i];",
		"}",
		"double sum = 0.0;",
		"for (int i = 0; i < size; i++) {",
		"  y[i] = expf(x[i] - max_v);",
		"  sum += (double)y[i];",
		"}",
		"for (int i = 0; i < size; i++) {",
		"  y[i] = (float)((double)y[i] / sum);",
		"}",
	),
	graph.KindSoftmin: reduceEntry("op_softmin",
		"float min_v = x[0];",
		"for (int i = 1; i < size; i++) {",
		"  if (x[i] < min_v) min_v = x[i];",
		"}",
		"double sum = 0.0;",
		"for (int i = 0; i < size; i++) {",
		"  y[i] = expf(min_v - x[i]);",
		"  sum += (double)y[i];",
		"}",
		"for (int i = 0; i < size; i++) {",
		"  y[i] = (float)((double)y[i] / sum);",
		"}",
	),
	graph.KindLogSoftmax: reduceEntry("op_logsoftmax",
		"float max_v = x[0];",
		"for (int i = 1; i < size; i++) {",
		"  if (x[i] > max_v) max_v = x[i];",
		"}",
		"double sum = 0.0;",
		"for (int i = 0; i < size; i++) {",
		"  sum += exp((double)(x[i] - max_v));",
		"}",
		"float log_sum = (float)log(sum);",
		"for (int i = 0; i < size; i++) {",
		"  y[i] = x[i] - max_v - log_sum;",
		"}",
	),
	graph.KindGlu: {
		cname: "op_glu",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("outer", "int"), p("half", "int"), p("inner", "int"),
		},
		body: []string{
			"for (int o = 0; o < outer; o++) {",
			"  for (int h = 0; h < half; h++) {",
			"    for (int i = 0; i < inner; i++) {",
			"      float a = x[(o * 2 * half + h) * inner + i];",
			"      float g = x[(o * 2 * half + half + h) * inner + i];",
			"      y[(o * half + h) * inner + i] = a * (1.0f / (1.0f + expf(-g)));",
			"    }",
			"  }",
			"}",
		},
	},

	graph.KindReduceSum: reduceEntry("op_sum",
		"double acc = 0.0;",
		"for (int i = 0; i < size; i++) {",
		"  acc += (double)x[i];",
		"}",
		"y[0] = (float)acc;",
	),
	graph.KindReduceMean: reduceEntry("op_mean",
		"double acc = 0.0;",
		"for (int i = 0; i < size; i++) {",
		"  acc += (double)x[i];",
		"}",
		"y[0] = (float)(acc / (double)size);",
	),
	graph.KindReduceMin: reduceEntry("op_reducemin",
		"float m = x[0];",
		"for (int i = 1; i < size; i++) {",
		"  if (x[i] < m) m = x[i];",
		"}",
		"y[0] = m;",
	),
	graph.KindReduceMax: reduceEntry("op_reducemax",
		"float m = x[0];",
		"for (int i = 1; i < size; i++) {",
		"  if (x[i] > m) m = x[i];",
		"}",
		"y[0] = m;",
	),
	graph.KindReduceProd: reduceEntry("op_reduceprod",
		"float acc = 1.0f;",
		"for (int i = 0; i < size; i++) {",
		"  acc *= x[i];",
		"}",
		"y[0] = acc;",
	),
	graph.KindReduceL1: reduceEntry("op_reducel1",
		"double acc = 0.0;",
		"for (int i = 0; i < size; i++) {",
		"  acc += fabs((double)x[i]);",
		"}",
		"y[0] = (float)acc;",
	),
	graph.KindReduceL2: reduceEntry("op_reducel2",
		"double acc = 0.0;",
		"for (int i = 0; i < size; i++) {",
		"  acc += (double)x[i] * (double)x[i];",
		"}",
		"y[0] = (float)sqrt(acc);",
	),
	graph.KindArgMin: reduceEntry("op_argmin",
		"int idx = 0;",
		"for (int i = 1; i < size; i++) {",
		"  if (x[i] < x[idx]) idx = i;",
		"}",
		"y[0] = (float)idx;",
	),
	graph.KindArgMax: reduceEntry("op_argmax",
		"int idx = 0;",
		"for (int i = 1; i < size; i++) {",
		"  if (x[i] > x[idx]) idx = i;",
		"}",
		"y[0] = (float)idx;",
	),

	graph.KindMatMul: {
		cname: "op_matmul",
		params: []cparam{
			p("a", "const float*"), p("b", "const float*"), p("c", "float*"),
			p("m", "int"), p("k", "int"), p("n", "int"),
		},
		body: []string{
			"for (int i = 0; i < m; i++) {",
			"  for (int j = 0; j < n; j++) {",
			"    double acc = 0.0;",
			"    for (int q = 0; q < k; q++) {",
			"      acc += (double)a[i * k + q] * (double)b[q * n + j];",
			"    }",
			"    c[i * n + j] = (float)acc;",
			"  }",
			"}",
		},
	},
	graph.KindTranspose: {
		cname: "op_transpose",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("shape", "const int*"), p("perm", "const int*"), p("ndims", "int"),
		},
		body: []string{
			"int in_strides[8];",
			"int out_shape[8];",
			"int out_strides[8];",
			"in_strides[ndims - 1] = 1;",
			"for (int d = ndims - 2; d >= 0; d--) {",
			"  in_strides[d] = in_strides[d + 1] * shape[d + 1];",
			"}",
			"for (int d = 0; d < ndims; d++) {",
			"  out_shape[d] = shape[perm[d]];",
			"}",
			"out_strides[ndims - 1] = 1;",
			"for (int d = ndims - 2; d >= 0; d--) {",
			"  out_strides[d] = out_strides[d + 1] * out_shape[d + 1];",
			"}",
			"int size = 1;",
			"for (int d = 0; d < ndims; d++) {",
			"  size *= shape[d];",
			"}",
			"for (int idx = 0; idx < size; idx++) {",
			"  int coords[8];",
			"  int rem = idx;",
			"  for (int d = 0; d < ndims; d++) {",
			"    coords[d] = rem / in_strides[d];",
			"    rem %= in_strides[d];",
			"  }",
			"  int out_idx = 0;",
			"  for (int d = 0; d < ndims; d++) {",
			"    out_idx += coords[perm[d]] * out_strides[d];",
			"  }",
			"  y[out_idx] = x[idx];",
			"}",
		},
	},
	graph.KindTriu: {
		cname:  "op_triu",
		params: []cparam{p("x", "const float*"), p("y", "float*"), p("rows", "int"), p("cols", "int")},
		body: []string{
			"for (int r = 0; r < rows; r++) {",
			"  for (int c = 0; c < cols; c++) {",
			"    y[r * cols + c] = c >= r ? x[r * cols + c] : 0.0f;",
			"  }",
			"}",
		},
	},
	graph.KindTril: {
		cname:  "op_tril",
		params: []cparam{p("x", "const float*"), p("y", "float*"), p("rows", "int"), p("cols", "int")},
		body: []string{
			"for (int r = 0; r < rows; r++) {",
			"  for (int c = 0; c < cols; c++) {",
			"    y[r * cols + c] = c <= r ? x[r * cols + c] : 0.0f;",
			"  }",
			"}",
		},
	},

	graph.KindConv1D: {
		cname: "op_conv1d",
		params: []cparam{
			p("x", "const float*"), p("w", "const float*"), p("bias", "const float*"), p("y", "float*"),
			p("batch", "int"), p("in_c", "int"), p("out_c", "int"), p("in_len", "int"),
			p("kernel", "int"), p("stride", "int"), p("padding", "int"),
		},
		body: []string{
			"int out_len = (in_len + 2 * padding - kernel) / stride + 1;",
			"for (int b = 0; b < batch; b++) {",
			"  for (int oc = 0; oc < out_c; oc++) {",
			"    for (int op = 0; op < out_len; op++) {",
			"      double acc = 0.0;",
			"      for (int ic = 0; ic < in_c; ic++) {",
			"        for (int k = 0; k < kernel; k++) {",
			"          int ip = op * stride + k - padding;",
			"          if (ip < 0 || ip >= in_len) continue;",
			"          acc += (double)x[(b * in_c + ic) * in_len + ip] * (double)w[(oc * in_c + ic) * kernel + k];",
			"        }",
			"      }",
			"      if (bias) acc += (double)bias[oc];",
			"      y[(b * out_c + oc) * out_len + op] = (float)acc;",
			"    }",
			"  }",
			"}",
		},
	},
	graph.KindConv2D: {
		cname: "op_conv2d",
		params: []cparam{
			p("x", "const float*"), p("w", "const float*"), p("bias", "const float*"), p("y", "float*"),
			p("batch", "int"), p("in_c", "int"), p("out_c", "int"), p("in_h", "int"), p("in_w", "int"),
			p("kernel_h", "int"), p("kernel_w", "int"), p("stride_h", "int"), p("stride_w", "int"),
			p("pad_h", "int"), p("pad_w", "int"),
		},
		body: []string{
			"int out_h = (in_h + 2 * pad_h - kernel_h) / stride_h + 1;",
			"int out_w = (in_w + 2 * pad_w - kernel_w) / stride_w + 1;",
			"for (int b = 0; b < batch; b++) {",
			"  for (int oc = 0; oc < out_c; oc++) {",
			"    for (int oh = 0; oh < out_h; oh++) {",
			"      for (int ow = 0; ow < out_w; ow++) {",
			"        double acc = 0.0;",
			"        for (int ic = 0; ic < in_c; ic++) {",
			"          for (int r = 0; r < kernel_h; r++) {",
			"            int ih = oh * stride_h + r - pad_h;",
			"            if (ih < 0 || ih >= in_h) continue;",
			"            for (int cc = 0; cc < kernel_w; cc++) {",
			"              int iw = ow * stride_w + cc - pad_w;",
			"              if (iw < 0 || iw >= in_w) continue;",
			"              acc += (double)x[((b * in_c + ic) * in_h + ih) * in_w + iw] * (double)w[((oc * in_c + ic) * kernel_h + r) * kernel_w + cc];",
			"            }",
			"          }",
			"        }",
			"        if (bias) acc += (double)bias[oc];",
			"        y[((b * out_c + oc) * out_h + oh) * out_w + ow] = (float)acc;",
			"      }",
			"    }",
			"  }",
			"}",
		},
	},
	graph.KindMaxPool2D: {
		cname: "op_maxpool2d",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("batch", "int"), p("channels", "int"), p("in_h", "int"), p("in_w", "int"),
			p("kernel_h", "int"), p("kernel_w", "int"), p("stride_h", "int"), p("stride_w", "int"),
			p("pad_h", "int"), p("pad_w", "int"),
		},
		body: []string{
			"int out_h = (in_h + 2 * pad_h - kernel_h) / stride_h + 1;",
			"int out_w = (in_w + 2 * pad_w - kernel_w) / stride_w + 1;",
			"for (int b = 0; b < batch; b++) {",
			"  for (int c = 0; c < channels; c++) {",
			"    for (int oh = 0; oh < out_h; oh++) {",
			"      for (int ow = 0; ow < out_w; ow++) {",
			"        float best = -INFINITY;",
			"        for (int r = 0; r < kernel_h; r++) {",
			"          int ih = oh * stride_h + r - pad_h;",
			"          if (ih < 0 || ih >= in_h) continue;",
			"          for (int cc = 0; cc < kernel_w; cc++) {",
			"            int iw = ow * stride_w + cc - pad_w;",
			"            if (iw < 0 || iw >= in_w) continue;",
			"            float v = x[((b * channels + c) * in_h + ih) * in_w + iw];",
			"            if (v > best) best = v;",
			"          }",
			"        }",
			"        y[((b * channels + c) * out_h + oh) * out_w + ow] = best;",
			"      }",
			"    }",
			"  }",
			"}",
		},
	},
	graph.KindAvgPool2D: {
		cname: "op_avgpool2d",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("batch", "int"), p("channels", "int"), p("in_h", "int"), p("in_w", "int"),
			p("kernel_h", "int"), p("kernel_w", "int"), p("stride_h", "int"), p("stride_w", "int"),
			p("pad_h", "int"), p("pad_w", "int"),
		},
		body: []string{
			"int out_h = (in_h + 2 * pad_h - kernel_h) / stride_h + 1;",
			"int out_w = (in_w + 2 * pad_w - kernel_w) / stride_w + 1;",
			"double window = (double)(kernel_h * kernel_w);",
			"for (int b = 0; b < batch; b++) {",
			"  for (int c = 0; c < channels; c++) {",
			"    for (int oh = 0; oh < out_h; oh++) {",
			"      for (int ow = 0; ow < out_w; ow++) {",
			"        double acc = 0.0;",
			"        for (int r = 0; r < kernel_h; r++) {",
			"          int ih = oh * stride_h + r - pad_h;",
			"          if (ih < 0 || ih >= in_h) continue;",
			"          for (int cc = 0; cc < kernel_w; cc++) {",
			"            int iw = ow * stride_w + cc - pad_w;",
			"            if (iw < 0 || iw >= in_w) continue;",
			"            acc += (double)x[((b * channels + c) * in_h + ih) * in_w + iw];",
			"          }",
			"        }",
			"        y[((b * channels + c) * out_h + oh) * out_w + ow] = (float)(acc / window);",
			"      }",
			"    }",
			"  }",
			"}",
		},
	},
	graph.KindBatchNorm2D: {
		cname: "op_batchnorm2d",
		params: []cparam{
			p("x", "const float*"), p("gamma", "const float*"), p("beta", "const float*"),
			p("mean", "const float*"), p("variance", "const float*"), p("y", "float*"),
			p("batch", "int"), p("channels", "int"), p("spatial", "int"), p("eps", "float"),
		},
		body: []string{
			"for (int b = 0; b < batch; b++) {",
			"  for (int c = 0; c < channels; c++) {",
			"    float scale = 1.0f / sqrtf(variance[c] + eps);",
			"    int base = (b * channels + c) * spatial;",
			"    for (int s = 0; s < spatial; s++) {",
			"      y[base + s] = gamma[c] * (x[base + s] - mean[c]) * scale + beta[c];",
			"    }",
			"  }",
			"}",
		},
	},

	graph.KindConstant: {
		cname:  "op_constant",
		params: []cparam{p("y", "float*"), p("size", "int"), p("value", "float")},
		body: []string{
			"for (int i = 0; i < size; i++) {",
			"  y[i] = value;",
			"}",
		},
	},
	graph.KindReshape: {
		cname:  "op_reshape",
		params: []cparam{p("x", "const float*"), p("y", "float*"), p("size", "int")},
		body:   []string{"memcpy(y, x, (size_t)size * sizeof(float));"},
	},
	graph.KindSqueeze: {
		cname:  "op_squeeze",
		params: []cparam{p("x", "const float*"), p("y", "float*"), p("size", "int")},
		body:   []string{"memcpy(y, x, (size_t)size * sizeof(float));"},
	},
	graph.KindUnsqueeze: {
		cname:  "op_unsqueeze",
		params: []cparam{p("x", "const float*"), p("y", "float*"), p("size", "int")},
		body:   []string{"memcpy(y, x, (size_t)size * sizeof(float));"},
	},
	graph.KindExpand: {
		cname: "op_expand",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("out_shape", "const int*"), p("in_strides", "const int*"),
			p("ndims", "int"), p("out_size", "int"),
		},
		body: []string{
			"int out_strides[8];",
			"out_strides[ndims - 1] = 1;",
			"for (int d = ndims - 2; d >= 0; d--) {",
			"  out_strides[d] = out_strides[d + 1] * out_shape[d + 1];",
			"}",
			"for (int i = 0; i < out_size; i++) {",
			"  int rem = i;",
			"  int src = 0;",
			"  for (int d = 0; d < ndims; d++) {",
			"    int coord = rem / out_strides[d];",
			"    rem %= out_strides[d];",
			"    src += coord * in_strides[d];",
			"  }",
			"  y[i] = x[src];",
			"}",
		},
	},
	graph.KindSlice: {
		cname: "op_slice",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("in_shape", "const int*"), p("out_shape", "const int*"), p("start", "const int*"),
			p("ndims", "int"), p("out_size", "int"),
		},
		body: []string{
			"int in_strides[8];",
			"int out_strides[8];",
			"in_strides[ndims - 1] = 1;",
			"out_strides[ndims - 1] = 1;",
			"for (int d = ndims - 2; d >= 0; d--) {",
			"  in_strides[d] = in_strides[d + 1] * in_shape[d + 1];",
			"  out_strides[d] = out_strides[d + 1] * out_shape[d + 1];",
			"}",
			"for (int i = 0; i < out_size; i++) {",
			"  int rem = i;",
			"  int src = 0;",
			"  for (int d = 0; d < ndims; d++) {",
			"    int coord = rem / out_strides[d];",
			"    rem %= out_strides[d];",
			"    src += (coord + start[d]) * in_strides[d];",
			"  }",
			"  y[i] = x[src];",
			"}",
		},
	},
	kindConcatPart: {
		cname: "op_concat_part",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("outer", "int"), p("copy_len", "int"), p("out_stride", "int"), p("offset", "int"),
		},
		body: []string{
			"for (int o = 0; o < outer; o++) {",
			"  memcpy(y + o * out_stride + offset, x + o * copy_len, (size_t)copy_len * sizeof(float));",
			"}",
		},
	},

	graph.KindConstantPad: {
		cname: "op_const_pad",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("rows", "int"), p("in_len", "int"), p("before", "int"), p("after", "int"), p("value", "float"),
		},
		body: []string{
			"int out_len = before + in_len + after;",
			"for (int r = 0; r < rows; r++) {",
			"  for (int i = 0; i < out_len; i++) {",
			"    int s = i - before;",
			"    y[r * out_len + i] = (s < 0 || s >= in_len) ? value : x[r * in_len + s];",
			"  }",
			"}",
		},
	},
	graph.KindReflectPad: {
		cname: "op_reflect_pad",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("rows", "int"), p("in_len", "int"), p("before", "int"), p("after", "int"),
		},
		body: []string{
			"int out_len = before + in_len + after;",
			"for (int r = 0; r < rows; r++) {",
			"  for (int i = 0; i < out_len; i++) {",
			"    int s = i - before;",
			"    if (s < 0) s = -s;",
			"    if (s >= in_len) s = 2 * (in_len - 1) - s;",
			"    y[r * out_len + i] = x[r * in_len + s];",
			"  }",
			"}",
		},
	},
	graph.KindReplicatePad: {
		cname: "op_replicate_pad",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("rows", "int"), p("in_len", "int"), p("before", "int"), p("after", "int"),
		},
		body: []string{
			"int out_len = before + in_len + after;",
			"for (int r = 0; r < rows; r++) {",
			"  for (int i = 0; i < out_len; i++) {",
			"    int s = i - before;",
			"    if (s < 0) s = 0;",
			"    if (s >= in_len) s = in_len - 1;",
			"    y[r * out_len + i] = x[r * in_len + s];",
			"  }",
			"}",
		},
	},

	graph.KindNearestInterp: {
		cname: "op_nearest_interp",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("planes", "int"), p("in_len", "int"), p("out_len", "int"),
		},
		body: []string{
			"for (int pl = 0; pl < planes; pl++) {",
			"  for (int i = 0; i < out_len; i++) {",
			"    int s = i * in_len / out_len;",
			"    if (s > in_len - 1) s = in_len - 1;",
			"    y[pl * out_len + i] = x[pl * in_len + s];",
			"  }",
			"}",
		},
	},
	graph.KindLinearInterp: {
		cname: "op_linear_interp",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("planes", "int"), p("in_len", "int"), p("out_len", "int"),
		},
		body: []string{
			"double scale = (double)in_len / (double)out_len;",
			"for (int pl = 0; pl < planes; pl++) {",
			"  for (int i = 0; i < out_len; i++) {",
			"    double pos = ((double)i + 0.5) * scale - 0.5;",
			"    if (pos < 0.0) pos = 0.0;",
			"    int lo = (int)pos;",
			"    if (lo > in_len - 1) lo = in_len - 1;",
			"    int hi = lo + 1;",
			"    if (hi > in_len - 1) hi = in_len - 1;",
			"    double w = pos - (double)lo;",
			"    y[pl * out_len + i] = (float)((1.0 - w) * (double)x[pl * in_len + lo] + w * (double)x[pl * in_len + hi]);",
			"  }",
			"}",
		},
	},
	graph.KindBilinearInterp: {
		cname: "op_bilinear_interp",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("planes", "int"), p("in_h", "int"), p("in_w", "int"), p("out_h", "int"), p("out_w", "int"),
		},
		body: []string{
			"double scale_h = (double)in_h / (double)out_h;",
			"double scale_w = (double)in_w / (double)out_w;",
			"for (int pl = 0; pl < planes; pl++) {",
			"  const float* src = x + pl * in_h * in_w;",
			"  float* dst = y + pl * out_h * out_w;",
			"  for (int oy = 0; oy < out_h; oy++) {",
			"    double py = ((double)oy + 0.5) * scale_h - 0.5;",
			"    if (py < 0.0) py = 0.0;",
			"    int y0 = (int)py;",
			"    if (y0 > in_h - 1) y0 = in_h - 1;",
			"    int y1 = y0 + 1 > in_h - 1 ? in_h - 1 : y0 + 1;",
			"    double wy = py - (double)y0;",
			"    for (int ox = 0; ox < out_w; ox++) {",
			"      double px = ((double)ox + 0.5) * scale_w - 0.5;",
			"      if (px < 0.0) px = 0.0;",
			"      int x0 = (int)px;",
			"      if (x0 > in_w - 1) x0 = in_w - 1;",
			"      int x1 = x0 + 1 > in_w - 1 ? in_w - 1 : x0 + 1;",
			"      double wx = px - (double)x0;",
			"      double top = (1.0 - wx) * (double)src[y0 * in_w + x0] + wx * (double)src[y0 * in_w + x1];",
			"      double bot = (1.0 - wx) * (double)src[y1 * in_w + x0] + wx * (double)src[y1 * in_w + x1];",
			"      dst[oy * out_w + ox] = (float)((1.0 - wy) * top + wy * bot);",
			"    }",
			"  }",
			"}",
		},
	},
	graph.KindBicubicInterp: {
		cname: "op_bicubic_interp",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("planes", "int"), p("in_h", "int"), p("in_w", "int"), p("out_h", "int"), p("out_w", "int"),
		},
		body: []string{
			"double scale_h = (double)in_h / (double)out_h;",
			"double scale_w = (double)in_w / (double)out_w;",
			"for (int pl = 0; pl < planes; pl++) {",
			"  const float* src = x + pl * in_h * in_w;",
			"  float* dst = y + pl * out_h * out_w;",
			"  for (int oy = 0; oy < out_h; oy++) {",
			"    double fy = ((double)oy + 0.5) * scale_h - 0.5;",
			"    int iy = (int)floor(fy);",
			"    double ty = fy - (double)iy;",
			"    for (int ox = 0; ox < out_w; ox++) {",
			"      double fx = ((double)ox + 0.5) * scale_w - 0.5;",
			"      int ix = (int)floor(fx);",
			"      double tx = fx - (double)ix;",
			"      double acc = 0.0;",
			"      for (int m = -1; m <= 2; m++) {",
			"        double wy = cubic_weight((double)m - ty);",
			"        int sy = iy + m;",
			"        if (sy < 0) sy = 0;",
			"        if (sy > in_h - 1) sy = in_h - 1;",
			"        for (int n = -1; n <= 2; n++) {",
			"          double wx = cubic_weight((double)n - tx);",
			"          int sx = ix + n;",
			"          if (sx < 0) sx = 0;",
			"          if (sx > in_w - 1) sx = in_w - 1;",
			"          acc += wy * wx * (double)src[sy * in_w + sx];",
			"        }",
			"      }",
			"      dst[oy * out_w + ox] = (float)acc;",
			"    }",
			"  }",
			"}",
		},
	},
	graph.KindTrilinearInterp: {
		cname: "op_trilinear_interp",
		params: []cparam{
			p("x", "const float*"), p("y", "float*"),
			p("planes", "int"), p("in_d", "int"), p("in_h", "int"), p("in_w", "int"),
			p("out_d", "int"), p("out_h", "int"), p("out_w", "int"),
		},
		body: []string{
			"double scale_d = (double)in_d / (double)out_d;",
			"double scale_h = (double)in_h / (double)out_h;",
			"double scale_w = (double)in_w / (double)out_w;",
			"for (int pl = 0; pl < planes; pl++) {",
			"  const float* src = x + pl * in_d * in_h * in_w;",
			"  float* dst = y + pl * out_d * out_h * out_w;",
			"  for (int oz = 0; oz < out_d; oz++) {",
			"    double pz = ((double)oz + 0.5) * scale_d - 0.5;",
			"    if (pz < 0.0) pz = 0.0;",
			"    int z0 = (int)pz;",
			"    if (z0 > in_d - 1) z0 = in_d - 1;",
			"    int z1 = z0 + 1 > in_d - 1 ? in_d - 1 : z0 + 1;",
			"    double wz = pz - (double)z0;",
			"    for (int oy = 0; oy < out_h; oy++) {",
			"      double py = ((double)oy + 0.5) * scale_h - 0.5;",
			"      if (py < 0.0) py = 0.0;",
			"      int y0 = (int)py;",
			"      if (y0 > in_h - 1) y0 = in_h - 1;",
			"      int y1 = y0 + 1 > in_h - 1 ? in_h - 1 : y0 + 1;",
			"      double wy = py - (double)y0;",
			"      for (int ox = 0; ox < out_w; ox++) {",
			"        double px = ((double)ox + 0.5) * scale_w - 0.5;",
			"        if (px < 0.0) px = 0.0;",
			"        int x0 = (int)px;",
			"        if (x0 > in_w - 1) x0 = in_w - 1;",
			"        int x1 = x0 + 1 > in_w - 1 ? in_w - 1 : x0 + 1;",
			"        double wx = px - (double)x0;",
			"        double v000 = (double)src[(z0 * in_h + y0) * in_w + x0];",
			"        double v001 = (double)src[(z0 * in_h + y0) * in_w + x1];",
			"        double v010 = (double)src[(z0 * in_h + y1) * in_w + x0];",
			"        double v011 = (double)src[(z0 * in_h + y1) * in_w + x1];",
			"        double v100 = (double)src[(z1 * in_h + y0) * in_w + x0];",
			"        double v101 = (double)src[(z1 * in_h + y0) * in_w + x1];",
			"        double v110 = (double)src[(z1 * in_h + y1) * in_w + x0];",
			"        double v111 = (double)src[(z1 * in_h + y1) * in_w + x1];",
			"        double lo = (1.0 - wy) * ((1.0 - wx) * v000 + wx * v001) + wy * ((1.0 - wx) * v010 + wx * v011);",
			"        double hi = (1.0 - wy) * ((1.0 - wx) * v100 + wx * v101) + wy * ((1.0 - wx) * v110 + wx * v111);",
			"        dst[(oz * out_h + oy) * out_w + ox] = (float)((1.0 - wz) * lo + wz * hi);",
			"      }",
			"    }",
			"  }",
			"}",
		},
	},

	kindFallbackCopy: {
		cname:  "op_identity",
		params: []cparam{p("x", "const float*"), p("y", "float*"), p("size", "int")},
		body:   []string{"memcpy(y, x, (size_t)size * sizeof(float));"},
	},
}

// Pseudo-kinds for table entries that do not correspond to one graph kind.
const (
	kindConcatPart   graph.Kind = 0xF001
	kindFallbackCopy graph.Kind = 0xF002
)

// maxRank bounds tensor rank across the emitted library: the strided
// kernels (op_transpose, op_expand, op_slice) index through fixed
// int[maxRank] stack arrays.
const maxRank = 8

// axisReduceEntries are selected instead of the scalar reductions when the
// node carries an axis attribute.
var axisReduceEntries = map[graph.Kind]*opEntry{
	graph.KindReduceSum:  reduceAxisEntry("op_sum_axis", "0.0", "acc += v;", "(float)acc"),
	graph.KindReduceMean: reduceAxisEntry("op_mean_axis", "0.0", "acc += v;", "(float)(acc / (double)axis_size)"),
	graph.KindReduceMin:  reduceAxisEntry("op_reducemin_axis", "(double)x[o * axis_size * inner + in]", "if (v < acc) acc = v;", "(float)acc"),
	graph.KindReduceMax:  reduceAxisEntry("op_reducemax_axis", "(double)x[o * axis_size * inner + in]", "if (v > acc) acc = v;", "(float)acc"),
	graph.KindReduceProd: reduceAxisEntry("op_reduceprod_axis", "1.0", "acc *= v;", "(float)acc"),
	graph.KindReduceL1:   reduceAxisEntry("op_reducel1_axis", "0.0", "acc += fabs(v);", "(float)acc"),
	graph.KindReduceL2:   reduceAxisEntry("op_reducel2_axis", "0.0", "acc += v * v;", "(float)sqrt(acc)"),
}

// bicubicHelper is emitted once before op_bicubic_interp: the Keys cubic
// convolution kernel with a = -0.75.
var bicubicHelper = []string{
	"static double cubic_weight(double d) {",
	"  const double a = -0.75;",
	"  if (d < 0.0) d = -d;",
	"  if (d <= 1.0) return (a + 2.0) * d * d * d - (a + 3.0) * d * d + 1.0;",
	"  if (d < 2.0) return a * d * d * d - 5.0 * a * d * d + 8.0 * a * d - 4.0 * a;",
	"  return 0.0;",
	"}",
}

// entryFor resolves the table entry for a node, materializing elementwise
// entries lazily from the expression maps. ok is false for kinds with no
// runtime-library mapping.
func entryFor(n *graph.Node) (*opEntry, bool) {
	if e, ok := unaryExprs[n.Kind]; ok {
		ent := unaryEntry(e.cname, e.expr, e.helpers)
		return ent, true
	}
	if e, ok := binaryExprs[n.Kind]; ok {
		ent := binaryEntry(e.cname, e.expr, e.helpers)
		return ent, true
	}
	if n.Kind.IsReduction() && n.HasAttr("axis") {
		if ent, ok := axisReduceEntries[n.Kind]; ok {
			return ent, true
		}
	}
	// Concat lowers to one strided-copy call per input, all against the
	// same part kernel.
	if n.Kind == graph.KindConcat {
		return table[kindConcatPart], true
	}
	if ent, ok := table[n.Kind]; ok {
		return ent, true
	}
	return nil, false
}

func init() {
	// The two expression maps and the table must stay disjoint; a kind in
	// both would make the emitted library define one kernel twice.
	for k := range unaryExprs {
		if _, dup := table[k]; dup {
			panic(fmt.Sprintf("operator table: %s registered twice", k))
		}
	}
	for k := range binaryExprs {
		if _, dup := table[k]; dup {
			panic(fmt.Sprintf("operator table: %s registered twice", k))
		}
	}
}
