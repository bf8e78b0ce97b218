package kernels

// Logical kernels treat any nonzero operand as true and produce 0/1 floats.
// Bitwise kernels truncate operands toward zero to int32 first; shift counts
// clamp to [0, 31] so the behavior stays defined on both sides of the ABI.

// And computes out[i] = (a[i] != 0 && b[i] != 0) ? 1 : 0.
func And(a, b, out []float32) {
	for i := range out {
		out[i] = b2f(a[i] != 0 && b[i] != 0)
	}
}

// Or computes out[i] = (a[i] != 0 || b[i] != 0) ? 1 : 0.
func Or(a, b, out []float32) {
	for i := range out {
		out[i] = b2f(a[i] != 0 || b[i] != 0)
	}
}

// Xor computes out[i] = (a[i] != 0) != (b[i] != 0) ? 1 : 0.
func Xor(a, b, out []float32) {
	for i := range out {
		out[i] = b2f((a[i] != 0) != (b[i] != 0))
	}
}

// Not computes out[i] = x[i] == 0 ? 1 : 0.
func Not(x, out []float32) {
	for i := range out {
		out[i] = b2f(x[i] == 0)
	}
}

// Where selects out[i] = cond[i] != 0 ? x[i] : y[i].
func Where(cond, x, y, out []float32) {
	for i := range out {
		if cond[i] != 0 {
			out[i] = x[i]
		} else {
			out[i] = y[i]
		}
	}
}

// LeftShift computes out[i] = (int32)a[i] << clamp((int32)b[i], 0, 31).
func LeftShift(a, b, out []float32) {
	for i := range out {
		out[i] = float32(i32(a[i]) << shiftCount(b[i]))
	}
}

// RightShift computes out[i] = (int32)a[i] >> clamp((int32)b[i], 0, 31).
func RightShift(a, b, out []float32) {
	for i := range out {
		out[i] = float32(i32(a[i]) >> shiftCount(b[i]))
	}
}

// BitwiseAnd computes out[i] = (int32)a[i] & (int32)b[i].
func BitwiseAnd(a, b, out []float32) {
	for i := range out {
		out[i] = float32(i32(a[i]) & i32(b[i]))
	}
}

// BitwiseOr computes out[i] = (int32)a[i] | (int32)b[i].
func BitwiseOr(a, b, out []float32) {
	for i := range out {
		out[i] = float32(i32(a[i]) | i32(b[i]))
	}
}

// BitwiseXor computes out[i] = (int32)a[i] ^ (int32)b[i].
func BitwiseXor(a, b, out []float32) {
	for i := range out {
		out[i] = float32(i32(a[i]) ^ i32(b[i]))
	}
}

// BitwiseNot computes out[i] = ^(int32)a[i].
func BitwiseNot(a, out []float32) {
	for i := range out {
		out[i] = float32(^i32(a[i]))
	}
}

// i32 truncates toward zero. Values beyond the int32 range saturate, NaN
// becomes 0; see CastI32 for the shared cast policy.
func i32(v float32) int32 {
	return castI32(v)
}

func shiftCount(v float32) int32 {
	s := castI32(v)
	if s < 0 {
		return 0
	}
	if s > 31 {
		return 31
	}
	return s
}
