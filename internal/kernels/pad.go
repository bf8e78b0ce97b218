package kernels

// Padding kernels operate on the flattened last dimension: the buffer is a
// run of `rows` segments of length inLen, each padded to before+inLen+after.
// This matches how the synthesis engine emits 1-D pads over the trailing
// dimension; higher-rank pads arrive as successive transposed pads.

// ConstantPad pads each segment with value.
func ConstantPad(x, out []float32, rows, inLen, before, after int, value float32) {
	outLen := before + inLen + after
	for r := 0; r < rows; r++ {
		dst := out[r*outLen : (r+1)*outLen]
		src := x[r*inLen : (r+1)*inLen]
		for i := 0; i < before; i++ {
			dst[i] = value
		}
		copy(dst[before:before+inLen], src)
		for i := before + inLen; i < outLen; i++ {
			dst[i] = value
		}
	}
}

// ReflectPad mirrors without repeating the edge element: for input
// [a b c d], before=2 gives [c b | a b c d | c b]. before and after must be
// < inLen; shape inference rejects anything larger.
func ReflectPad(x, out []float32, rows, inLen, before, after int) {
	outLen := before + inLen + after
	for r := 0; r < rows; r++ {
		dst := out[r*outLen : (r+1)*outLen]
		src := x[r*inLen : (r+1)*inLen]
		for i := 0; i < outLen; i++ {
			p := i - before
			if p < 0 {
				p = -p
			}
			if p >= inLen {
				p = 2*(inLen-1) - p
			}
			dst[i] = src[p]
		}
	}
}

// ReplicatePad repeats the edge element.
func ReplicatePad(x, out []float32, rows, inLen, before, after int) {
	outLen := before + inLen + after
	for r := 0; r < rows; r++ {
		dst := out[r*outLen : (r+1)*outLen]
		src := x[r*inLen : (r+1)*inLen]
		for i := 0; i < outLen; i++ {
			p := i - before
			if p < 0 {
				p = 0
			}
			if p >= inLen {
				p = inLen - 1
			}
			dst[i] = src[p]
		}
	}
}
