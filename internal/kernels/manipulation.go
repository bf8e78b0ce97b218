package kernels

// Shape-manipulation kernels never alter element values, only addressing.

// Constant fills the buffer with a value.
func Constant(out []float32, value float32) {
	for i := range out {
		out[i] = value
	}
}

// Reshape is a flat copy: same element count, new shape, identical bytes.
// When the emitter can prove the source buffer is dead afterward it still
// emits the copy; buffer aliasing stays the planner's decision alone.
func Reshape(x, out []float32) {
	copy(out, x)
}

// Squeeze and Unsqueeze are reshapes; the rank change is shape metadata.
func Squeeze(x, out []float32) { copy(out, x) }

// Unsqueeze is the inverse of Squeeze.
func Unsqueeze(x, out []float32) { copy(out, x) }

// Expand broadcasts x to the output shape. outShape and inStrides have ndims
// entries; inStrides carry 0 for broadcast dimensions (see
// tensor.BroadcastStrides).
func Expand(x, out []float32, outShape, inStrides []int) {
	ndims := len(outShape)
	outStrides := make([]int, ndims)
	if ndims > 0 {
		outStrides[ndims-1] = 1
		for i := ndims - 2; i >= 0; i-- {
			outStrides[i] = outStrides[i+1] * outShape[i+1]
		}
	}
	for i := range out {
		rem := i
		src := 0
		for d := 0; d < ndims; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			src += coord * inStrides[d]
		}
		out[i] = x[src]
	}
}

// Slice copies the hyper-rectangle starting at start with the output shape.
// inShape, outShape, start all have ndims entries.
func Slice(x, out []float32, inShape, outShape, start []int) {
	ndims := len(inShape)
	inStrides := make([]int, ndims)
	outStrides := make([]int, ndims)
	if ndims > 0 {
		inStrides[ndims-1] = 1
		outStrides[ndims-1] = 1
		for i := ndims - 2; i >= 0; i-- {
			inStrides[i] = inStrides[i+1] * inShape[i+1]
			outStrides[i] = outStrides[i+1] * outShape[i+1]
		}
	}
	for i := range out {
		rem := i
		src := 0
		for d := 0; d < ndims; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			src += (coord + start[d]) * inStrides[d]
		}
		out[i] = x[src]
	}
}

// Concat concatenates inputs along axis. shapes[i] is the shape of
// inputs[i]; all shapes agree except along axis.
func Concat(inputs [][]float32, out []float32, shapes [][]int, axis int) {
	if len(inputs) == 0 {
		return
	}
	ndims := len(shapes[0])

	// outer = product of dims before axis, inner = product after.
	outer := 1
	for d := 0; d < axis; d++ {
		outer *= shapes[0][d]
	}
	inner := 1
	for d := axis + 1; d < ndims; d++ {
		inner *= shapes[0][d]
	}

	axisTotal := 0
	for _, s := range shapes {
		axisTotal += s[axis]
	}

	offset := 0
	for k, in := range inputs {
		axisLen := shapes[k][axis]
		for o := 0; o < outer; o++ {
			srcBase := o * axisLen * inner
			dstBase := o*axisTotal*inner + offset*inner
			copy(out[dstBase:dstBase+axisLen*inner], in[srcBase:srcBase+axisLen*inner])
		}
		offset += axisLen
	}
}
