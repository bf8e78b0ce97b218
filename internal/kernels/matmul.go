package kernels

// MatMul computes C[M,N] = A[M,K] @ B[K,N] with float64 accumulation, the
// same accumulator width the emitted C uses.
func MatMul(a, b, out []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for p := 0; p < k; p++ {
				sum += float64(a[i*k+p]) * float64(b[p*n+j])
			}
			out[i*n+j] = float32(sum)
		}
	}
}

// Transpose permutes dimensions: out[perm-reordered idx] = x[idx]. inShape
// and perm both have ndims entries; len(perm) == len(inShape).
func Transpose(x, out []float32, inShape, perm []int) {
	ndims := len(inShape)
	inStrides := make([]int, ndims)
	if ndims > 0 {
		inStrides[ndims-1] = 1
		for i := ndims - 2; i >= 0; i-- {
			inStrides[i] = inStrides[i+1] * inShape[i+1]
		}
	}

	outShape := make([]int, ndims)
	for i, p := range perm {
		outShape[i] = inShape[p]
	}
	outStrides := make([]int, ndims)
	if ndims > 0 {
		outStrides[ndims-1] = 1
		for i := ndims - 2; i >= 0; i-- {
			outStrides[i] = outStrides[i+1] * outShape[i+1]
		}
	}

	size := 1
	for _, d := range inShape {
		size *= d
	}
	coords := make([]int, ndims)
	for idx := 0; idx < size; idx++ {
		rem := idx
		for d := 0; d < ndims; d++ {
			coords[d] = rem / inStrides[d]
			rem %= inStrides[d]
		}
		outIdx := 0
		for d := 0; d < ndims; d++ {
			outIdx += coords[perm[d]] * outStrides[d]
		}
		out[outIdx] = x[idx]
	}
}

// Triu keeps the upper triangle (including the diagonal) of a rows×cols
// matrix, zeroing the rest.
func Triu(x, out []float32, rows, cols int) {
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c >= r {
				out[r*cols+c] = x[r*cols+c]
			} else {
				out[r*cols+c] = 0
			}
		}
	}
}

// Tril keeps the lower triangle (including the diagonal), zeroing the rest.
func Tril(x, out []float32, rows, cols int) {
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c <= r {
				out[r*cols+c] = x[r*cols+c]
			} else {
				out[r*cols+c] = 0
			}
		}
	}
}
