package kernels

import "math"

// Reduction kernels fold the whole buffer to a scalar, or fold one axis when
// the caller supplies the outer/axis/inner split. For an input of shape
// [d0..dk], reducing axis a means outer = d0*..*d(a-1), axis = da,
// inner = d(a+1)*..*dk; the output keeps the remaining dims in order.

// ReduceSum folds the buffer with +.
func ReduceSum(x []float32) float32 {
	var sum float64
	for _, v := range x {
		sum += float64(v)
	}
	return float32(sum)
}

// ReduceMean computes sum/len.
func ReduceMean(x []float32) float32 {
	return ReduceSum(x) / float32(len(x))
}

// ReduceMin returns the minimum element.
func ReduceMin(x []float32) float32 {
	m := x[0]
	for _, v := range x[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// ReduceMax returns the maximum element.
func ReduceMax(x []float32) float32 {
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// ReduceProd folds the buffer with *.
func ReduceProd(x []float32) float32 {
	p := float32(1)
	for _, v := range x {
		p *= v
	}
	return p
}

// ReduceL1 computes sum(|x|).
func ReduceL1(x []float32) float32 {
	var sum float64
	for _, v := range x {
		sum += math.Abs(float64(v))
	}
	return float32(sum)
}

// ReduceL2 computes sqrt(sum(x^2)).
func ReduceL2(x []float32) float32 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}

// ArgMin returns the index of the first minimum element.
func ArgMin(x []float32) int {
	idx := 0
	for i := 1; i < len(x); i++ {
		if x[i] < x[idx] {
			idx = i
		}
	}
	return idx
}

// ArgMax returns the index of the first maximum element.
func ArgMax(x []float32) int {
	idx := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[idx] {
			idx = i
		}
	}
	return idx
}

// reduceAxis applies fold over the axis dimension for every (outer, inner)
// pair. init seeds the fold; when useFirst is set the first element seeds it
// instead (min/max folds).
func reduceAxis(x, out []float32, outer, axis, inner int, init float64, useFirst bool, fold func(acc float64, v float32) float64) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			acc := init
			base := o*axis*inner + in
			if useFirst {
				acc = float64(x[base])
			}
			start := 0
			if useFirst {
				start = 1
			}
			for a := start; a < axis; a++ {
				acc = fold(acc, x[base+a*inner])
			}
			out[o*inner+in] = float32(acc)
		}
	}
}

// ReduceSumAxis folds one axis with +.
func ReduceSumAxis(x, out []float32, outer, axis, inner int) {
	reduceAxis(x, out, outer, axis, inner, 0, false, func(acc float64, v float32) float64 { return acc + float64(v) })
}

// ReduceMeanAxis folds one axis with + and divides by the axis length.
func ReduceMeanAxis(x, out []float32, outer, axis, inner int) {
	ReduceSumAxis(x, out, outer, axis, inner)
	for i := range out {
		out[i] /= float32(axis)
	}
}

// ReduceMinAxis folds one axis with min.
func ReduceMinAxis(x, out []float32, outer, axis, inner int) {
	reduceAxis(x, out, outer, axis, inner, 0, true, func(acc float64, v float32) float64 {
		if float64(v) < acc {
			return float64(v)
		}
		return acc
	})
}

// ReduceMaxAxis folds one axis with max.
func ReduceMaxAxis(x, out []float32, outer, axis, inner int) {
	reduceAxis(x, out, outer, axis, inner, 0, true, func(acc float64, v float32) float64 {
		if float64(v) > acc {
			return float64(v)
		}
		return acc
	})
}

// ReduceProdAxis folds one axis with *.
func ReduceProdAxis(x, out []float32, outer, axis, inner int) {
	reduceAxis(x, out, outer, axis, inner, 1, false, func(acc float64, v float32) float64 { return acc * float64(v) })
}

// ReduceL1Axis folds one axis with sum of absolutes.
func ReduceL1Axis(x, out []float32, outer, axis, inner int) {
	reduceAxis(x, out, outer, axis, inner, 0, false, func(acc float64, v float32) float64 { return acc + math.Abs(float64(v)) })
}

// ReduceL2Axis folds one axis with sqrt of sum of squares.
func ReduceL2Axis(x, out []float32, outer, axis, inner int) {
	reduceAxis(x, out, outer, axis, inner, 0, false, func(acc float64, v float32) float64 { return acc + float64(v)*float64(v) })
	for i := range out {
		out[i] = float32(math.Sqrt(float64(out[i])))
	}
}
