package kernels

// Convolution kernels address input in NCHW layout. Output spatial size is
// floor((in + 2*pad - kernel) / stride) + 1 per spatial dimension; bias, when
// non-nil, is added once per output channel. Direct loops rather than im2col:
// the generated C mirrors these loops literally, so the reference stays
// line-for-line comparable.

// Conv1D computes a 1-D convolution.
// x: [batch, inC, inSize], w: [outC, inC, kernel], bias: [outC] or nil,
// out: [batch, outC, outSize].
func Conv1D(x, w, bias, out []float32, batch, inC, outC, inSize, kernel, stride, pad int) {
	outSize := (inSize+2*pad-kernel)/stride + 1
	for b := 0; b < batch; b++ {
		for oc := 0; oc < outC; oc++ {
			for op := 0; op < outSize; op++ {
				var sum float64
				for ic := 0; ic < inC; ic++ {
					for k := 0; k < kernel; k++ {
						ip := op*stride + k - pad
						if ip < 0 || ip >= inSize {
							continue
						}
						sum += float64(x[(b*inC+ic)*inSize+ip]) * float64(w[(oc*inC+ic)*kernel+k])
					}
				}
				if bias != nil {
					sum += float64(bias[oc])
				}
				out[(b*outC+oc)*outSize+op] = float32(sum)
			}
		}
	}
}

// Conv2D computes a 2-D convolution in NCHW layout.
// x: [batch, inC, h, w], weight: [outC, inC, kh, kw], bias: [outC] or nil,
// out: [batch, outC, outH, outW].
func Conv2D(x, weight, bias, out []float32, batch, inC, outC, h, w, kh, kw, strideH, strideW, padH, padW int) {
	outH := (h+2*padH-kh)/strideH + 1
	outW := (w+2*padW-kw)/strideW + 1
	for b := 0; b < batch; b++ {
		for oc := 0; oc < outC; oc++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					var sum float64
					for ic := 0; ic < inC; ic++ {
						for r := 0; r < kh; r++ {
							ih := oh*strideH + r - padH
							if ih < 0 || ih >= h {
								continue
							}
							for c := 0; c < kw; c++ {
								iw := ow*strideW + c - padW
								if iw < 0 || iw >= w {
									continue
								}
								xIdx := ((b*inC+ic)*h+ih)*w + iw
								wIdx := ((oc*inC+ic)*kh+r)*kw + c
								sum += float64(x[xIdx]) * float64(weight[wIdx])
							}
						}
					}
					if bias != nil {
						sum += float64(bias[oc])
					}
					out[((b*outC+oc)*outH+oh)*outW+ow] = float32(sum)
				}
			}
		}
	}
}
