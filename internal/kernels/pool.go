package kernels

import "math"

// Pooling kernels, NCHW layout, same spatial-size rule as convolution.
// MaxPool treats padding as -inf (never selected); AvgPool divides by the
// full window size, counting padded positions as zero.

// MaxPool2D computes a 2-D max pool.
// x: [batch, channels, h, w], out: [batch, channels, outH, outW].
func MaxPool2D(x, out []float32, batch, channels, h, w, kh, kw, strideH, strideW, padH, padW int) {
	outH := (h+2*padH-kh)/strideH + 1
	outW := (w+2*padW-kw)/strideW + 1
	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					best := float32(math.Inf(-1))
					for r := 0; r < kh; r++ {
						ih := oh*strideH + r - padH
						if ih < 0 || ih >= h {
							continue
						}
						for cc := 0; cc < kw; cc++ {
							iw := ow*strideW + cc - padW
							if iw < 0 || iw >= w {
								continue
							}
							v := x[((b*channels+c)*h+ih)*w+iw]
							if v > best {
								best = v
							}
						}
					}
					out[((b*channels+c)*outH+oh)*outW+ow] = best
				}
			}
		}
	}
}

// AvgPool2D computes a 2-D average pool.
func AvgPool2D(x, out []float32, batch, channels, h, w, kh, kw, strideH, strideW, padH, padW int) {
	outH := (h+2*padH-kh)/strideH + 1
	outW := (w+2*padW-kw)/strideW + 1
	window := float64(kh * kw)
	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					var sum float64
					for r := 0; r < kh; r++ {
						ih := oh*strideH + r - padH
						if ih < 0 || ih >= h {
							continue
						}
						for cc := 0; cc < kw; cc++ {
							iw := ow*strideW + cc - padW
							if iw < 0 || iw >= w {
								continue
							}
							sum += float64(x[((b*channels+c)*h+ih)*w+iw])
						}
					}
					out[((b*channels+c)*outH+oh)*outW+ow] = float32(sum / window)
				}
			}
		}
	}
}

// BatchNorm2D applies per-channel affine normalization:
// out = gamma[c] * (x - mean[c]) / sqrt(var[c] + eps) + beta[c].
// x, out: [batch, channels, spatial] flattened.
func BatchNorm2D(x, gamma, beta, mean, variance, out []float32, batch, channels, spatial int, eps float32) {
	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			scale := float32(1 / math.Sqrt(float64(variance[c]+eps)))
			base := (b*channels + c) * spatial
			for s := 0; s < spatial; s++ {
				out[base+s] = gamma[c]*(x[base+s]-mean[c])*scale + beta[c]
			}
		}
	}
}
