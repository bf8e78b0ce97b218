package kernels

import "math"

// Interpolation kernels. The rule is the operator kind, never inferred; the
// output size is an explicit parameter. Sampling uses half-pixel centers
// (src = (dst + 0.5) * in/out - 0.5) except nearest, which floors the
// unshifted ratio. `planes` collapses every leading dimension, so a NCHW
// bilinear resize runs with planes = N*C.

// NearestInterp resamples each plane of length inLen to outLen.
func NearestInterp(x, out []float32, planes, inLen, outLen int) {
	for p := 0; p < planes; p++ {
		src := x[p*inLen : (p+1)*inLen]
		dst := out[p*outLen : (p+1)*outLen]
		for i := 0; i < outLen; i++ {
			s := i * inLen / outLen
			if s > inLen-1 {
				s = inLen - 1
			}
			dst[i] = src[s]
		}
	}
}

// LinearInterp resamples each plane with 2-tap linear weights.
func LinearInterp(x, out []float32, planes, inLen, outLen int) {
	scale := float64(inLen) / float64(outLen)
	for p := 0; p < planes; p++ {
		src := x[p*inLen : (p+1)*inLen]
		dst := out[p*outLen : (p+1)*outLen]
		for i := 0; i < outLen; i++ {
			lo, hi, w := linearTaps(i, scale, inLen)
			dst[i] = float32((1-w)*float64(src[lo]) + w*float64(src[hi]))
		}
	}
}

// BilinearInterp resamples each inH×inW plane to outH×outW.
func BilinearInterp(x, out []float32, planes, inH, inW, outH, outW int) {
	scaleH := float64(inH) / float64(outH)
	scaleW := float64(inW) / float64(outW)
	for p := 0; p < planes; p++ {
		src := x[p*inH*inW : (p+1)*inH*inW]
		dst := out[p*outH*outW : (p+1)*outH*outW]
		for oy := 0; oy < outH; oy++ {
			y0, y1, wy := linearTaps(oy, scaleH, inH)
			for ox := 0; ox < outW; ox++ {
				x0, x1, wx := linearTaps(ox, scaleW, inW)
				top := (1-wx)*float64(src[y0*inW+x0]) + wx*float64(src[y0*inW+x1])
				bot := (1-wx)*float64(src[y1*inW+x0]) + wx*float64(src[y1*inW+x1])
				dst[oy*outW+ox] = float32((1-wy)*top + wy*bot)
			}
		}
	}
}

// BicubicInterp resamples each plane with the 4-tap cubic convolution kernel
// (a = -0.75), edge-clamped.
func BicubicInterp(x, out []float32, planes, inH, inW, outH, outW int) {
	scaleH := float64(inH) / float64(outH)
	scaleW := float64(inW) / float64(outW)
	for p := 0; p < planes; p++ {
		src := x[p*inH*inW : (p+1)*inH*inW]
		dst := out[p*outH*outW : (p+1)*outH*outW]
		for oy := 0; oy < outH; oy++ {
			fy := (float64(oy)+0.5)*scaleH - 0.5
			iy := int(math.Floor(fy))
			ty := fy - float64(iy)
			for ox := 0; ox < outW; ox++ {
				fx := (float64(ox)+0.5)*scaleW - 0.5
				ix := int(math.Floor(fx))
				tx := fx - float64(ix)

				var acc float64
				for m := -1; m <= 2; m++ {
					wy := cubicWeight(float64(m) - ty)
					sy := clampIndex(iy+m, inH)
					for n := -1; n <= 2; n++ {
						wx := cubicWeight(float64(n) - tx)
						sx := clampIndex(ix+n, inW)
						acc += wy * wx * float64(src[sy*inW+sx])
					}
				}
				dst[oy*outW+ox] = float32(acc)
			}
		}
	}
}

// TrilinearInterp resamples each inD×inH×inW volume to outD×outH×outW.
func TrilinearInterp(x, out []float32, planes, inD, inH, inW, outD, outH, outW int) {
	scaleD := float64(inD) / float64(outD)
	scaleH := float64(inH) / float64(outH)
	scaleW := float64(inW) / float64(outW)
	inPlane := inD * inH * inW
	outPlane := outD * outH * outW
	for p := 0; p < planes; p++ {
		src := x[p*inPlane : (p+1)*inPlane]
		dst := out[p*outPlane : (p+1)*outPlane]
		for oz := 0; oz < outD; oz++ {
			z0, z1, wz := linearTaps(oz, scaleD, inD)
			for oy := 0; oy < outH; oy++ {
				y0, y1, wy := linearTaps(oy, scaleH, inH)
				for ox := 0; ox < outW; ox++ {
					x0, x1, wx := linearTaps(ox, scaleW, inW)
					lerp2 := func(z int) float64 {
						top := (1-wx)*float64(src[(z*inH+y0)*inW+x0]) + wx*float64(src[(z*inH+y0)*inW+x1])
						bot := (1-wx)*float64(src[(z*inH+y1)*inW+x0]) + wx*float64(src[(z*inH+y1)*inW+x1])
						return (1-wy)*top + wy*bot
					}
					dst[(oz*outH+oy)*outW+ox] = float32((1-wz)*lerp2(z0) + wz*lerp2(z1))
				}
			}
		}
	}
}

// linearTaps returns the two source indices and the high-side weight for
// half-pixel linear sampling of dst index i.
func linearTaps(i int, scale float64, inLen int) (lo, hi int, w float64) {
	pos := (float64(i)+0.5)*scale - 0.5
	if pos < 0 {
		pos = 0
	}
	lo = int(pos)
	if lo > inLen-1 {
		lo = inLen - 1
	}
	hi = lo + 1
	if hi > inLen-1 {
		hi = inLen - 1
	}
	return lo, hi, pos - float64(lo)
}

// cubicWeight is the Keys cubic convolution kernel with a = -0.75.
func cubicWeight(d float64) float64 {
	const a = -0.75
	if d < 0 {
		d = -d
	}
	switch {
	case d <= 1:
		return (a+2)*d*d*d - (a+3)*d*d + 1
	case d < 2:
		return a*d*d*d - 5*a*d*d + 8*a*d - 4*a
	default:
		return 0
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
