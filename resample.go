package deepdream

import "math"

// Resize resamples img to w×h with bilinear interpolation on pixel centers.
// It works on unbounded float values, so network-space images and detail
// residuals keep their sign and precision.
func Resize(img Image, w, h int) Image {
	if w == img.W && h == img.H {
		return img.Clone()
	}
	out := NewImage(w, h, img.C)
	if img.W == 0 || img.H == 0 || w == 0 || h == 0 {
		return out
	}
	sx := float64(img.W) / float64(w)
	sy := float64(img.H) / float64(h)

	x0s := make([]int, w)
	x1s := make([]int, w)
	fxs := make([]float64, w)
	for x := range w {
		x0s[x], x1s[x], fxs[x] = sampleAxis(x, sx, img.W)
	}

	for y := range h {
		y0, y1, fy := sampleAxis(y, sy, img.H)
		for x := range w {
			x0, x1, fx := x0s[x], x1s[x], fxs[x]
			o00 := img.offset(x0, y0)
			o01 := img.offset(x1, y0)
			o10 := img.offset(x0, y1)
			o11 := img.offset(x1, y1)
			dst := out.offset(x, y)
			for c := range img.C {
				top := img.Pix[o00+c]*(1-fx) + img.Pix[o01+c]*fx
				bot := img.Pix[o10+c]*(1-fx) + img.Pix[o11+c]*fx
				out.Pix[dst+c] = top*(1-fy) + bot*fy
			}
		}
	}
	return out
}

// sampleAxis maps destination index i to its two source neighbours and the
// weight of the second one.
func sampleAxis(i int, scale float64, n int) (int, int, float64) {
	src := (float64(i)+0.5)*scale - 0.5
	if src <= 0 {
		return 0, 0, 0
	}
	i0 := int(math.Floor(src))
	if i0 >= n-1 {
		return n - 1, n - 1, 0
	}
	return i0, i0 + 1, src - float64(i0)
}
