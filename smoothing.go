package deepdream

import "math"

// sigmaScales are the multiples of the base sigma whose blurs are summed.
var sigmaScales = [3]float64{0.5, 1.0, 2.0}

// Smoother is a fixed depthwise Gaussian blur for gradients. It has no
// learnable state.
type Smoother struct {
	Channels   int
	KernelSize int
}

func NewSmoother(channels, kernelSize int) (*Smoother, error) {
	if channels < 1 {
		return nil, configErrorf("channels", channels, "must be >= 1")
	}
	if kernelSize < 1 || kernelSize%2 == 0 {
		return nil, configErrorf("kernel_size", kernelSize, "must be a positive odd number")
	}
	return &Smoother{Channels: channels, KernelSize: kernelSize}, nil
}

// Sigma grows with the iteration index so that later iterations smooth
// harder.
func Sigma(iteration int) float64 {
	return float64(iteration+1)/10*2.0 + 0.5
}

// gaussianKernel returns a normalized 1D Gaussian of the given size.
func gaussianKernel(size int, sigma float64) []float64 {
	k := make([]float64, size)
	mean := float64(size-1) / 2
	sum := 0.0
	for i := range k {
		d := (float64(i) - mean) / sigma
		k[i] = math.Exp(-d * d / 2)
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect mirrors index i into [0, n) without repeating the edge sample.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// Smooth returns the sum of three reflect-padded Gaussian blurs of g at
// 0.5, 1 and 2 times Sigma(iteration). The output has the shape of g.
func (s *Smoother) Smooth(g *Tensor, iteration int) *Tensor {
	out := NewTensor(g.C, g.H, g.W)
	sigma := Sigma(iteration)
	tmp := make([]float64, g.H*g.W)
	blurred := make([]float64, g.H*g.W)
	for _, scale := range sigmaScales {
		k := gaussianKernel(s.KernelSize, scale*sigma)
		for ch := range g.C {
			s.blurPlane(g.Plane(ch), tmp, blurred, g.H, g.W, k)
			dst := out.Plane(ch)
			for i, v := range blurred {
				dst[i] += v
			}
		}
	}
	return out
}

// blurPlane applies the separable kernel k to src, horizontally into tmp and
// then vertically into dst.
func (s *Smoother) blurPlane(src, tmp, dst []float64, h, w int, k []float64) {
	pad := len(k) / 2
	for y := range h {
		row := src[y*w : (y+1)*w]
		for x := range w {
			sum := 0.0
			for i, kv := range k {
				sum += kv * row[reflect(x+i-pad, w)]
			}
			tmp[y*w+x] = sum
		}
	}
	for y := range h {
		for x := range w {
			sum := 0.0
			for i, kv := range k {
				sum += kv * tmp[reflect(y+i-pad, h)*w+x]
			}
			dst[y*w+x] = sum
		}
	}
}
