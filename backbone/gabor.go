package backbone

import "math"

const gaborOrientations = 4

// Color projections for the Gabor bank: luminance, red-green and
// blue-yellow opponents.
var gaborColors = [][3]float64{
	{1 / math.Sqrt(3), 1 / math.Sqrt(3), 1 / math.Sqrt(3)},
	{1 / math.Sqrt2, -1 / math.Sqrt2, 0},
	{1 / math.Sqrt(6), 1 / math.Sqrt(6), -2 / math.Sqrt(6)},
}

// gaborBank builds filters×3×k×k weights. Filter f uses orientation
// f%4, an even (cosine) or odd (sine) phase, and cycles through the color
// projections. Each spatial kernel is zero-mean with unit L2 norm.
func gaborBank(filters, k int) []float64 {
	kk := k * k
	w := make([]float64, filters*3*kk)
	sigma := float64(k) / 4
	lambda := float64(k) / 2
	const gamma = 0.5
	half := float64(k-1) / 2

	spatial := make([]float64, kk)
	for f := range filters {
		theta := math.Pi * float64(f%gaborOrientations) / gaborOrientations
		psi := 0.0
		if (f/gaborOrientations)%2 == 1 {
			psi = -math.Pi / 2
		}
		col := gaborColors[(f/(2*gaborOrientations))%len(gaborColors)]

		sin, cos := math.Sincos(theta)
		var mean float64
		for y := range k {
			for x := range k {
				dx, dy := float64(x)-half, float64(y)-half
				xr := dx*cos + dy*sin
				yr := -dx*sin + dy*cos
				v := math.Exp(-(xr*xr+gamma*gamma*yr*yr)/(2*sigma*sigma)) *
					math.Cos(2*math.Pi*xr/lambda+psi)
				spatial[y*k+x] = v
				mean += v
			}
		}
		mean /= float64(kk)
		var norm float64
		for i := range spatial {
			spatial[i] -= mean
			norm += spatial[i] * spatial[i]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			norm = 1
		}
		for ch := range 3 {
			dst := w[(f*3+ch)*kk : (f*3+ch+1)*kk]
			for i, v := range spatial {
				dst[i] = col[ch] * v / norm
			}
		}
	}
	return w
}
