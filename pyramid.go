package deepdream

import "math"

// BuildPyramid returns levels copies of img, each one scaled from the
// previous by ratio. Entry 0 is img itself. Octaves are processed from the
// last entry back to the first.
func BuildPyramid(img Image, levels int, ratio float64) ([]Image, error) {
	if levels < 1 {
		return nil, configErrorf("levels", levels, "must be >= 1")
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil, configErrorf("ratio", ratio, "must be > 0")
	}
	pyramid := make([]Image, 0, levels)
	pyramid = append(pyramid, img)
	for range levels - 1 {
		prev := pyramid[len(pyramid)-1]
		w := max(1, int(math.Round(float64(prev.W)*ratio)))
		h := max(1, int(math.Round(float64(prev.H)*ratio)))
		pyramid = append(pyramid, Resize(prev, w, h))
	}
	return pyramid, nil
}
