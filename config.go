package deepdream

import (
	"image"
	"math"
)

type Options struct {
	// Number of pyramid levels (octaves).
	// Ideal start: 4. More octaves let large-scale structure emerge on the
	// coarse levels before detail is added.
	Octaves int
	// Scale between consecutive pyramid levels, normally below 1.
	// Ideal start: 1/1.4. Lower values make the coarsest octave tiny.
	OctaveRatio float64
	// Ascent steps per octave.
	// Ideal start: 10.
	Iterations int
	// Step size applied to the normalized gradient.
	// Ideal start: 0.09 for OptimizerNormalized. Higher burns in patterns
	// faster and saturates the clamp.
	LearningRate float64
	// Maximum random cyclic shift in pixels, per axis, per iteration.
	// Ideal start: ~1/6 of the image width (100 at 600px). 0 disables jitter.
	Jitter int
	// Name of the network activation to amplify.
	Layer string
	// Odd size of the gradient smoothing kernel.
	KernelSize int
	Optimizer  Optimizer
	// Normalization statistics expected by the network.
	Stats Stats
	// Smallest mean |gradient| accepted before failing with
	// ErrNumericDegeneracy.
	Epsilon float64
	// Seed for the jitter offsets.
	Seed    uint64
	Verbose bool
}

func DefaultOptions() Options {
	return Options{
		Octaves:      4,
		OctaveRatio:  1 / 1.4,
		Iterations:   10,
		LearningRate: 0.09,
		Jitter:       100,
		Layer:        "conv3",
		KernelSize:   9,
		Optimizer:    OptimizerNormalized,
		Stats:        ImageNet1,
		Epsilon:      1e-12,
		Seed:         1,
	}
}

// OptionsFromSize scales the jitter with the image width and drops octaves
// that would shrink the coarsest level below 32 pixels.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	opt.Jitter = max(4, min(128, size.X/6))
	opt.FitOctaves(size, DefaultOptions().Octaves)
	return opt
}

// FitOctaves sets Octaves to the largest count up to limit whose coarsest
// level, at the current OctaveRatio, keeps a short side of at least 32
// pixels. It never goes below one octave.
func (o *Options) FitOctaves(size image.Point, limit int) {
	o.Octaves = max(1, limit)
	short := float64(min(size.X, size.Y))
	for o.Octaves > 1 && short*math.Pow(o.OctaveRatio, float64(o.Octaves-1)) < 32 {
		o.Octaves--
	}
}

// Validate reports the first rejected field as a *ConfigError.
func (o Options) Validate() error {
	if o.Octaves < 1 {
		return configErrorf("octaves", o.Octaves, "must be >= 1")
	}
	if o.OctaveRatio <= 0 || math.IsNaN(o.OctaveRatio) || math.IsInf(o.OctaveRatio, 0) {
		return configErrorf("octave_ratio", o.OctaveRatio, "must be > 0")
	}
	if o.Iterations <= 0 {
		return configErrorf("iterations", o.Iterations, "must be > 0")
	}
	if !(o.LearningRate > 0) || math.IsInf(o.LearningRate, 0) {
		return configErrorf("learning_rate", o.LearningRate, "must be > 0")
	}
	if o.Jitter < 0 {
		return configErrorf("jitter", o.Jitter, "must be >= 0")
	}
	if o.Layer == "" {
		return configErrorf("layer", o.Layer, "must name a network activation")
	}
	if o.KernelSize < 1 || o.KernelSize%2 == 0 {
		return configErrorf("kernel_size", o.KernelSize, "must be a positive odd number")
	}
	if o.Optimizer != OptimizerNormalized && o.Optimizer != OptimizerAdam {
		return configErrorf("optimizer", int(o.Optimizer), "unknown optimizer")
	}
	if o.Epsilon < 0 {
		return configErrorf("epsilon", o.Epsilon, "must be >= 0")
	}
	return o.Stats.validate()
}
