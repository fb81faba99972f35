package deepdream

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

// Dreamer runs the octave loop: coarse-to-fine gradient ascent over an image
// pyramid with a detail residual carried between octaves.
type Dreamer struct {
	opt    Options
	bounds Bounds
	ascent *Ascent
	rng    *rand.Rand
}

// NewDreamer validates opt and prepares the bounds and smoothing filter.
// Configuration errors surface here, before any tensor is touched.
func NewDreamer(net Network, opt Options) (*Dreamer, error) {
	if net == nil {
		return nil, configErrorf("network", nil, "required")
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	smoother, err := NewSmoother(opt.Stats.Channels(), opt.KernelSize)
	if err != nil {
		return nil, err
	}
	bounds := opt.Stats.Bounds()
	return &Dreamer{
		opt:    opt,
		bounds: bounds,
		ascent: &Ascent{
			Network:   net,
			Layer:     opt.Layer,
			Bounds:    bounds,
			Smoother:  smoother,
			Optimizer: opt.Optimizer,
			Epsilon:   opt.Epsilon,
		},
		rng: rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (d *Dreamer) Options() Options {
	return d.opt
}

func (d *Dreamer) Bounds() Bounds {
	return d.bounds
}

// jitter draws a shift in [-J, J] for each spatial axis.
func (d *Dreamer) jitter() (int, int) {
	j := d.opt.Jitter
	if j == 0 {
		return 0, 0
	}
	return d.rng.IntN(2*j+1) - j, d.rng.IntN(2*j+1) - j
}

// Dream amplifies the configured activation in img. img and the result are
// display-range images of the same size; the result is clipped to [0,1].
func (d *Dreamer) Dream(img Image) (Image, error) {
	if img.C != d.opt.Stats.Channels() || img.W == 0 || img.H == 0 {
		return Image{}, fmt.Errorf("%w: image %dx%dx%d, want %d channels",
			ErrShape, img.W, img.H, img.C, d.opt.Stats.Channels())
	}
	pyramid, err := BuildPyramid(d.opt.Stats.Normalize(img), d.opt.Octaves, d.opt.OctaveRatio)
	if err != nil {
		return Image{}, err
	}

	coarsest := pyramid[len(pyramid)-1]
	detail := NewImage(coarsest.W, coarsest.H, coarsest.C)
	var result Image
	for octave := range len(pyramid) {
		octaveBase := pyramid[len(pyramid)-1-octave]
		if octave > 0 {
			detail = Resize(detail, octaveBase.W, octaveBase.H)
		}
		st := NewState(octaveBase.Add(detail).Tensor())
		if err := d.runOctave(st, octave, len(pyramid)); err != nil {
			return Image{}, err
		}
		result = st.X.Image()
		detail = result.Sub(octaveBase)

		if d.opt.Verbose {
			mean, std := stat.MeanStdDev(detail.Pix, nil)
			log.Printf("octave %d/%d %dx%d detail mean=%.4f std=%.4f",
				octave+1, len(pyramid), octaveBase.W, octaveBase.H, mean, std)
		}
	}

	out := d.opt.Stats.Denormalize(result)
	out.Clip(0, 1)
	return out, nil
}

func (d *Dreamer) runOctave(st *State, octave, octaves int) error {
	iters := d.opt.Iterations
	for i := range iters {
		dh, dw := d.jitter()
		st.X.Roll(dh, dw)
		stats, err := d.ascent.Step(st, d.opt.LearningRate, i)
		if err != nil {
			var de *DegeneracyError
			if errors.As(err, &de) {
				de.Octave = octave
			}
			return fmt.Errorf("deepdream: octave %d/%d iteration %d: %w", octave+1, octaves, i, err)
		}
		st.X.Unroll(dh, dw)

		if d.opt.Verbose && (i == 0 || i == iters-1) {
			log.Printf("   octave %d/%d iter %d/%d loss=%.6f mean|g|=%.3g",
				octave+1, octaves, i+1, iters, stats.Loss, stats.MeanAbsGrad)
		}
	}
	return nil
}
