package deepdream

import (
	"fmt"
	"image"
)

// Stats holds the per-channel statistics a network was trained with.
// A display-range value v maps to network space as (v*Scale - Mean)/Std.
type Stats struct {
	Name  string
	Mean  []float64
	Std   []float64
	Scale float64
}

var (
	// ImageNet1 normalizes [0,1] images with mean and std.
	ImageNet1 = Stats{
		Name:  "imagenet1",
		Mean:  []float64{0.485, 0.456, 0.406},
		Std:   []float64{0.229, 0.224, 0.225},
		Scale: 1,
	}
	// ImageNet255 normalizes [0,255] images with the mean only.
	ImageNet255 = Stats{
		Name:  "imagenet255",
		Mean:  []float64{123.675, 116.28, 103.53},
		Std:   []float64{1, 1, 1},
		Scale: 255,
	}
)

func ParseStats(name string) (Stats, error) {
	switch name {
	case ImageNet1.Name, "":
		return ImageNet1, nil
	case ImageNet255.Name:
		return ImageNet255, nil
	}
	return Stats{}, configErrorf("stats", name, "want %q or %q", ImageNet1.Name, ImageNet255.Name)
}

func (s Stats) validate() error {
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Std) {
		return configErrorf("stats", s.Name, "mean/std length %d/%d", len(s.Mean), len(s.Std))
	}
	for c, v := range s.Std {
		if v <= 0 {
			return configErrorf("stats", s.Name, "std[%d]=%g must be > 0", c, v)
		}
	}
	if s.Scale <= 0 {
		return configErrorf("stats", s.Name, "scale %g must be > 0", s.Scale)
	}
	return nil
}

func (s Stats) Channels() int {
	return len(s.Mean)
}

// Normalize maps a display-range image into network-input space.
func (s Stats) Normalize(img Image) Image {
	out := NewImage(img.W, img.H, img.C)
	for i, v := range img.Pix {
		c := i % img.C
		out.Pix[i] = (v*s.Scale - s.Mean[c]) / s.Std[c]
	}
	return out
}

// Denormalize maps a network-space image back to display range. It does
// not clip.
func (s Stats) Denormalize(img Image) Image {
	out := NewImage(img.W, img.H, img.C)
	for i, v := range img.Pix {
		c := i % img.C
		out.Pix[i] = (v*s.Std[c] + s.Mean[c]) / s.Scale
	}
	return out
}

func (s Stats) ToNetworkInput(img Image) *Tensor {
	return s.Normalize(img).Tensor()
}

// FromNetworkOutput de-normalizes t, clips it to [0,1] and quantizes it to
// an 8-bit H×W×C image.
func (s Stats) FromNetworkOutput(t *Tensor) *image.NRGBA {
	img := s.Denormalize(t.Image())
	img.Clip(0, 1)
	return img.NRGBA()
}

// Bounds are the per-channel limits of a valid network-space pixel.
type Bounds struct {
	Lower, Upper []float64
}

// Bounds returns the network-space images of display values 0 and 1.
func (s Stats) Bounds() Bounds {
	b := Bounds{
		Lower: make([]float64, len(s.Mean)),
		Upper: make([]float64, len(s.Mean)),
	}
	for c := range s.Mean {
		b.Lower[c] = -s.Mean[c] / s.Std[c]
		b.Upper[c] = (s.Scale - s.Mean[c]) / s.Std[c]
	}
	return b
}

// Clamp limits every element of t to its channel's bounds.
func (b Bounds) Clamp(t *Tensor) {
	for ch := range t.C {
		lo, hi := b.Lower[ch], b.Upper[ch]
		plane := t.Plane(ch)
		for i, v := range plane {
			plane[i] = max(lo, min(hi, v))
		}
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("lower=%.3f upper=%.3f", b.Lower, b.Upper)
}
