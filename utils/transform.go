package utils

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
	"github.com/setanarut/deepdream"
)

// ZoomRotate rotates the frame by degrees (counter-clockwise) and zooms into
// its center by 1/(1-scale), keeping the frame size. Uncovered corners are
// filled with black.
func ZoomRotate(img deepdream.Image, scale, degrees float64) (deepdream.Image, error) {
	if scale < 0 || scale >= 1 || math.IsNaN(scale) {
		return deepdream.Image{}, fmt.Errorf("%w: zoom scale %g must be in [0, 1)", deepdream.ErrInvalidConfig, scale)
	}
	w, h := img.W, img.H
	var filters []gift.Filter
	if degrees != 0 {
		filters = append(filters,
			gift.Rotate(float32(degrees), color.Black, gift.LinearInterpolation),
			gift.CropToSize(w, h, gift.CenterAnchor),
		)
	}
	zw := int(math.Round(float64(w) / (1 - scale)))
	zh := int(math.Round(float64(h) / (1 - scale)))
	if zw != w || zh != h {
		filters = append(filters,
			gift.Resize(zw, zh, gift.LinearResampling),
			gift.CropToSize(w, h, gift.CenterAnchor),
		)
	}
	if len(filters) == 0 {
		return img.Clone(), nil
	}

	src := img.NRGBA64()
	g := gift.New(filters...)
	dst := image.NewNRGBA64(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return deepdream.FromGoImage(dst), nil
}

// FrameTransform adapts ZoomRotate to a sequence transform.
func FrameTransform(scale, degrees float64) deepdream.FrameTransform {
	return func(img deepdream.Image) (deepdream.Image, error) {
		return ZoomRotate(img, scale, degrees)
	}
}
