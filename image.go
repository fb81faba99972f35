package deepdream

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Image is an interleaved H×W×C float image. Values are either in display
// range [0,1] or in network-input space, see Stats.
type Image struct {
	W, H, C int
	Pix     []float64 // len = W*H*C
}

func NewImage(w, h, c int) Image {
	return Image{W: w, H: h, C: c, Pix: make([]float64, w*h*c)}
}

func (img Image) offset(x, y int) int {
	return (y*img.W + x) * img.C
}

func (img Image) Size() image.Point {
	return image.Pt(img.W, img.H)
}

func (img Image) Clone() Image {
	out := NewImage(img.W, img.H, img.C)
	copy(out.Pix, img.Pix)
	return out
}

// Add returns img + o. Both images must have the same shape.
func (img Image) Add(o Image) Image {
	out := img.Clone()
	for i, v := range o.Pix {
		out.Pix[i] += v
	}
	return out
}

// Sub returns img - o. Both images must have the same shape.
func (img Image) Sub(o Image) Image {
	out := img.Clone()
	for i, v := range o.Pix {
		out.Pix[i] -= v
	}
	return out
}

// Clip limits every value to [lo, hi] in place.
func (img Image) Clip(lo, hi float64) {
	for i, v := range img.Pix {
		img.Pix[i] = max(lo, min(hi, v))
	}
}

// Tensor converts the image to a channel-major tensor.
func (img Image) Tensor() *Tensor {
	t := NewTensor(img.C, img.H, img.W)
	n := img.H * img.W
	for i := range n {
		for ch := range img.C {
			t.Data[ch*n+i] = img.Pix[i*img.C+ch]
		}
	}
	return t
}

// FromGoImage converts any image.Image into a 3-channel RGB image in [0,1].
func FromGoImage(src image.Image) Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	img := NewImage(w, h, 3)
	for y := range h {
		for x := range w {
			c, _ := colorful.MakeColor(src.At(bounds.Min.X+x, bounds.Min.Y+y))
			off := img.offset(x, y)
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
		}
	}
	return img
}

func (img Image) color(x, y int) colorful.Color {
	off := img.offset(x, y)
	return colorful.Color{R: img.Pix[off], G: img.Pix[off+1], B: img.Pix[off+2]}.Clamped()
}

// NRGBA quantizes a display-range image to 8 bits per channel.
func (img Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.W, img.H))
	for y := range img.H {
		for x := range img.W {
			r, g, b := img.color(x, y).RGB255()
			out.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

// NRGBA64 quantizes a display-range image to 16 bits per channel.
func (img Image) NRGBA64() *image.NRGBA64 {
	out := image.NewNRGBA64(image.Rect(0, 0, img.W, img.H))
	for y := range img.H {
		for x := range img.W {
			c := img.color(x, y)
			out.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(c.R*65535 + 0.5),
				G: uint16(c.G*65535 + 0.5),
				B: uint16(c.B*65535 + 0.5),
				A: 65535,
			})
		}
	}
	return out
}
