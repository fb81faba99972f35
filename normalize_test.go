package deepdream

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// TestNetworkRoundTrip verifies FromNetworkOutput(ToNetworkInput(img))
// reproduces an 8-bit image for both statistics sets.
func TestNetworkRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: uint8((x + y) * 8), A: 255})
		}
	}
	img := FromGoImage(src)
	for _, s := range []Stats{ImageNet1, ImageNet255} {
		out := s.FromNetworkOutput(s.ToNetworkInput(img))
		for i := range src.Pix {
			d := int(src.Pix[i]) - int(out.Pix[i])
			if d < -1 || d > 1 {
				t.Fatalf("%s: expected byte %d ≈ %d, got %d", s.Name, i, src.Pix[i], out.Pix[i])
			}
		}
	}
}

// TestBoundsMatchDisplayRange verifies that the bounds are the network
// images of 0 and 1.
func TestBoundsMatchDisplayRange(t *testing.T) {
	for _, s := range []Stats{ImageNet1, ImageNet255} {
		b := s.Bounds()
		img := NewImage(1, 2, 3)
		for c := range 3 {
			img.Pix[3+c] = 1
		}
		n := s.Normalize(img)
		for c := range 3 {
			if math.Abs(n.Pix[c]-b.Lower[c]) > 1e-12 {
				t.Errorf("%s: expected lower[%d]=%g, got %g", s.Name, c, n.Pix[c], b.Lower[c])
			}
			if math.Abs(n.Pix[3+c]-b.Upper[c]) > 1e-12 {
				t.Errorf("%s: expected upper[%d]=%g, got %g", s.Name, c, n.Pix[3+c], b.Upper[c])
			}
		}
	}
	b := ImageNet1.Bounds()
	if math.Abs(b.Lower[0]-(-0.485/0.229)) > 1e-12 || math.Abs(b.Upper[2]-(0.594/0.225)) > 1e-12 {
		t.Errorf("Unexpected ImageNet bounds %v", b)
	}
}

// TestClamp verifies per-channel limits.
func TestClamp(t *testing.T) {
	b := Bounds{Lower: []float64{-1, 0}, Upper: []float64{1, 0.5}}
	x := NewTensor(2, 1, 3)
	copy(x.Data, []float64{-5, 0.3, 5, -5, 0.3, 5})
	b.Clamp(x)
	want := []float64{-1, 0.3, 1, 0, 0.3, 0.5}
	for i, v := range want {
		if x.Data[i] != v {
			t.Errorf("Expected data[%d]=%g, got %g", i, v, x.Data[i])
		}
	}
}

// TestParseStats verifies names and the rejection of unknown ones.
func TestParseStats(t *testing.T) {
	s, err := ParseStats("imagenet255")
	if err != nil || s.Scale != 255 {
		t.Errorf("Expected imagenet255, got %v %v", s, err)
	}
	if _, err := ParseStats("cifar"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
