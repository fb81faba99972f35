package deepdream

import (
	"errors"
	"math"
	"testing"
)

// TestSigma verifies the iteration schedule.
func TestSigma(t *testing.T) {
	want := map[int]float64{0: 0.7, 4: 1.5, 9: 2.5}
	for it, s := range want {
		if got := Sigma(it); math.Abs(got-s) > 1e-12 {
			t.Errorf("Expected Sigma(%d)=%g, got %g", it, s, got)
		}
	}
}

// TestSmoothConstant verifies that each normalized blur preserves a flat
// gradient, so the three-scale sum triples it.
func TestSmoothConstant(t *testing.T) {
	s, err := NewSmoother(3, 9)
	if err != nil {
		t.Fatalf("NewSmoother failed: %v", err)
	}
	g := NewTensor(3, 6, 5)
	for i := range g.Data {
		g.Data[i] = 2
	}
	out := s.Smooth(g, 3)
	if !out.SameShape(g) {
		t.Fatalf("Expected shape %v, got %v", g, out)
	}
	for i, v := range out.Data {
		if math.Abs(v-6) > 1e-9 {
			t.Fatalf("Expected 6 at %d, got %g", i, v)
		}
	}
}

// TestSmoothSpreadsImpulse verifies symmetry and that mass is preserved
// away from the borders.
func TestSmoothSpreadsImpulse(t *testing.T) {
	s, _ := NewSmoother(1, 9)
	g := NewTensor(1, 21, 21)
	g.Data[10*21+10] = 1
	out := s.Smooth(g, 0)
	var sum float64
	for _, v := range out.Data {
		sum += v
	}
	if math.Abs(sum-3) > 1e-9 {
		t.Errorf("Expected total 3, got %g", sum)
	}
	if out.Data[10*21+9] != out.Data[10*21+11] || out.Data[9*21+10] != out.Data[11*21+10] {
		t.Error("Expected symmetric response")
	}
	if out.Data[10*21+10] <= out.Data[10*21+11] {
		t.Error("Expected peak at the impulse")
	}
}

// TestNewSmootherRejectsConfig verifies kernel and channel validation.
func TestNewSmootherRejectsConfig(t *testing.T) {
	for _, c := range [][2]int{{0, 9}, {3, 0}, {3, 8}} {
		if _, err := NewSmoother(c[0], c[1]); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%v: expected ErrInvalidConfig, got %v", c, err)
		}
	}
}

// TestReflect verifies edge mirroring without repeating the edge sample.
func TestReflect(t *testing.T) {
	want := map[int]int{-2: 2, -1: 1, 0: 0, 4: 4, 5: 3, 6: 2}
	for i, r := range want {
		if got := reflect(i, 5); got != r {
			t.Errorf("Expected reflect(%d, 5)=%d, got %d", i, r, got)
		}
	}
}
