package deepdream

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func newTestAscent(t *testing.T, layer string, opt Optimizer, bounds Bounds) *Ascent {
	t.Helper()
	s, err := NewSmoother(3, 9)
	if err != nil {
		t.Fatalf("NewSmoother failed: %v", err)
	}
	return &Ascent{
		Network:   &linearNet{scale: 1},
		Layer:     layer,
		Bounds:    bounds,
		Smoother:  s,
		Optimizer: opt,
		Epsilon:   1e-12,
	}
}

// TestNormalizeGradientMeanAbs verifies that the normalized gradient has
// mean |g| = 1.
func TestNormalizeGradientMeanAbs(t *testing.T) {
	g := randomTensor(3, 9, 13, 4)
	for i := range g.Data {
		g.Data[i] *= 0.003
	}
	if _, err := NormalizeGradient(g, 1e-12); err != nil {
		t.Fatalf("NormalizeGradient failed: %v", err)
	}
	mean := floats.Norm(g.Data, 1) / float64(len(g.Data))
	if math.Abs(mean-1) > 1e-12 {
		t.Errorf("Expected mean |g| = 1, got %g", mean)
	}
}

// TestNormalizeGradientDegenerate verifies zero and non-finite gradients
// are rejected.
func TestNormalizeGradientDegenerate(t *testing.T) {
	if _, err := NormalizeGradient(NewTensor(1, 3, 3), 1e-12); !errors.Is(err, ErrNumericDegeneracy) {
		t.Errorf("Expected ErrNumericDegeneracy for zero gradient, got %v", err)
	}
	g := randomTensor(1, 3, 3, 1)
	g.Data[4] = math.Inf(1)
	_, err := NormalizeGradient(g, 1e-12)
	var de *DegeneracyError
	if !errors.As(err, &de) || de.InfCount != 1 {
		t.Errorf("Expected DegeneracyError with one Inf, got %v", err)
	}
}

// TestStepKeepsBounds verifies that every element lies within its
// channel's bounds after each step, and that the gradient buffer is reset.
func TestStepKeepsBounds(t *testing.T) {
	bounds := ImageNet1.Bounds()
	a := newTestAscent(t, "linear", OptimizerNormalized, bounds)
	st := NewState(ImageNet1.ToNetworkInput(randomImage(12, 10, 2)))
	for i := range 5 {
		if _, err := a.Step(st, 5, i); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		for ch := range st.X.C {
			for _, v := range st.X.Plane(ch) {
				if v < bounds.Lower[ch] || v > bounds.Upper[ch] {
					t.Fatalf("step %d: value %g outside [%g, %g] in channel %d", i, v, bounds.Lower[ch], bounds.Upper[ch], ch)
				}
			}
		}
		for _, v := range st.Grad.Data {
			if v != 0 {
				t.Fatalf("step %d: expected zero gradient buffer, got %g", i, v)
			}
		}
	}
}

// TestStepIncreasesActivation verifies the update is an ascent.
func TestStepIncreasesActivation(t *testing.T) {
	wide := Bounds{Lower: []float64{-100, -100, -100}, Upper: []float64{100, 100, 100}}
	for _, opt := range []Optimizer{OptimizerNormalized, OptimizerAdam} {
		a := newTestAscent(t, "linear", opt, wide)
		st := NewState(randomTensor(3, 8, 8, 6))
		first, err := a.Step(st, 0.05, 0)
		if err != nil {
			t.Fatalf("%v: Step failed: %v", opt, err)
		}
		var last StepStats
		for i := 1; i < 6; i++ {
			if last, err = a.Step(st, 0.05, i); err != nil {
				t.Fatalf("%v: Step %d failed: %v", opt, i, err)
			}
		}
		if last.Loss <= first.Loss {
			t.Errorf("%v: expected loss to grow from %g, got %g", opt, first.Loss, last.Loss)
		}
	}
}

// TestAdamKeepsMoments verifies that Adam state persists across steps of
// one octave.
func TestAdamKeepsMoments(t *testing.T) {
	wide := Bounds{Lower: []float64{-100, -100, -100}, Upper: []float64{100, 100, 100}}
	a := newTestAscent(t, "linear", OptimizerAdam, wide)
	st := NewState(randomTensor(3, 4, 4, 6))
	for i := range 3 {
		if _, err := a.Step(st, 0.01, i); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	if st.adam.step != 3 || len(st.adam.m1) != len(st.X.Data) {
		t.Errorf("Expected 3 accumulated Adam steps, got %d", st.adam.step)
	}
}

// TestStepDegenerateGradient verifies fail-fast on a zero or NaN gradient.
func TestStepDegenerateGradient(t *testing.T) {
	bounds := ImageNet1.Bounds()
	cases := []struct {
		layer string
		opt   Optimizer
		x     *Tensor
	}{
		{"linear", OptimizerNormalized, NewTensor(3, 5, 5)},
		{"zero", OptimizerNormalized, randomTensor(3, 5, 5, 1)},
		{"nan", OptimizerNormalized, randomTensor(3, 5, 5, 1)},
		{"nan", OptimizerAdam, randomTensor(3, 5, 5, 1)},
	}
	for _, c := range cases {
		a := newTestAscent(t, c.layer, c.opt, bounds)
		_, err := a.Step(NewState(c.x), 0.09, 7)
		var de *DegeneracyError
		if !errors.As(err, &de) {
			t.Errorf("%s/%v: expected *DegeneracyError, got %v", c.layer, c.opt, err)
			continue
		}
		if de.Iteration != 7 {
			t.Errorf("%s/%v: expected iteration 7, got %d", c.layer, c.opt, de.Iteration)
		}
		if !errors.Is(err, ErrNumericDegeneracy) {
			t.Errorf("%s/%v: expected ErrNumericDegeneracy", c.layer, c.opt)
		}
	}
}

// TestStepUnknownLayer verifies the unknown activation error.
func TestStepUnknownLayer(t *testing.T) {
	a := newTestAscent(t, "mixed4d", OptimizerNormalized, ImageNet1.Bounds())
	_, err := a.Step(NewState(randomTensor(3, 4, 4, 1)), 0.09, 0)
	if !errors.Is(err, ErrUnknownActivation) {
		t.Errorf("Expected ErrUnknownActivation, got %v", err)
	}
}

// TestStepChannelMismatch verifies that an input the bounds cannot cover is
// rejected before the network runs.
func TestStepChannelMismatch(t *testing.T) {
	a := newTestAscent(t, "linear", OptimizerNormalized, ImageNet1.Bounds())
	_, err := a.Step(NewState(randomTensor(2, 4, 4, 1)), 0.09, 0)
	if !errors.Is(err, ErrShape) {
		t.Errorf("Expected ErrShape, got %v", err)
	}
	if calls := a.Network.(*linearNet).calls; calls != 0 {
		t.Errorf("Expected no network calls, got %d", calls)
	}
}
