package deepdream

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// State is the mutable optimization state of one octave. The driver owns it
// exclusively and passes it by reference into every step.
//
// X is detached data: jitter, update and clamp modify it directly. Only
// Network.Forward and Pass.Backward see it as a differentiable input, and
// their result lands in Grad, which is zero between steps.
type State struct {
	X    *Tensor
	Grad *Tensor

	adam adamMoments
}

func NewState(x *Tensor) *State {
	return &State{X: x, Grad: NewTensor(x.C, x.H, x.W)}
}

// StepStats reports one ascent step.
type StepStats struct {
	Loss        float64 // sum of squared activations / 2
	MeanAbsGrad float64 // mean |g| of the gradient that was normalized
}

// Ascent performs gradient-ascent steps on an image against one network
// activation.
type Ascent struct {
	Network   Network
	Layer     string
	Bounds    Bounds
	Smoother  *Smoother
	Optimizer Optimizer
	// Epsilon is the smallest mean |g| that can be normalized.
	Epsilon float64
}

// Step runs one forward/backward pass and moves st.X so that the L2 norm of
// the target activation grows. st.X is clamped to Bounds afterwards.
func (a *Ascent) Step(st *State, lr float64, iteration int) (StepStats, error) {
	var stats StepStats
	if st.X.C != len(a.Bounds.Lower) {
		return stats, fmt.Errorf("%w: %v has %d channels, bounds have %d",
			ErrShape, st.X, st.X.C, len(a.Bounds.Lower))
	}
	if a.Optimizer == OptimizerNormalized && st.X.C != a.Smoother.Channels {
		return stats, fmt.Errorf("%w: %v has %d channels, smoother expects %d",
			ErrShape, st.X, st.X.C, a.Smoother.Channels)
	}

	pass, err := a.Network.Forward(st.X)
	if err != nil {
		return stats, fmt.Errorf("deepdream: forward %v: %w", st.X, err)
	}
	act, ok := pass.Activation(a.Layer)
	if !ok {
		return stats, fmt.Errorf("%w: %q (have %v)", ErrUnknownActivation, a.Layer, pass.Names())
	}
	stats.Loss = floats.Dot(act.Data, act.Data) / 2

	// d(loss)/d(activation) is the activation itself.
	grad, err := pass.Backward(a.Layer, act.Clone())
	if err != nil {
		return stats, fmt.Errorf("deepdream: backward %q: %w", a.Layer, err)
	}
	if !grad.SameShape(st.X) {
		return stats, fmt.Errorf("%w: input gradient %v for input %v", ErrShape, grad, st.X)
	}
	floats.Add(st.Grad.Data, grad.Data)

	switch a.Optimizer {
	case OptimizerAdam:
		nan, inf := countNonFinite(st.Grad.Data)
		if nan > 0 || inf > 0 {
			return stats, &DegeneracyError{Iteration: iteration, MeanAbs: math.NaN(), NaNCount: nan, InfCount: inf}
		}
		stats.MeanAbsGrad = floats.Norm(st.Grad.Data, 1) / float64(len(st.Grad.Data))
		st.adam.adamStep(st.X.Data, st.Grad.Data, lr)
	default:
		smooth := a.Smoother.Smooth(st.Grad, iteration)
		meanAbs, err := NormalizeGradient(smooth, a.Epsilon)
		if err != nil {
			var de *DegeneracyError
			if errors.As(err, &de) {
				de.Iteration = iteration
			}
			return stats, err
		}
		stats.MeanAbsGrad = meanAbs
		floats.AddScaled(st.X.Data, lr, smooth.Data)
	}

	st.Grad.Zero()
	a.Bounds.Clamp(st.X)
	return stats, nil
}

// NormalizeGradient divides g in place by its mean absolute value and
// returns that value. A mean that is not finite or not above eps is
// reported as a *DegeneracyError.
func NormalizeGradient(g *Tensor, eps float64) (float64, error) {
	n := len(g.Data)
	if n == 0 {
		return 0, &DegeneracyError{}
	}
	meanAbs := floats.Norm(g.Data, 1) / float64(n)
	if math.IsNaN(meanAbs) || math.IsInf(meanAbs, 0) || meanAbs <= eps {
		nan, inf := countNonFinite(g.Data)
		return meanAbs, &DegeneracyError{MeanAbs: meanAbs, NaNCount: nan, InfCount: inf}
	}
	floats.Scale(1/meanAbs, g.Data)
	return meanAbs, nil
}
