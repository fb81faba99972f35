package deepdream

import "math"

// Optimizer selects how a raw image gradient becomes an update.
type Optimizer int

const (
	// OptimizerNormalized smooths the gradient, divides it by its mean
	// absolute value and takes a fixed-size step.
	OptimizerNormalized Optimizer = iota
	// OptimizerAdam takes Adam steps on the unsmoothed gradient.
	OptimizerAdam
)

func (o Optimizer) String() string {
	switch o {
	case OptimizerAdam:
		return "adam"
	default:
		return "normalized"
	}
}

func ParseOptimizer(name string) (Optimizer, error) {
	switch name {
	case "normalized", "":
		return OptimizerNormalized, nil
	case "adam":
		return OptimizerAdam, nil
	}
	return 0, configErrorf("optimizer", name, "want normalized or adam")
}

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// adamMoments holds first and second moment estimates for one octave.
type adamMoments struct {
	m1, m2 []float64
	step   int
}

// adamStep moves x along g (ascent) with bias-corrected Adam moments.
func (a *adamMoments) adamStep(x, g []float64, lr float64) {
	if len(a.m1) != len(x) {
		a.m1 = make([]float64, len(x))
		a.m2 = make([]float64, len(x))
		a.step = 0
	}
	a.step++
	b1t := 1.0 - math.Pow(adamBeta1, float64(a.step))
	b2t := 1.0 - math.Pow(adamBeta2, float64(a.step))
	for i, gi := range g {
		a.m1[i] = adamBeta1*a.m1[i] + (1.0-adamBeta1)*gi
		a.m2[i] = adamBeta2*a.m2[i] + (1.0-adamBeta2)*gi*gi
		mhat := a.m1[i] / b1t
		vhat := a.m2[i] / b2t
		x[i] += lr * mhat / (math.Sqrt(vhat) + adamEps)
	}
}
