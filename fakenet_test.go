package deepdream

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// linearNet exposes three activations of its input: "linear" (scale·x),
// "zero" (all zeros) and "nan" (all NaN). Backward applies the matching
// Jacobian.
type linearNet struct {
	scale float64
	calls int
}

func (n *linearNet) Forward(x *Tensor) (Pass, error) {
	n.calls++
	lin := x.Clone()
	for i := range lin.Data {
		lin.Data[i] *= n.scale
	}
	nan := NewTensor(x.C, x.H, x.W)
	for i := range nan.Data {
		nan.Data[i] = math.NaN()
	}
	return &linearPass{net: n, acts: map[string]*Tensor{
		"linear": lin,
		"zero":   NewTensor(x.C, x.H, x.W),
		"nan":    nan,
	}}, nil
}

type linearPass struct {
	net  *linearNet
	acts map[string]*Tensor
}

func (p *linearPass) Activation(name string) (*Tensor, bool) {
	t, ok := p.acts[name]
	return t, ok
}

func (p *linearPass) Names() []string {
	return []string{"linear", "zero", "nan"}
}

func (p *linearPass) Backward(name string, grad *Tensor) (*Tensor, error) {
	if _, ok := p.acts[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	g := grad.Clone()
	switch name {
	case "linear":
		for i := range g.Data {
			g.Data[i] *= p.net.scale
		}
	case "zero":
		g.Zero()
	}
	return g, nil
}

func randomImage(w, h int, seed uint64) Image {
	rng := rand.New(rand.NewPCG(seed, 2))
	img := NewImage(w, h, 3)
	for i := range img.Pix {
		img.Pix[i] = rng.Float64()
	}
	return img
}

func randomTensor(c, h, w int, seed uint64) *Tensor {
	rng := rand.New(rand.NewPCG(seed, 3))
	t := NewTensor(c, h, w)
	for i := range t.Data {
		t.Data[i] = rng.Float64()*2 - 1
	}
	return t
}
