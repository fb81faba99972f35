// Package backbone is a frozen convolutional feature extractor that
// satisfies deepdream.Network. Every layer output is a named activation and
// gradients can be propagated from any of them back to the input image.
package backbone

import (
	"fmt"

	"github.com/setanarut/deepdream"
)

// LayerKind is the operation a layer performs.
type LayerKind int

const (
	// LayerConv is a stride-1, same-padded convolution with bias.
	LayerConv LayerKind = iota
	// LayerPool is a 2×2 stride-2 max pool.
	LayerPool
)

func (k LayerKind) String() string {
	switch k {
	case LayerPool:
		return "pool"
	default:
		return "conv"
	}
}

type LayerSpec struct {
	Name       string
	Kind       LayerKind
	Filters    int  // conv only
	KernelSize int  // conv only, odd
	ReLU       bool // conv only
	// Gabor initializes the layer as an oriented Gabor filter bank instead
	// of random weights. Requires 3 input channels.
	Gabor bool
}

type Config struct {
	InputChannels int
	Layers        []LayerSpec
	// Seed for the random (non-Gabor) weights.
	Seed uint64
}

// DefaultConfig is a small four-convolution extractor for RGB input with a
// Gabor first layer.
func DefaultConfig() Config {
	return Config{
		InputChannels: 3,
		Seed:          7,
		Layers: []LayerSpec{
			{Name: "conv1", Kind: LayerConv, Filters: 16, KernelSize: 7, ReLU: true, Gabor: true},
			{Name: "pool1", Kind: LayerPool},
			{Name: "conv2", Kind: LayerConv, Filters: 32, KernelSize: 3, ReLU: true},
			{Name: "pool2", Kind: LayerPool},
			{Name: "conv3", Kind: LayerConv, Filters: 64, KernelSize: 3, ReLU: true},
			{Name: "conv4", Kind: LayerConv, Filters: 64, KernelSize: 3, ReLU: true},
		},
	}
}

// layer is one step of the network. forward returns the output and the
// record that backward needs.
type layer interface {
	name() string
	forward(x *deepdream.Tensor) (*deepdream.Tensor, record)
	backward(rec record, grad *deepdream.Tensor) *deepdream.Tensor
}

type record struct {
	out    *deepdream.Tensor
	inC    int
	inH    int
	inW    int
	argmax []int
}

type Network struct {
	inputChannels int
	layers        []layer
	index         map[string]int
}

func New(cfg Config) (*Network, error) {
	if cfg.InputChannels < 1 {
		return nil, fmt.Errorf("%w: backbone input channels %d", deepdream.ErrInvalidConfig, cfg.InputChannels)
	}
	if len(cfg.Layers) == 0 {
		return nil, fmt.Errorf("%w: backbone has no layers", deepdream.ErrInvalidConfig)
	}
	n := &Network{
		inputChannels: cfg.InputChannels,
		index:         make(map[string]int, len(cfg.Layers)),
	}
	channels := cfg.InputChannels
	for i, spec := range cfg.Layers {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: backbone layer %d has no name", deepdream.ErrInvalidConfig, i)
		}
		if _, dup := n.index[spec.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate backbone layer %q", deepdream.ErrInvalidConfig, spec.Name)
		}
		switch spec.Kind {
		case LayerConv:
			c, err := newConv(spec, channels, cfg.Seed+uint64(i))
			if err != nil {
				return nil, err
			}
			n.layers = append(n.layers, c)
			channels = spec.Filters
		case LayerPool:
			n.layers = append(n.layers, &maxPool{layerName: spec.Name})
		default:
			return nil, fmt.Errorf("%w: backbone layer %q has unknown kind %d", deepdream.ErrInvalidConfig, spec.Name, spec.Kind)
		}
		n.index[spec.Name] = i
	}
	return n, nil
}

// Layers lists the activation names in evaluation order.
func (n *Network) Layers() []string {
	names := make([]string, len(n.layers))
	for i, l := range n.layers {
		names[i] = l.name()
	}
	return names
}

func (n *Network) Forward(x *deepdream.Tensor) (deepdream.Pass, error) {
	if x.C != n.inputChannels {
		return nil, fmt.Errorf("%w: backbone expects %d input channels, got %v", deepdream.ErrShape, n.inputChannels, x)
	}
	if x.H == 0 || x.W == 0 {
		return nil, fmt.Errorf("%w: empty input %v", deepdream.ErrShape, x)
	}
	p := &pass{net: n, records: make([]record, len(n.layers))}
	data := x
	for i, l := range n.layers {
		out, rec := l.forward(data)
		p.records[i] = rec
		data = out
	}
	return p, nil
}

type pass struct {
	net     *Network
	records []record
}

func (p *pass) Activation(name string) (*deepdream.Tensor, bool) {
	i, ok := p.net.index[name]
	if !ok {
		return nil, false
	}
	return p.records[i].out, true
}

func (p *pass) Names() []string {
	return p.net.Layers()
}

func (p *pass) Backward(name string, grad *deepdream.Tensor) (*deepdream.Tensor, error) {
	idx, ok := p.net.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", deepdream.ErrUnknownActivation, name)
	}
	if out := p.records[idx].out; !grad.SameShape(out) {
		return nil, fmt.Errorf("%w: gradient %v for activation %q %v", deepdream.ErrShape, grad, name, out)
	}
	g := grad
	for i := idx; i >= 0; i-- {
		g = p.net.layers[i].backward(p.records[i], g)
	}
	return g, nil
}
