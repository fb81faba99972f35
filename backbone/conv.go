package backbone

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/setanarut/deepdream"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// bandBudget caps the number of im2col elements one worker holds.
var bandBudget = 1 << 20

type conv struct {
	layerName string
	in, out   int
	k         int
	relu      bool

	weight *mat.Dense // out × in·k·k, rows laid out as [c][ky][kx]
	bias   []float64
	// flipped is the weight transposed over channels and rotated 180°,
	// in × out·k·k. Convolving an output gradient with it yields the
	// input gradient.
	flipped *mat.Dense
}

func newConv(spec LayerSpec, in int, seed uint64) (*conv, error) {
	if spec.Filters < 1 {
		return nil, fmt.Errorf("%w: layer %q needs at least one filter", deepdream.ErrInvalidConfig, spec.Name)
	}
	if spec.KernelSize < 1 || spec.KernelSize%2 == 0 {
		return nil, fmt.Errorf("%w: layer %q kernel size %d must be odd", deepdream.ErrInvalidConfig, spec.Name, spec.KernelSize)
	}
	c := &conv{
		layerName: spec.Name,
		in:        in,
		out:       spec.Filters,
		k:         spec.KernelSize,
		relu:      spec.ReLU,
		bias:      make([]float64, spec.Filters),
	}
	var w []float64
	if spec.Gabor {
		if in != 3 {
			return nil, fmt.Errorf("%w: Gabor layer %q needs 3 input channels, got %d", deepdream.ErrInvalidConfig, spec.Name, in)
		}
		w = gaborBank(spec.Filters, spec.KernelSize)
	} else {
		w = heNormal(spec.Filters, in, spec.KernelSize, seed)
	}
	c.setWeights(w)
	return c, nil
}

// heNormal draws out×in×k×k weights from N(0, 2/fan_in).
func heNormal(out, in, k int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	std := math.Sqrt(2 / float64(in*k*k))
	w := make([]float64, out*in*k*k)
	for i := range w {
		w[i] = rng.NormFloat64() * std
	}
	return w
}

// setWeights installs w, laid out as [out][in][k][k], and rebuilds the
// flipped copy.
func (c *conv) setWeights(w []float64) {
	kk := c.k * c.k
	c.weight = mat.NewDense(c.out, c.in*kk, w)
	flipped := make([]float64, c.in*c.out*kk)
	for f := range c.out {
		for ch := range c.in {
			for ky := range c.k {
				for kx := range c.k {
					src := ((f*c.in+ch)*c.k+ky)*c.k + kx
					dst := ((ch*c.out+f)*c.k+(c.k-1-ky))*c.k + (c.k - 1 - kx)
					flipped[dst] = w[src]
				}
			}
		}
	}
	c.flipped = mat.NewDense(c.in, c.out*kk, flipped)
}

func (c *conv) name() string { return c.layerName }

func (c *conv) forward(x *deepdream.Tensor) (*deepdream.Tensor, record) {
	y := convolve(x, c.weight, c.out, c.k)
	plane := y.H * y.W
	for f, b := range c.bias {
		p := y.Data[f*plane : (f+1)*plane]
		for i := range p {
			v := p[i] + b
			if c.relu && v < 0 {
				v = 0
			}
			p[i] = v
		}
	}
	return y, record{out: y, inC: x.C, inH: x.H, inW: x.W}
}

func (c *conv) backward(rec record, grad *deepdream.Tensor) *deepdream.Tensor {
	g := grad
	if c.relu {
		g = grad.Clone()
		for i, v := range rec.out.Data {
			if v <= 0 {
				g.Data[i] = 0
			}
		}
	}
	return convolve(g, c.flipped, c.in, c.k)
}

// convolve computes a stride-1 convolution of x with zero "same" padding.
// w holds outC rows of x.C·k·k weights. Rows of the output are processed in
// bands, each lowered to a matrix product.
func convolve(x *deepdream.Tensor, w *mat.Dense, outC, k int) *deepdream.Tensor {
	y := deepdream.NewTensor(outC, x.H, x.W)
	if x.H == 0 || x.W == 0 {
		return y
	}
	rows := max(1, bandBudget/(x.C*k*k*x.W))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y0 := 0; y0 < x.H; y0 += rows {
		y1 := min(x.H, y0+rows)
		g.Go(func() error {
			convBand(x, w, y, k, y0, y1)
			return nil
		})
	}
	g.Wait()
	return y
}

// convBand fills output rows [y0, y1) of y.
func convBand(x *deepdream.Tensor, w *mat.Dense, y *deepdream.Tensor, k, y0, y1 int) {
	n := (y1 - y0) * x.W
	cols := mat.NewDense(x.C*k*k, n, im2col(x, k, y0, y1))

	// View the band of every output plane as one outC × n matrix.
	var dst mat.Dense
	dst.SetRawMatrix(blas64.General{
		Rows:   y.C,
		Cols:   n,
		Stride: y.H * y.W,
		Data:   y.Data[y0*y.W:],
	})
	dst.Mul(w, cols)
}

// im2col lowers rows [y0, y1) of x into a (C·k·k) × ((y1-y0)·W) matrix.
// Taps outside the image read as zero.
func im2col(x *deepdream.Tensor, k, y0, y1 int) []float64 {
	pad := k / 2
	n := (y1 - y0) * x.W
	cols := make([]float64, x.C*k*k*n)
	for ch := range x.C {
		plane := x.Plane(ch)
		for ky := range k {
			for kx := range k {
				row := cols[((ch*k+ky)*k+kx)*n:][:n]
				dx := kx - pad
				for yy := y0; yy < y1; yy++ {
					sy := yy + ky - pad
					if sy < 0 || sy >= x.H {
						continue
					}
					src := plane[sy*x.W : (sy+1)*x.W]
					dst := row[(yy-y0)*x.W : (yy-y0+1)*x.W]
					lo, hi := max(0, -dx), min(x.W, x.W-dx)
					if lo < hi {
						copy(dst[lo:hi], src[lo+dx:hi+dx])
					}
				}
			}
		}
	}
	return cols
}
