package backbone

import "github.com/setanarut/deepdream"

// maxPool is a 2×2 stride-2 max pool. Odd trailing rows and columns form
// partial windows so no input pixel is dropped.
type maxPool struct {
	layerName string
}

func (p *maxPool) name() string { return p.layerName }

func (p *maxPool) forward(x *deepdream.Tensor) (*deepdream.Tensor, record) {
	oh, ow := (x.H+1)/2, (x.W+1)/2
	y := deepdream.NewTensor(x.C, oh, ow)
	argmax := make([]int, len(y.Data))
	for ch := range x.C {
		in := x.Plane(ch)
		out := y.Plane(ch)
		base := ch * oh * ow
		for oy := range oh {
			for ox := range ow {
				at := 2*oy*x.W + 2*ox
				best := in[at]
				for sy := 2 * oy; sy < min(2*oy+2, x.H); sy++ {
					for sx := 2 * ox; sx < min(2*ox+2, x.W); sx++ {
						if v := in[sy*x.W+sx]; v > best {
							best, at = v, sy*x.W+sx
						}
					}
				}
				out[oy*ow+ox] = best
				argmax[base+oy*ow+ox] = ch*x.H*x.W + at
			}
		}
	}
	return y, record{out: y, inC: x.C, inH: x.H, inW: x.W, argmax: argmax}
}

// backward routes each output gradient to the input that won its window.
func (p *maxPool) backward(rec record, grad *deepdream.Tensor) *deepdream.Tensor {
	dx := deepdream.NewTensor(rec.inC, rec.inH, rec.inW)
	for i, g := range grad.Data {
		dx.Data[rec.argmax[i]] += g
	}
	return dx
}
