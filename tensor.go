package deepdream

import "fmt"

// Tensor is a channel-major C×H×W float buffer. The batch dimension is
// always 1.
type Tensor struct {
	C, H, W int
	Data    []float64 // len = C*H*W
}

func NewTensor(c, h, w int) *Tensor {
	return &Tensor{C: c, H: h, W: w, Data: make([]float64, c*h*w)}
}

// Shape reports the tensor as batch×channel×height×width.
func (t *Tensor) Shape() [4]int {
	return [4]int{1, t.C, t.H, t.W}
}

func (t *Tensor) SameShape(o *Tensor) bool {
	return t.C == o.C && t.H == o.H && t.W == o.W
}

func (t *Tensor) Clone() *Tensor {
	c := NewTensor(t.C, t.H, t.W)
	copy(c.Data, t.Data)
	return c
}

// Plane returns the H*W slice of channel ch.
func (t *Tensor) Plane(ch int) []float64 {
	n := t.H * t.W
	return t.Data[ch*n : (ch+1)*n]
}

func (t *Tensor) Zero() {
	clear(t.Data)
}

func (t *Tensor) String() string {
	return fmt.Sprintf("tensor%v", t.Shape())
}

// Roll cyclically shifts the spatial content by dh rows and dw columns.
// Content leaving one edge re-enters on the opposite edge.
func (t *Tensor) Roll(dh, dw int) {
	h, w := t.H, t.W
	if h == 0 || w == 0 {
		return
	}
	dh = ((dh % h) + h) % h
	dw = ((dw % w) + w) % w
	if dh == 0 && dw == 0 {
		return
	}
	buf := make([]float64, h*w)
	for ch := range t.C {
		plane := t.Plane(ch)
		for y := range h {
			dstRow := ((y + dh) % h) * w
			srcRow := y * w
			// Split the row copy at the wrap point.
			copy(buf[dstRow+dw:dstRow+w], plane[srcRow:srcRow+w-dw])
			copy(buf[dstRow:dstRow+dw], plane[srcRow+w-dw:srcRow+w])
		}
		copy(plane, buf)
	}
}

// Unroll undoes Roll(dh, dw).
func (t *Tensor) Unroll(dh, dw int) {
	t.Roll(-dh, -dw)
}

// Image converts the tensor to an interleaved H×W×C image without changing
// its value range.
func (t *Tensor) Image() Image {
	img := NewImage(t.W, t.H, t.C)
	n := t.H * t.W
	for ch := range t.C {
		plane := t.Data[ch*n : (ch+1)*n]
		for i, v := range plane {
			img.Pix[i*t.C+ch] = v
		}
	}
	return img
}
