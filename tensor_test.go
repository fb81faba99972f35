package deepdream

import "testing"

// TestRollWraps verifies that content leaving one edge re-enters on the
// opposite edge.
func TestRollWraps(t *testing.T) {
	x := NewTensor(1, 2, 3)
	copy(x.Data, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	x.Roll(1, 1)
	want := []float64{
		6, 4, 5,
		3, 1, 2,
	}
	for i, v := range want {
		if x.Data[i] != v {
			t.Errorf("Expected data[%d]=%g, got %g", i, v, x.Data[i])
		}
	}
}

// TestRollUnrollIdentity verifies the round trip for offsets of any sign
// and size.
func TestRollUnrollIdentity(t *testing.T) {
	orig := randomTensor(3, 7, 11, 1)
	offsets := [][2]int{{0, 0}, {3, -4}, {-7, 11}, {100, -100}, {-1, 25}}
	for _, o := range offsets {
		x := orig.Clone()
		x.Roll(o[0], o[1])
		x.Unroll(o[0], o[1])
		for i := range x.Data {
			if x.Data[i] != orig.Data[i] {
				t.Fatalf("offset %v: expected data[%d]=%g, got %g", o, i, orig.Data[i], x.Data[i])
			}
		}
	}
}

// TestTensorImageRoundTrip verifies the channel-major and interleaved
// layouts convert losslessly.
func TestTensorImageRoundTrip(t *testing.T) {
	img := randomImage(5, 4, 9)
	x := img.Tensor()
	if x.Shape() != [4]int{1, 3, 4, 5} {
		t.Fatalf("Expected shape [1 3 4 5], got %v", x.Shape())
	}
	back := x.Image()
	for i := range img.Pix {
		if back.Pix[i] != img.Pix[i] {
			t.Fatalf("Expected pix[%d]=%g, got %g", i, img.Pix[i], back.Pix[i])
		}
	}
}
