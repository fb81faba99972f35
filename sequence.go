package deepdream

import (
	"fmt"
	"log"
)

// FrameTransform turns a finished frame into the next frame's input, for
// example a slight zoom or rotation.
type FrameTransform func(Image) (Image, error)

// FrameSink receives every finished frame in order.
type FrameSink func(index int, frame Image) error

// DreamSequence dreams frames images, feeding each result through transform
// into the next dream. A nil transform feeds results back unchanged. It
// returns the last frame. Any failure aborts the whole sequence.
func (d *Dreamer) DreamSequence(first Image, frames int, transform FrameTransform, sink FrameSink) (Image, error) {
	if frames < 1 {
		return Image{}, configErrorf("frames", frames, "must be >= 1")
	}
	if sink == nil {
		return Image{}, configErrorf("sink", nil, "required")
	}
	input := first
	var frame Image
	for i := range frames {
		if d.opt.Verbose {
			log.Printf("dream frame %d/%d", i+1, frames)
		}
		var err error
		frame, err = d.Dream(input)
		if err != nil {
			return Image{}, fmt.Errorf("deepdream: frame %d: %w", i, err)
		}
		if err := sink(i, frame); err != nil {
			return Image{}, fmt.Errorf("deepdream: frame %d: %w", i, err)
		}
		if i == frames-1 {
			break
		}
		input = frame
		if transform != nil {
			if input, err = transform(frame); err != nil {
				return Image{}, fmt.Errorf("deepdream: transform frame %d: %w", i, err)
			}
		}
	}
	return frame, nil
}
