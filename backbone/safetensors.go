package backbone

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"

	"github.com/setanarut/deepdream"
)

type tensorInfo struct {
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset []int  `json:"data_offsets"`
}

type namedTensor struct {
	shape []int
	data  []float64
}

// readSafetensors decodes every F32 or F64 tensor in a safetensors file.
func readSafetensors(path string) (map[string]namedTensor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", deepdream.ErrNotFound, path)
		}
		return nil, err
	}
	return parseSafetensors(raw)
}

func parseSafetensors(raw []byte) (map[string]namedTensor, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("safetensors: %d bytes is too short for a header", len(raw))
	}
	headerSize := binary.LittleEndian.Uint64(raw[:8])
	if headerSize > uint64(len(raw)-8) {
		return nil, fmt.Errorf("safetensors: header size %d exceeds file", headerSize)
	}
	var header map[string]json.RawMessage
	if err := json.Unmarshal(raw[8:8+headerSize], &header); err != nil {
		return nil, fmt.Errorf("safetensors: header: %w", err)
	}
	data := raw[8+headerSize:]

	tensors := make(map[string]namedTensor, len(header))
	for name, msg := range header {
		if name == "__metadata__" {
			continue
		}
		var info tensorInfo
		if err := json.Unmarshal(msg, &info); err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: %w", name, err)
		}
		var width int
		switch info.DType {
		case "F32":
			width = 4
		case "F64":
			width = 8
		default:
			return nil, fmt.Errorf("safetensors: tensor %q has unsupported dtype %s", name, info.DType)
		}
		count := 1
		for _, d := range info.Shape {
			if d < 0 {
				return nil, fmt.Errorf("safetensors: tensor %q has negative dimension", name)
			}
			count *= d
		}
		if len(info.Offset) != 2 {
			return nil, fmt.Errorf("safetensors: tensor %q has malformed offsets", name)
		}
		start, end := info.Offset[0], info.Offset[1]
		if start < 0 || end > len(data) || end-start != count*width {
			return nil, fmt.Errorf("safetensors: tensor %q offsets [%d, %d) do not match %d×%s", name, start, end, count, info.DType)
		}
		buf := data[start:end]
		values := make([]float64, count)
		for i := range values {
			if width == 4 {
				values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
			} else {
				values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
			}
		}
		tensors[name] = namedTensor{shape: info.Shape, data: values}
	}
	return tensors, nil
}

// LoadSafetensors replaces convolution weights with the tensors named
// "<layer>.weight" (shape [filters, channels, k, k]) and "<layer>.bias"
// (shape [filters]). Layers without a matching tensor keep their weights.
// It returns the number of tensors applied.
func (n *Network) LoadSafetensors(path string) (int, error) {
	tensors, err := readSafetensors(path)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, l := range n.layers {
		c, ok := l.(*conv)
		if !ok {
			continue
		}
		if t, ok := tensors[c.layerName+".weight"]; ok {
			want := []int{c.out, c.in, c.k, c.k}
			if !slices.Equal(t.shape, want) {
				return applied, fmt.Errorf("%w: %s.weight is %v, layer needs %v", deepdream.ErrShape, c.layerName, t.shape, want)
			}
			c.setWeights(t.data)
			applied++
		}
		if t, ok := tensors[c.layerName+".bias"]; ok {
			if !slices.Equal(t.shape, []int{c.out}) {
				return applied, fmt.Errorf("%w: %s.bias is %v, layer needs [%d]", deepdream.ErrShape, c.layerName, t.shape, c.out)
			}
			copy(c.bias, t.data)
			applied++
		}
	}
	return applied, nil
}
