package utils

import (
	"cmp"
	"fmt"
	"image"
	"log"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/setanarut/deepdream"
)

// PaletteMethod selects how a frame's color summary is computed.
type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(name string) (PaletteMethod, error) {
	switch name {
	case "dominantcolor", "":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return 0, fmt.Errorf("unknown palette method %q", name)
}

// ExtractPalette returns up to k colors of img, most prominent first.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []colorful.Color {
	if k <= 0 {
		return nil
	}
	if method == PaletteMethodKMeans {
		if p := kmeansPalette(img, k); len(p) != 0 {
			return p
		}
		log.Println("palette warning: kmeans returned empty palette, falling back to dominantcolor")
	}
	return dominantPalette(img, k)
}

func dominantPalette(img image.Image, k int) []colorful.Color {
	found := dominantcolor.FindWeight(img, k)
	slices.SortFunc(found, func(a, b dominantcolor.Color) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	out := make([]colorful.Color, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		out = append(out, col.Clamped())
	}
	return out
}

func kmeansPalette(img image.Image, k int) []colorful.Color {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample large frames.
	const maxSamples = 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}
	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{c.R, c.G, c.B})
		}
	}
	k = min(k, len(dataset))
	if k <= 0 {
		return nil
	}
	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return nil
	}
	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return cmp.Compare(len(b.Observations), len(a.Observations))
	})
	out := make([]colorful.Color, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		out = append(out, colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped())
	}
	return out
}

// SortPaletteByBrightness orders colors from darkest to brightest by
// relative luminance.
func SortPaletteByBrightness(palette []colorful.Color) {
	luma := func(c colorful.Color) float64 {
		r, g, b := c.LinearRgb()
		return 0.2126*r + 0.7152*g + 0.0722*b
	}
	slices.SortFunc(palette, func(a, b colorful.Color) int {
		return cmp.Compare(luma(a), luma(b))
	})
}

// PaletteHex formats the palette as #rrggbb strings.
func PaletteHex(palette []colorful.Color) []string {
	out := make([]string, len(palette))
	for i, c := range palette {
		out[i] = c.Hex()
	}
	return out
}

// PaletteSwatch renders the palette as a display-range row of tileSize
// squares, in palette order.
func PaletteSwatch(palette []colorful.Color, tileSize int) deepdream.Image {
	img := deepdream.NewImage(tileSize*len(palette), tileSize, 3)
	for x := range img.W {
		c := palette[x/tileSize].Clamped()
		for y := range tileSize {
			off := (y*img.W + x) * 3
			img.Pix[off], img.Pix[off+1], img.Pix[off+2] = c.R, c.G, c.B
		}
	}
	return img
}

// SavePalette writes the swatch of palette. A non-positive tileSize means 64.
func SavePalette(palette []colorful.Color, tileSize int, filename string) error {
	if len(palette) == 0 {
		return fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	return SaveFrame(PaletteSwatch(palette, tileSize), filename)
}
