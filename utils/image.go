package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/deepdream"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Shape is a resize target for ReadImage. A zero Height keeps the aspect
// ratio of the source; both zero keeps the source size.
type Shape struct {
	Width, Height int
}

// ReadImage decodes the file at path into a display-range RGB image,
// optionally resized to shape with Catmull-Rom (cubic) interpolation.
func ReadImage(path string, shape Shape) (deepdream.Image, error) {
	if shape.Width < 0 || shape.Height < 0 || (shape.Width == 0 && shape.Height > 0) {
		return deepdream.Image{}, fmt.Errorf("%w: target shape %dx%d", deepdream.ErrInvalidConfig, shape.Width, shape.Height)
	}
	src, err := decodeFile(path)
	if err != nil {
		return deepdream.Image{}, err
	}
	if shape.Width > 0 {
		b := src.Bounds()
		w, h := shape.Width, shape.Height
		if h == 0 {
			h = max(1, int(float64(b.Dy())*(float64(w)/float64(b.Dx()))))
		}
		if w != b.Dx() || h != b.Dy() {
			dst := image.NewNRGBA(image.Rect(0, 0, w, h))
			draw.CatmullRom.Scale(dst, dst.Rect, src, b, draw.Src, nil)
			src = dst
		}
	}
	return deepdream.FromGoImage(src), nil
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", deepdream.ErrNotFound, path)
		}
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SaveFrame quantizes a display-range image to 8 bits and writes it.
func SaveFrame(img deepdream.Image, filename string) error {
	return SaveImage(img.NRGBA(), filename)
}

// SaveImage encodes img as JPEG or PNG depending on the file extension,
// creating the parent directory if needed.
func SaveImage(img image.Image, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
