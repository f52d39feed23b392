package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

// Image converts the colour buffer to an RGBA image.
func (s *Surface) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			i := (y*s.Width + x) * 3
			img.SetRGBA(x, y, color.RGBA{R: s.Color[i], G: s.Color[i+1], B: s.Color[i+2], A: 255})
		}
	}
	return img
}

// RGBImage wraps a flat RGB buffer, such as a normal map, as an image.
func RGBImage(buf []uint8, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			img.SetRGBA(x, y, color.RGBA{R: buf[i], G: buf[i+1], B: buf[i+2], A: 255})
		}
	}
	return img
}

// AlphaImage wraps a cloud mask as a white image with that alpha.
func AlphaImage(mask []uint8, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: mask[y*width+x]})
		}
	}
	return img
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
