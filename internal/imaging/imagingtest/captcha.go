// Package imagingtest renders synthetic captcha images for tests.
package imagingtest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CaptchaPNG draws text in black on a light background with a few
// deterministic speckles and returns the PNG bytes.
func CaptchaPNG(t testing.TB, text string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 235, G: 235, B: 225, A: 255}}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(20, 26),
	}
	d.DrawString(text)

	// speckle noise on a fixed lattice
	for y := 3; y < 40; y += 9 {
		for x := 5; x < 120; x += 13 {
			img.Set(x, y, color.RGBA{R: 90, G: 90, B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode captcha: %v", err)
	}
	return buf.Bytes()
}

// GrayPNG encodes a grayscale image of the given size where fill decides each
// pixel value.
func GrayPNG(t testing.TB, w, h int, fill func(x, y int) uint8) []byte {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode gray: %v", err)
	}
	return buf.Bytes()
}
