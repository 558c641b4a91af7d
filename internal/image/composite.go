package image

import (
	"image"
	"image/color"
	"image/draw"
)

// Flatten composites img over an opaque background and returns the result
// with its origin at (0, 0). Partially transparent pixels are blended.
func Flatten(img image.Image, background color.Color) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Grayscale converts img to 8-bit luminance with ITU-R 601 weights, with its
// origin at (0, 0). Alpha is ignored; flatten first if it matters.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum := (19595*r + 38470*g + 7471*bl + 1<<15) >> 24
			gray.Pix[y*gray.Stride+x] = uint8(lum)
		}
	}
	return gray
}
