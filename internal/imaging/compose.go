package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Monochrome is the palette of binary results: index 0 is black, index 1 white.
// The PNG encoder writes two-color paletted images at 1 bit per pixel.
var Monochrome = color.Palette{color.Black, color.White}

// Compose builds the image to encode from a binary grid and its source.
//
// If src is fully opaque the result is a two-color paletted image. Otherwise
// the result is NRGBA with the binary value in R, G and B and the alpha
// channel taken from src, so transparent regions stay transparent.
//
// binary and src must have the same dimensions; binary is expected to be
// anchored at (0,0).
func Compose(binary *image.Gray, src image.Image) image.Image {
	bounds := binary.Bounds()
	width := bounds.Dx()

	if isOpaque(src) {
		dst := image.NewPaletted(bounds, Monochrome)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			in := binary.Pix[binary.PixOffset(bounds.Min.X, y):][:width]
			out := dst.Pix[dst.PixOffset(bounds.Min.X, y):][:width]
			for x, v := range in {
				if v != 0 {
					out[x] = 1
				}
			}
		}
		return dst
	}

	alpha := imaging.Clone(src)
	dst := image.NewNRGBA(bounds)
	for y := 0; y < bounds.Dy(); y++ {
		in := binary.Pix[binary.PixOffset(bounds.Min.X, bounds.Min.Y+y):][:width]
		a := alpha.Pix[y*alpha.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x, v := range in {
			out[x*4] = v
			out[x*4+1] = v
			out[x*4+2] = v
			out[x*4+3] = a[x*4+3]
		}
	}
	return dst
}

// Blur applies a Gaussian blur with the given radius. A radius of zero or
// less returns img unchanged.
func Blur(img image.Image, radius float64) image.Image {
	if radius <= 0 {
		return img
	}
	return blur.Gaussian(img, radius)
}
