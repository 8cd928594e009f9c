package segment

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Mode selects how color channels are combined into a single intensity.
type Mode int

const (
	// ModeLuminance weights channels with ITU-R BT.709 coefficients
	// (0.2126 R + 0.7152 G + 0.0722 B) and truncates the result.
	ModeLuminance Mode = iota

	// ModeAverage takes the integer mean of R, G and B.
	ModeAverage

	// ModeLightness uses the CIE L* component scaled to 0-255.
	ModeLightness
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLuminance:
		return "luminance"
	case ModeAverage:
		return "average"
	case ModeLightness:
		return "lightness"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration name into a Mode.
// The empty string selects ModeLuminance.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "luminance":
		return ModeLuminance, nil
	case "average":
		return ModeAverage, nil
	case "lightness":
		return ModeLightness, nil
	default:
		return 0, fmt.Errorf("unknown grayscale mode: %s", s)
	}
}

// Grayscale converts img into an 8-bit grayscale grid with bounds
// (0,0)-(width,height).
//
// Single-channel images (*image.Gray and *image.Gray16) are copied through
// unchanged regardless of mode; 16-bit samples keep their high byte. All other
// images are first normalized to non-premultiplied 8-bit RGBA, so the alpha
// channel does not darken the result.
//
// A zero-width or zero-height input produces an empty grid.
func Grayscale(img image.Image, mode Mode) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	gray := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return gray
	}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+width], src.Pix[srcOff:srcOff+width])
		}
		return gray
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y
				gray.Pix[y*gray.Stride+x] = uint8(v >> 8)
			}
		}
		return gray
	}

	nrgba := imaging.Clone(img)
	for y := 0; y < height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+width*4]
		out := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for x := range out {
			r, g, b := row[x*4], row[x*4+1], row[x*4+2]
			out[x] = intensity(r, g, b, mode)
		}
	}

	return gray
}

// intensity maps one pixel's channels to a gray level.
func intensity(r, g, b uint8, mode Mode) uint8 {
	switch mode {
	case ModeAverage:
		return uint8((int(r) + int(g) + int(b)) / 3)
	case ModeLightness:
		c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
		l, _, _ := c.Lab()
		return uint8(math.Max(0, math.Min(255, math.Round(l*255))))
	default:
		// Fixed-point BT.709 so that pure white stays exactly 255.
		return uint8((2126*int(r) + 7152*int(g) + 722*int(b)) / 10000)
	}
}
