package segment

import (
	"fmt"
	"image"
)

// Polarity decides which side of the threshold becomes white.
type Polarity int

const (
	// PolarityBrightWhite maps intensities above the threshold to 255.
	PolarityBrightWhite Polarity = iota

	// PolarityBrightBlack maps intensities above the threshold to 0.
	PolarityBrightBlack
)

// String returns the configuration name of the polarity.
func (p Polarity) String() string {
	switch p {
	case PolarityBrightWhite:
		return "bright-white"
	case PolarityBrightBlack:
		return "bright-black"
	default:
		return fmt.Sprintf("Polarity(%d)", int(p))
	}
}

// ParsePolarity converts a configuration name into a Polarity.
// The empty string selects PolarityBrightWhite.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "", "bright-white":
		return PolarityBrightWhite, nil
	case "bright-black", "inverted":
		return PolarityBrightBlack, nil
	default:
		return 0, fmt.Errorf("unknown polarity: %s", s)
	}
}

// Binarize rewrites every pixel of g to 0 or 255 depending on whether it is
// strictly brighter than t. The result has the same bounds as g.
func Binarize(g *image.Gray, t uint8, p Polarity) *image.Gray {
	var above, below uint8 = 255, 0
	if p == PolarityBrightBlack {
		above, below = 0, 255
	}

	bounds := g.Bounds()
	width := bounds.Dx()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		src := g.Pix[g.PixOffset(bounds.Min.X, y):][:width]
		out := dst.Pix[dst.PixOffset(bounds.Min.X, y):][:width]
		for x, v := range src {
			if v > t {
				out[x] = above
			} else {
				out[x] = below
			}
		}
	}

	return dst
}
