package segment

import "image"

// Levels is the number of distinct 8-bit intensity values.
const Levels = 256

// Histogram counts pixels per intensity: h[v] is the number of pixels whose
// gray level is v. The sum of all bins equals the pixel count of the grid it
// was built from.
type Histogram [Levels]int

// BuildHistogram counts the intensities of g in a single pass.
func BuildHistogram(g *image.Gray) Histogram {
	var h Histogram

	bounds := g.Bounds()
	width := bounds.Dx()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		off := g.PixOffset(bounds.Min.X, y)
		for _, v := range g.Pix[off : off+width] {
			h[v]++
		}
	}

	return h
}

// Total returns the number of pixels counted.
func (h Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// NonZero returns the number of occupied intensity levels.
func (h Histogram) NonZero() int {
	n := 0
	for _, count := range h {
		if count > 0 {
			n++
		}
	}
	return n
}
