package segment

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/otsu-segment-mcp/internal/imaging"
)

var (
	// ErrDecode wraps failures to decode the input bytes.
	ErrDecode = errors.New("decode failed")

	// ErrEmptyScoreTable is returned when no threshold splits the histogram
	// into two non-empty classes, e.g. for a single-color image.
	ErrEmptyScoreTable = errors.New("no valid threshold candidate")

	// ErrEncode wraps failures to encode the result.
	ErrEncode = errors.New("encode failed")

	// ErrRegion wraps a region that does not fit inside the image.
	ErrRegion = errors.New("invalid region")
)

// Options controls a segmentation run. The zero value uses BT.709 luminance,
// maps bright pixels to white and fails on degenerate images.
type Options struct {
	// Grayscale selects the channel combination.
	Grayscale Mode

	// Polarity selects which side of the threshold becomes white.
	Polarity Polarity

	// Fallback, when set, is used as the threshold for images whose score
	// table is empty instead of failing with ErrEmptyScoreTable.
	Fallback *uint8

	// BlurRadius applies a Gaussian blur before grayscale conversion.
	// Zero disables it.
	BlurRadius float64

	// Region restricts segmentation to part of the image. Nil means the
	// whole image.
	Region *imaging.Region

	// MaxPixels bounds the declared size of decoded images. Zero selects
	// imaging.DefaultMaxPixels.
	MaxPixels int64
}

// Result describes one segmentation.
type Result struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Threshold is the selected gray level; pixels strictly above it form
	// the bright class.
	Threshold uint8 `json:"threshold"`

	// Score is the winning candidate's weighted within-class variance. It is
	// zero when Fallback is true.
	Score float64 `json:"score"`

	// Candidates is the number of valid entries in the score table.
	Candidates int `json:"candidates"`

	// Fallback reports whether Options.Fallback supplied the threshold.
	Fallback bool `json:"fallback"`

	Histogram Histogram   `json:"-"`
	Scores    ScoreTable  `json:"-"`
	Binary    *image.Gray `json:"-"`

	// Source is the image that was segmented, after any region crop. Its
	// alpha channel is carried into the encoded output.
	Source image.Image `json:"-"`
}

// Decode turns encoded bytes into an image, applying opts.MaxPixels.
// Oversized images fail with imaging.ErrTooLarge; everything else the
// decoder rejects is wrapped in ErrDecode.
func Decode(data []byte, opts Options) (image.Image, error) {
	img, _, err := imaging.Decode(data, opts.MaxPixels)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// Prepare runs the steps that precede thresholding: region crop, blur and
// grayscale conversion. The histogram of the returned grid is the one Apply
// scores.
func Prepare(img image.Image, opts Options) (*image.Gray, error) {
	_, gray, err := prepare(img, opts)
	return gray, err
}

// prepare is Prepare that also returns the cropped source image.
func prepare(img image.Image, opts Options) (image.Image, *image.Gray, error) {
	if opts.Region != nil {
		cropped, err := imaging.Crop(img, *opts.Region)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrRegion, err)
		}
		img = cropped
	}

	return img, Grayscale(imaging.Blur(img, opts.BlurRadius), opts.Grayscale), nil
}

// Apply segments an already decoded image.
func Apply(img image.Image, opts Options) (*Result, error) {
	img, gray, err := prepare(img, opts)
	if err != nil {
		return nil, err
	}

	hist := BuildHistogram(gray)
	scores := ScoreCandidates(hist)

	res := &Result{
		Width:      gray.Bounds().Dx(),
		Height:     gray.Bounds().Dy(),
		Candidates: len(scores),
		Histogram:  hist,
		Scores:     scores,
		Source:     img,
	}

	best, err := scores.Best()
	switch {
	case err == nil:
		res.Threshold = best.Threshold
		res.Score = best.Score
	case errors.Is(err, ErrEmptyScoreTable) && opts.Fallback != nil:
		res.Threshold = *opts.Fallback
		res.Fallback = true
	default:
		return nil, fmt.Errorf("%w: %d occupied gray levels in %dx%d image",
			err, hist.NonZero(), res.Width, res.Height)
	}

	res.Binary = Binarize(gray, res.Threshold, opts.Polarity)
	return res, nil
}

// Segment decodes data, segments it and returns the binary image as PNG.
func Segment(data []byte, opts Options) ([]byte, error) {
	_, out, err := SegmentWithResult(data, opts)
	return out, err
}

// SegmentWithResult is Segment that also returns the segmentation details.
func SegmentWithResult(data []byte, opts Options) (*Result, []byte, error) {
	img, err := Decode(data, opts)
	if err != nil {
		return nil, nil, err
	}

	res, err := Apply(img, opts)
	if err != nil {
		return nil, nil, err
	}

	out, err := imaging.EncodePNG(imaging.Compose(res.Binary, res.Source))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return res, out, nil
}
