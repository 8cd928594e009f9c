package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultMaxInputBytes is the input size bound applied when the caller does
// not configure one.
const DefaultMaxInputBytes = 1 << 20

// DefaultMaxPixels bounds the declared width*height of an image accepted by
// Decode when the caller passes no limit. It is checked against the header
// before any pixel data is decoded.
const DefaultMaxPixels = 1 << 26

// ErrTooLarge is returned when an input exceeds the configured size bound.
var ErrTooLarge = errors.New("image exceeds maximum input size")

// Decode turns encoded image bytes into an image.
//
// Images whose header declares more than maxPixels pixels fail with
// ErrTooLarge before the pixel data is decoded. A maxPixels of zero or less
// selects DefaultMaxPixels.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. JPEG images that
// carry an EXIF orientation tag are rotated/flipped upright, so the returned
// bounds describe the oriented image.
//
// Returns:
//   - image.Image: The decoded image. The concrete type depends on the format
//     and color model (e.g., *image.NRGBA, *image.YCbCr, *image.Gray).
//   - string: The format name reported by the registered decoder.
//   - error: Non-nil if the bytes are not a decodable image.
func Decode(data []byte, maxPixels int64) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d is %d pixels, limit is %d",
			ErrTooLarge, cfg.Width, cfg.Height, pixels, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	return img, format, nil
}

// EncodePNG serializes img as PNG.
//
// Two-color *image.Paletted images are written by the encoder as 1-bit PNGs.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadFile reads an encoded image from disk, refusing files larger than
// maxBytes. A maxBytes of zero or less disables the bound.
func ReadFile(path string, maxBytes int64) ([]byte, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if maxBytes > 0 && stat.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, path, stat.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// ReadAll reads an encoded image from r, refusing inputs larger than maxBytes.
// A maxBytes of zero or less disables the bound.
func ReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}

// DecodeBase64 decodes a base64 image payload, with or without a
// "data:<mime>;base64," prefix, and applies the same size bound as ReadAll.
func DecodeBase64(s string, maxBytes int64) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, len(data), maxBytes)
	}
	return data, nil
}

// ImageInfo contains metadata about an encoded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that recognized the data: "png", "jpeg", "gif",
	// "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the encoded data in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// Info decodes data and returns its metadata. maxPixels is applied as in
// Decode.
//
// Unlike a file-extension check, the format comes from the decoder that
// accepted the bytes.
func Info(data []byte, maxPixels int64) (*ImageInfo, error) {
	img, format, err := Decode(data, maxPixels)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		ColorDepth: colorDepth,
		HasAlpha:   !isOpaque(img),
		SizeBytes:  int64(len(data)),
	}, nil
}

// isOpaque reports whether every pixel of img is fully opaque.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
