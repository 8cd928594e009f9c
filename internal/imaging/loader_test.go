package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createInMemoryImage creates a test image filled with c.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// encodeTestPNG returns img encoded as PNG.
func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// createTestImage writes a PNG of the given size and color and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")
	if err := os.WriteFile(path, encodeTestPNG(t, createInMemoryImage(width, height, c)), 0o600); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func TestDecode(t *testing.T) {
	var jpegBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, createInMemoryImage(12, 9, color.RGBA{10, 200, 30, 255}), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}

	tests := []struct {
		name       string
		data       []byte
		wantFormat string
	}{
		{"png", encodeTestPNG(t, createInMemoryImage(12, 9, color.White)), "png"},
		{"jpeg", jpegBuf.Bytes(), "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, format, err := Decode(tt.data, 0)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if format != tt.wantFormat {
				t.Errorf("format: got %s, want %s", format, tt.wantFormat)
			}
			if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 9 {
				t.Errorf("dimensions: got %dx%d, want 12x9", img.Bounds().Dx(), img.Bounds().Dy())
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not an image"), {0x89, 'P', 'N', 'G'}} {
		if _, _, err := Decode(data, 0); err == nil {
			t.Errorf("expected error decoding %q", data)
		}
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring an 8-bit
// grayscale image of the given size, with no pixel data behind it.
func pngHeader(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth; color type, compression, filter and interlace stay 0

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecode_PixelLimit(t *testing.T) {
	small := encodeTestPNG(t, createInMemoryImage(100, 100, color.White))

	if _, _, err := Decode(small, 10000); err != nil {
		t.Errorf("image at the limit should be accepted: %v", err)
	}
	if _, _, err := Decode(small, 9999); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error: got %v, want ErrTooLarge", err)
	}

	// A few dozen bytes declaring 30000x30000 pixels must be rejected from
	// the header alone under the default limit.
	huge := pngHeader(30000, 30000)
	if _, _, err := Decode(huge, 0); !errors.Is(err, ErrTooLarge) {
		t.Errorf("forged header error: got %v, want ErrTooLarge", err)
	}
	if _, err := Info(huge, 0); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Info error: got %v, want ErrTooLarge", err)
	}
}

func TestEncodePNG_Deterministic(t *testing.T) {
	img := createInMemoryImage(30, 30, color.RGBA{1, 2, 3, 255})

	a, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	b, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("encoding the same image twice produced different bytes")
	}
	if _, err := png.Decode(bytes.NewReader(a)); err != nil {
		t.Errorf("output is not a valid PNG: %v", err)
	}
}

func TestReadFile(t *testing.T) {
	path := createTestImage(t, 50, 50, color.Black)

	data, err := ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("ReadFile returned no data")
	}

	if _, err := ReadFile(path, int64(len(data))); err != nil {
		t.Errorf("file at the limit should be accepted: %v", err)
	}
	if _, err := ReadFile(path, int64(len(data)-1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error: got %v, want ErrTooLarge", err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.png"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadAll(t *testing.T) {
	payload := strings.Repeat("x", 100)

	if data, err := ReadAll(strings.NewReader(payload), 100); err != nil || len(data) != 100 {
		t.Errorf("at limit: got %d bytes, err %v", len(data), err)
	}
	if _, err := ReadAll(strings.NewReader(payload), 99); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error: got %v, want ErrTooLarge", err)
	}
	if data, err := ReadAll(strings.NewReader(payload), 0); err != nil || len(data) != 100 {
		t.Errorf("unbounded: got %d bytes, err %v", len(data), err)
	}
}

func TestDecodeBase64(t *testing.T) {
	raw := []byte("some image bytes")
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name  string
		input string
	}{
		{"plain", encoded},
		{"data url", "data:image/png;base64," + encoded},
		{"surrounding space", "  " + encoded + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64(tt.input, 0)
			if err != nil {
				t.Fatalf("DecodeBase64 failed: %v", err)
			}
			if !bytes.Equal(got, raw) {
				t.Errorf("got %q, want %q", got, raw)
			}
		})
	}

	if _, err := DecodeBase64(encoded, 4); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error: got %v, want ErrTooLarge", err)
	}
	if _, err := DecodeBase64("***", 0); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestInfo(t *testing.T) {
	opaque := encodeTestPNG(t, createInMemoryImage(40, 20, color.RGBA{255, 0, 0, 255}))

	info, err := Info(opaque, 0)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Width != 40 || info.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 40x20", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.ColorDepth != "8-bit" {
		t.Errorf("ColorDepth: got %s, want 8-bit", info.ColorDepth)
	}
	if info.HasAlpha {
		t.Error("HasAlpha: got true, want false")
	}
	if info.SizeBytes != int64(len(opaque)) {
		t.Errorf("SizeBytes: got %d, want %d", info.SizeBytes, len(opaque))
	}

	translucent := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	translucent.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 128})
	info, err = Info(encodeTestPNG(t, translucent), 0)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if !info.HasAlpha {
		t.Error("HasAlpha: got false, want true")
	}

	deep := image.NewGray16(image.Rect(0, 0, 3, 3))
	deep.SetGray16(1, 1, color.Gray16{Y: 0x1234})
	info, err = Info(encodeTestPNG(t, deep), 0)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.ColorDepth != "16-bit" {
		t.Errorf("ColorDepth: got %s, want 16-bit", info.ColorDepth)
	}
}
