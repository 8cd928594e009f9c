package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/otsu-segment-mcp/internal/config"
	"github.com/ironsheep/otsu-segment-mcp/internal/imaging"
	"github.com/ironsheep/otsu-segment-mcp/internal/segment"
)

// encodeStripes returns a PNG of alternating dark and light columns.
func encodeStripes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(40)
			if x%2 == 1 {
				v = 180
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func TestRunSegment_Files(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	if err := os.WriteFile(in, encodeStripes(t, 6, 3), 0o600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	if err := runSegment(config.Default(), zerolog.Nop(), []string{"-polarity", "bright-black", in, out}, nil, nil); err != nil {
		t.Fatalf("runSegment failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 3 {
		t.Errorf("dimensions: got %v, want 6x3", img.Bounds())
	}
	// Inverted polarity: dark column becomes white.
	if g := color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y; g != 255 {
		t.Errorf("pixel (0,0): got %d, want 255", g)
	}
}

func TestRunSegment_Stdio(t *testing.T) {
	var stdout bytes.Buffer
	stdin := bytes.NewReader(encodeStripes(t, 4, 4))

	if err := runSegment(config.Default(), zerolog.Nop(), []string{"-", "-"}, stdin, &stdout); err != nil {
		t.Fatalf("runSegment failed: %v", err)
	}
	if _, err := png.Decode(&stdout); err != nil {
		t.Errorf("stdout is not a PNG: %v", err)
	}
}

func TestRunSegment_Uniform(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	err := runSegment(config.Default(), zerolog.Nop(), []string{"-", "-"}, bytes.NewReader(buf.Bytes()), &bytes.Buffer{})
	if !errors.Is(err, segment.ErrEmptyScoreTable) {
		t.Errorf("error: got %v, want ErrEmptyScoreTable", err)
	}

	var out bytes.Buffer
	if err := runSegment(config.Default(), zerolog.Nop(), []string{"-fallback", "0", "-", "-"}, bytes.NewReader(buf.Bytes()), &out); err != nil {
		t.Fatalf("runSegment with fallback failed: %v", err)
	}
	if out.Len() == 0 {
		t.Error("no output written")
	}
}

func TestRunSegment_PixelLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxPixels = 15

	err := runSegment(cfg, zerolog.Nop(), []string{"-", "-"}, bytes.NewReader(encodeStripes(t, 4, 4)), &bytes.Buffer{})
	if !errors.Is(err, imaging.ErrTooLarge) {
		t.Errorf("error: got %v, want ErrTooLarge", err)
	}
}

func TestRunSegment_BadArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing output", []string{"in.png"}, "expects <in> and <out>"},
		{"bad polarity", []string{"-polarity", "sideways", "-", "-"}, "unknown polarity"},
		{"bad fallback", []string{"-fallback", "256", "-", "-"}, "fallback_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runSegment(config.Default(), zerolog.Nop(), tt.args, strings.NewReader(""), &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error: got %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	if !strings.Contains(buf.String(), "segment") || !strings.Contains(buf.String(), "OTSU_SEGMENT_LOG_LEVEL") {
		t.Errorf("usage missing expected content:\n%s", buf.String())
	}
}
