package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCrop(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	img.Set(50, 50, color.Black)

	cropped, err := Crop(img, Region{X1: 40, Y1: 40, X2: 60, Y2: 70})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if cropped.Bounds() != image.Rect(0, 0, 20, 30) {
		t.Errorf("bounds: got %v, want (0,0)-(20,30)", cropped.Bounds())
	}
	if r, _, _, _ := cropped.At(10, 10).RGBA(); r != 0 {
		t.Errorf("pixel (10,10): got r=%d, want black", r>>8)
	}
}

func TestCrop_OffsetImage(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)
	img.Set(6, 6, color.Black)
	sub := img.SubImage(image.Rect(5, 5, 10, 10))

	cropped, err := Crop(sub, Region{X1: 1, Y1: 1, X2: 2, Y2: 2})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if r, _, _, _ := cropped.At(0, 0).RGBA(); r != 0 {
		t.Errorf("pixel: got r=%d, want black", r>>8)
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name   string
		region Region
	}{
		{"negative x1", Region{-1, 0, 50, 50}},
		{"negative y1", Region{0, -1, 50, 50}},
		{"x2 beyond bounds", Region{0, 0, 101, 50}},
		{"y2 beyond bounds", Region{0, 0, 50, 101}},
		{"x1 >= x2", Region{50, 0, 50, 50}},
		{"y1 >= y2", Region{0, 50, 50, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, tt.region); err == nil {
				t.Error("expected error for invalid region")
			}
		})
	}
}
