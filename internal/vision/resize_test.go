package vision

import (
	"image"
	"testing"
)

func TestDownscale(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		maxWidth   int
		wantW      int
		wantH      int
		wantFactor float64
	}{
		{"disabled", 640, 480, 0, 640, 480, 1},
		{"already small", 320, 240, 640, 320, 240, 1},
		{"halved", 1280, 720, 640, 640, 360, 2},
		{"quarter", 1600, 1200, 400, 400, 300, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got, factor := Downscale(img, tt.maxWidth)
			if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", got.Bounds().Dx(), got.Bounds().Dy(), tt.wantW, tt.wantH)
			}
			if factor != tt.wantFactor {
				t.Errorf("factor = %v, want %v", factor, tt.wantFactor)
			}
		})
	}
}
