package vision

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")
	img := blank(8, 6)
	img.Set(2, 3, Red)

	path, err := SaveSnapshot(dir, "window-", img)
	if err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "window-") || filepath.Ext(path) != ".png" {
		t.Errorf("unexpected snapshot name %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, 8, 6) {
		t.Errorf("bounds = %v, want 8x6", decoded.Bounds())
	}

	second, err := SaveSnapshot(dir, "window-", img)
	if err != nil {
		t.Fatal(err)
	}
	if second == path {
		t.Error("expected unique snapshot names")
	}
}
