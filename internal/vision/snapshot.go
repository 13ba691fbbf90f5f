package vision

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SaveSnapshot writes img as a PNG into dir, creating it when missing, and
// returns the file path. The name is prefix plus a random UUID.
func SaveSnapshot(dir, prefix string, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	path := filepath.Join(dir, prefix+uuid.NewString()+".png")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // path is built from the configured snapshot dir
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing snapshot: %w", err)
	}
	return path, nil
}
