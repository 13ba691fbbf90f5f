//go:build !cgo

package dlib

import (
	"errors"
	"image"

	"github.com/kozaktomas/capture-kit/internal/recognition"
)

var errNoCGO = errors.New("face recognition requires CGO; build with CGO_ENABLED=1 and dlib installed")

// Recognizer stub type when built without CGO (see dlib.go for real implementation).
type Recognizer struct{}

// New returns an error when built without CGO.
func New(_ string, _ recognition.Model) (*Recognizer, error) {
	return nil, errNoCGO
}

func (r *Recognizer) Recognize(_ image.Image) ([]recognition.Face, error) {
	return nil, errNoCGO
}

func (r *Recognizer) Close() error { return nil }
