// Package recognition runs the webcam face identity loop: detect faces,
// identify them against the store, enroll strangers and draw the result.
package recognition

import (
	"fmt"
	"image"

	"github.com/kozaktomas/capture-kit/internal/config"
)

// Face is one detected face with its feature vector.
type Face struct {
	Rect       image.Rectangle
	Descriptor []float32
}

// Recognizer detects faces in an image and computes their descriptors.
type Recognizer interface {
	Recognize(img image.Image) ([]Face, error)
	Close() error
}

// Model selects the face detector.
type Model string

const (
	ModelHOG Model = config.ModelHOG
	ModelCNN Model = config.ModelCNN
)

// ParseModel converts a config value to a Model. Empty means HOG.
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case "", ModelHOG:
		return ModelHOG, nil
	case ModelCNN:
		return ModelCNN, nil
	default:
		return "", fmt.Errorf("unknown detector model %q", s)
	}
}
