//go:build cgo

// Package dlib implements recognition.Recognizer with dlib through go-face.
// The models directory must hold shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and, for the CNN detector,
// mmod_human_face_detector.dat.
package dlib

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	face "github.com/Kagami/go-face"

	"github.com/kozaktomas/capture-kit/internal/recognition"
)

const jpegQuality = 95

// Recognizer wraps a go-face recognizer. dlib is not safe for concurrent use,
// so calls are serialised.
type Recognizer struct {
	mu    sync.Mutex
	rec   *face.Recognizer
	model recognition.Model
	buf   bytes.Buffer
}

var _ recognition.Recognizer = (*Recognizer)(nil)

// New loads the dlib models from modelsDir.
func New(modelsDir string, model recognition.Model) (*Recognizer, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading face models from %s: %w", modelsDir, err)
	}
	return &Recognizer{rec: rec, model: model}, nil
}

// Recognize detects faces in img and returns their 128-d descriptors.
func (r *Recognizer) Recognize(img image.Image) ([]recognition.Face, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Reset()
	if err := jpeg.Encode(&r.buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}

	var faces []face.Face
	var err error
	if r.model == recognition.ModelCNN {
		faces, err = r.rec.RecognizeCNN(r.buf.Bytes())
	} else {
		faces, err = r.rec.Recognize(r.buf.Bytes())
	}
	if err != nil {
		return nil, fmt.Errorf("recognizing faces: %w", err)
	}

	out := make([]recognition.Face, 0, len(faces))
	for _, f := range faces {
		desc := make([]float32, len(f.Descriptor))
		copy(desc, f.Descriptor[:])
		out = append(out, recognition.Face{
			Rect:       f.Rectangle.Add(img.Bounds().Min),
			Descriptor: desc,
		})
	}
	return out, nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec != nil {
		r.rec.Close()
		r.rec = nil
	}
	return nil
}
