//go:build !cgo

package opencv

import (
	"errors"
	"image"

	"github.com/kozaktomas/capture-kit/internal/vision"
)

var errNoCGO = errors.New("OpenCV support requires CGO; build with CGO_ENABLED=1 and OpenCV 4 installed")

// Camera stub type when built without CGO (see opencv.go for real implementation).
type Camera struct{}

// OpenCamera returns an error when built without CGO.
func OpenCamera(_ int) (*Camera, error) { return nil, errNoCGO }

func (c *Camera) Read() (image.Image, error) { return nil, vision.ErrNoFrame }
func (c *Camera) Close() error               { return nil }

// Display stub type when built without CGO.
type Display struct{}

// NewDisplay returns an error when built without CGO.
func NewDisplay() (*Display, error) { return nil, errNoCGO }

func (d *Display) Show(_ string, _ image.Image) error { return errNoCGO }
func (d *Display) WaitKey(_ int) int                  { return vision.KeyNone }
func (d *Display) CloseWindow(_ string) error         { return nil }
func (d *Display) Close() error                       { return nil }

// ContourFinder stub type when built without CGO.
type ContourFinder struct{}

// NewContourFinder returns an error when built without CGO.
func NewContourFinder(_, _ float64) (*ContourFinder, error) { return nil, errNoCGO }

func (f *ContourFinder) Find(_ image.Image) ([]vision.Contour, error) { return nil, errNoCGO }

// Renderer falls back to the pure-Go renderer when built without CGO, so
// frames still get annotated.
type Renderer struct {
	vision.ImageRenderer
}

// NewRenderer never fails; drawing needs no OpenCV.
func NewRenderer() (*Renderer, error) { return &Renderer{}, nil }
