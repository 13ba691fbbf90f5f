//go:build cgo

// Package opencv implements the vision interfaces on top of OpenCV via gocv.
package opencv

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/capture-kit/internal/vision"
)

// Camera reads frames from a video capture device.
type Camera struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
}

var _ vision.Source = (*Camera)(nil)

// OpenCamera opens the capture device with the given index.
func OpenCamera(device int) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w", device, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("camera %d is not available", device)
	}
	return &Camera{capture: capture, frame: gocv.NewMat()}, nil
}

// Read grabs the next frame. It returns vision.ErrNoFrame when the device
// delivers nothing.
func (c *Camera) Read() (image.Image, error) {
	if ok := c.capture.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, vision.ErrNoFrame
	}
	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	return img, nil
}

func (c *Camera) Close() error {
	return errors.Join(c.frame.Close(), c.capture.Close())
}

// Display shows images in HighGUI windows created on first use.
type Display struct {
	mu      sync.Mutex
	windows map[string]*gocv.Window
}

var _ vision.Display = (*Display)(nil)

func NewDisplay() (*Display, error) {
	return &Display{windows: make(map[string]*gocv.Window)}, nil
}

func (d *Display) Show(name string, img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("converting image for %q: %w", name, err)
	}
	defer mat.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[name]
	if !ok {
		w = gocv.NewWindow(name)
		d.windows[name] = w
	}
	w.IMShow(mat)
	return nil
}

// WaitKey pumps the HighGUI event loop. Without an open window it only sleeps.
func (d *Display) WaitKey(delayMs int) int {
	d.mu.Lock()
	var w *gocv.Window
	for _, w = range d.windows {
		break
	}
	d.mu.Unlock()

	if w == nil {
		time.Sleep(time.Duration(max(delayMs, 1)) * time.Millisecond)
		return vision.KeyNone
	}
	return w.WaitKey(delayMs)
}

func (d *Display) CloseWindow(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[name]
	if !ok {
		return nil
	}
	delete(d.windows, name)
	return w.Close()
}

// Close destroys every window.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for name, w := range d.windows {
		errs = append(errs, w.Close())
		delete(d.windows, name)
	}
	return errors.Join(errs...)
}

// ContourFinder thresholds a frame and returns its simplified contours.
type ContourFinder struct {
	threshold float32
	epsilon   float64
}

var _ vision.ContourFinder = (*ContourFinder)(nil)

// NewContourFinder returns a finder that binarises at threshold and
// simplifies each contour with epsilon times its perimeter.
func NewContourFinder(threshold, epsilon float64) (*ContourFinder, error) {
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold %g out of range [0, 255]", threshold)
	}
	return &ContourFinder{threshold: float32(threshold), epsilon: epsilon}, nil
}

func (f *ContourFinder) Find(img image.Image) ([]vision.Contour, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(gray, &thresh, f.threshold, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(thresh, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]vision.Contour, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		approx := gocv.ApproxPolyDP(contour, f.epsilon*gocv.ArcLength(contour, true), true)
		out = append(out, vision.Contour{
			Points: approx.ToPoints(),
			Bounds: gocv.BoundingRect(approx),
		})
		approx.Close()
	}
	return out, nil
}

// Renderer draws annotations with OpenCV's drawing primitives.
type Renderer struct{}

var _ vision.Renderer = (*Renderer)(nil)

func NewRenderer() (*Renderer, error) {
	return &Renderer{}, nil
}

// Draw renders anns onto a copy of img. Text uses the Hershey simplex face
// at scale 0.5.
func (r *Renderer) Draw(img image.Image, anns []vision.Annotation) (image.Image, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("converting frame: %w", err)
	}
	defer mat.Close()

	for _, a := range anns {
		thickness := max(a.Thickness, 1)
		switch a.Shape {
		case vision.ShapeRect:
			gocv.Rectangle(&mat, a.Rect.Canon(), a.Color, thickness)
		case vision.ShapePolygon:
			if len(a.Points) == 0 {
				continue
			}
			pv := gocv.NewPointsVectorFromPoints([][]image.Point{a.Points})
			gocv.DrawContours(&mat, pv, -1, a.Color, thickness)
			pv.Close()
		case vision.ShapeText:
			gocv.PutText(&mat, a.Text, a.Origin, gocv.FontHersheySimplex, 0.5, a.Color, thickness)
		}
	}

	out, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting annotated frame: %w", err)
	}
	return out, nil
}
