// Package vision holds the image-side building blocks shared by the capture
// loops: annotations and their rendering, contour filtering and the
// interfaces implemented by native camera, display and contour backends.
package vision

import (
	"errors"
	"image"
	"image/color"
)

// ErrNoFrame is returned by a Source that cannot deliver another frame.
var ErrNoFrame = errors.New("no frame available")

// KeyNone is returned by Display.WaitKey when no key was pressed.
const KeyNone = -1

var (
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Shape is the kind of an Annotation.
type Shape int

const (
	ShapeRect Shape = iota
	ShapePolygon
	ShapeText
)

// Annotation is something drawn on top of a frame.
type Annotation struct {
	Shape     Shape
	Rect      image.Rectangle // ShapeRect
	Points    []image.Point   // ShapePolygon, closed
	Text      string          // ShapeText, baseline starts at Origin
	Origin    image.Point
	Color     color.RGBA
	Thickness int
}

// Box returns a rectangle outline annotation.
func Box(r image.Rectangle, c color.RGBA, thickness int) Annotation {
	return Annotation{Shape: ShapeRect, Rect: r, Color: c, Thickness: thickness}
}

// Polygon returns a closed polyline annotation.
func Polygon(pts []image.Point, c color.RGBA, thickness int) Annotation {
	return Annotation{Shape: ShapePolygon, Points: pts, Color: c, Thickness: thickness}
}

// Label returns a text annotation whose baseline starts at origin.
func Label(text string, origin image.Point, c color.RGBA) Annotation {
	return Annotation{Shape: ShapeText, Text: text, Origin: origin, Color: c, Thickness: 2}
}

// Contour is a simplified closed boundary found in a frame.
type Contour struct {
	Points []image.Point
	Bounds image.Rectangle
}

// Source delivers frames, e.g. from a camera.
type Source interface {
	Read() (image.Image, error)
	Close() error
}

// Display shows frames in named windows and polls the keyboard.
type Display interface {
	Show(window string, img image.Image) error
	// WaitKey waits up to delayMs milliseconds for a key press and returns
	// its code, or KeyNone.
	WaitKey(delayMs int) int
	CloseWindow(window string) error
	Close() error
}

// Renderer draws annotations on a copy of a frame. The source frame is
// never modified.
type Renderer interface {
	Draw(img image.Image, anns []Annotation) (image.Image, error)
}

// ContourFinder detects contours in a frame.
type ContourFinder interface {
	Find(img image.Image) ([]Contour, error)
}

// IsKey reports whether the key code returned by WaitKey is r. Only the low
// byte is compared, as backends may set modifier bits.
func IsKey(code int, r rune) bool {
	return code != KeyNone && code&0xFF == int(r)
}
