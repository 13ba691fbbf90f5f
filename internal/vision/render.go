package vision

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageRenderer is the pure-Go Renderer used where OpenCV is not linked in,
// which includes the unit tests of both loops.
type ImageRenderer struct{}

var _ Renderer = ImageRenderer{}

// Draw renders anns onto a copy of img.
func (ImageRenderer) Draw(img image.Image, anns []Annotation) (image.Image, error) {
	canvas := CloneRGBA(img)
	Render(canvas, anns)
	return canvas, nil
}

// Render draws anns onto dst in order. Coordinates outside dst are clipped.
func Render(dst draw.Image, anns []Annotation) {
	for _, a := range anns {
		thickness := max(a.Thickness, 1)
		switch a.Shape {
		case ShapeRect:
			r := a.Rect.Canon()
			corners := []image.Point{
				r.Min,
				{X: r.Max.X - 1, Y: r.Min.Y},
				{X: r.Max.X - 1, Y: r.Max.Y - 1},
				{X: r.Min.X, Y: r.Max.Y - 1},
			}
			drawPolyline(dst, corners, a.Color, thickness)
		case ShapePolygon:
			drawPolyline(dst, a.Points, a.Color, thickness)
		case ShapeText:
			drawText(dst, a.Text, a.Origin, a.Color)
		}
	}
}

// CloneRGBA copies img into a new *image.RGBA.
func CloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}

func drawPolyline(dst draw.Image, pts []image.Point, c color.Color, thickness int) {
	switch len(pts) {
	case 0:
		return
	case 1:
		stamp(dst, pts[0], c, thickness)
		return
	}
	for i := range pts {
		drawLine(dst, pts[i], pts[(i+1)%len(pts)], c, thickness)
	}
}

// drawLine rasterises a segment with Bresenham's algorithm, stamping a
// thickness-wide square at every step.
func drawLine(dst draw.Image, p0, p1 image.Point, c color.Color, thickness int) {
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	e := dx + dy
	x, y := p0.X, p0.Y
	for {
		stamp(dst, image.Pt(x, y), c, thickness)
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func stamp(dst draw.Image, p image.Point, c color.Color, thickness int) {
	if thickness == 1 {
		if p.In(dst.Bounds()) {
			dst.Set(p.X, p.Y, c)
		}
		return
	}
	half := thickness / 2
	r := image.Rect(p.X-half, p.Y-half, p.X-half+thickness, p.Y-half+thickness).Intersect(dst.Bounds())
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawText(dst draw.Image, text string, origin image.Point, c color.Color) {
	if text == "" {
		return
	}
	// Keep the label inside the frame when the box touches the top edge.
	face := basicfont.Face7x13
	minY := dst.Bounds().Min.Y + face.Ascent
	if origin.Y < minY {
		origin.Y = minY
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(origin.X, origin.Y),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
