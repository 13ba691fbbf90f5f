package vision

import (
	"image"

	"golang.org/x/image/draw"
)

// Downscale shrinks img so it is at most maxWidth pixels wide, keeping the
// aspect ratio. It returns the image to work on and the factor that maps its
// coordinates back to img (1 when img was left alone).
func Downscale(img image.Image, maxWidth int) (image.Image, float64) {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img, 1
	}

	height := max(b.Dy()*maxWidth/b.Dx(), 1)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, float64(b.Dx()) / float64(maxWidth)
}
