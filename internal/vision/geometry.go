package vision

import "image"

// ComputeIoU calculates Intersection over Union between two rectangles.
func ComputeIoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0 // No intersection
	}

	interArea := area(inter)
	union := area(a) + area(b) - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}

func area(r image.Rectangle) int {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// ScaleRect multiplies every coordinate of r by factor.
func ScaleRect(r image.Rectangle, factor float64) image.Rectangle {
	if factor == 1 {
		return r
	}
	return image.Rect(
		int(float64(r.Min.X)*factor),
		int(float64(r.Min.Y)*factor),
		int(float64(r.Max.X)*factor),
		int(float64(r.Max.Y)*factor),
	)
}
