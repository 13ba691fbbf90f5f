package vision

import (
	"image"
	"slices"
)

// FrameFilter describes which contour bounding boxes count as frames.
// Bounds are exclusive: a box must be strictly larger than MinWidth by
// MinHeight and its aspect ratio strictly between AspectMin and AspectMax.
type FrameFilter struct {
	MinWidth  int
	MinHeight int
	AspectMin float64
	AspectMax float64
	// MergeIoU drops a frame that overlaps an already selected, larger frame
	// by more than this ratio. Zero keeps every frame.
	MergeIoU float64
}

// DefaultFrameFilter matches the white frames drawn by the game.
func DefaultFrameFilter() FrameFilter {
	return FrameFilter{
		MinWidth:  50,
		MinHeight: 50,
		AspectMin: 0.1,
		AspectMax: 10.0,
	}
}

// Accept reports whether a bounding box passes the size and aspect checks.
func (f FrameFilter) Accept(r image.Rectangle) bool {
	w, h := r.Dx(), r.Dy()
	if h <= 0 {
		return false
	}
	aspect := float64(w) / float64(h)
	return aspect > f.AspectMin && aspect < f.AspectMax && w > f.MinWidth && h > f.MinHeight
}

// SelectFrames returns the contours that pass f, in their original order.
func (f FrameFilter) SelectFrames(contours []Contour) []Contour {
	var out []Contour
	for _, c := range contours {
		if f.Accept(c.Bounds) {
			out = append(out, c)
		}
	}
	if f.MergeIoU <= 0 || len(out) < 2 {
		return out
	}
	return mergeOverlapping(out, f.MergeIoU)
}

// mergeOverlapping keeps larger frames first and drops any frame that
// overlaps a kept one above threshold. The survivors keep input order.
func mergeOverlapping(contours []Contour, threshold float64) []Contour {
	order := make([]int, len(contours))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return area(contours[b].Bounds) - area(contours[a].Bounds)
	})

	keep := make([]bool, len(contours))
	var kept []image.Rectangle
	for _, i := range order {
		overlaps := false
		for _, k := range kept {
			if ComputeIoU(contours[i].Bounds, k) > threshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			keep[i] = true
			kept = append(kept, contours[i].Bounds)
		}
	}

	out := make([]Contour, 0, len(kept))
	for i, c := range contours {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}
