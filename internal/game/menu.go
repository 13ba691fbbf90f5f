// Package game runs the window capture loop against the game: it opens the
// title menu, then captures the window, outlines the white frames it finds
// and shows the result until told to stop.
package game

import "image"

// TitleMenu returns the title screen entries relative to the window centre,
// in menu order. The first entry starts a new game.
func TitleMenu(center image.Point) []image.Point {
	return []image.Point{
		{X: center.X, Y: center.Y + 20},
		{X: center.X + 100, Y: center.Y + 100},
		{X: center.X + 150, Y: center.Y + 150},
		{X: center.X, Y: center.Y - 150},
	}
}
