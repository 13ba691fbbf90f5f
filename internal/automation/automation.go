// Package automation drives mouse and keyboard input against a desktop
// window and captures its contents.
package automation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

// ErrWindowNotFound is returned when no window title matches.
var ErrWindowNotFound = errors.New("window not found")

// Window is a top-level desktop window in screen coordinates.
type Window struct {
	ID     int // platform handle, a process ID on robotgo
	Title  string
	Left   int
	Top    int
	Width  int
	Height int
}

// Center returns the window centre, rounding down.
func (w Window) Center() image.Point {
	return image.Pt(w.Left+w.Width/2, w.Top+w.Height/2)
}

// Bounds returns the window rectangle.
func (w Window) Bounds() image.Rectangle {
	return image.Rect(w.Left, w.Top, w.Left+w.Width, w.Top+w.Height)
}

// MouseButton is a physical mouse button.
type MouseButton string

const (
	MouseLeft  MouseButton = "left"
	MouseRight MouseButton = "right"
)

// Driver talks to the desktop.
type Driver interface {
	// FindWindow returns the first window whose title contains title,
	// ignoring case. A non-empty process restricts the search to processes
	// with that name.
	FindWindow(title, process string) (Window, error)
	IsActive(w Window) bool
	Activate(w Window) error
	MouseDown(b MouseButton, p image.Point) error
	MouseUp(b MouseButton, p image.Point) error
	KeyDown(key string) error
	KeyUp(key string) error
	// Capture grabs the screen area r.
	Capture(r image.Rectangle) (image.Image, error)
}

// Hotkeys delivers global key presses, regardless of which window has focus.
type Hotkeys interface {
	// Keys yields one lower-case key name per press.
	Keys() <-chan string
	Close() error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Button is an input the game reacts to.
type Button int

const (
	LeftClick Button = iota + 1
	RightClick
	Escape
)

func (b Button) String() string {
	switch b {
	case LeftClick:
		return "left-click"
	case RightClick:
		return "right-click"
	case Escape:
		return "escape"
	default:
		return fmt.Sprintf("Button(%d)", int(b))
	}
}

// Input presses buttons through a Driver.
type Input struct {
	driver Driver
	sleep  SleepFunc
}

// NewInput returns an Input. A nil sleep uses Sleep.
func NewInput(driver Driver, sleep SleepFunc) *Input {
	if sleep == nil {
		sleep = Sleep
	}
	return &Input{driver: driver, sleep: sleep}
}

// Press waits startDelay, pushes b down at pt (mouse buttons only), holds it
// for hold and releases it. The release is attempted even when the hold is
// interrupted.
func (in *Input) Press(ctx context.Context, b Button, pt image.Point, startDelay, hold time.Duration) error {
	if err := in.sleep(ctx, startDelay); err != nil {
		return err
	}

	var down, up func() error
	switch b {
	case LeftClick:
		down = func() error { return in.driver.MouseDown(MouseLeft, pt) }
		up = func() error { return in.driver.MouseUp(MouseLeft, pt) }
	case RightClick:
		down = func() error { return in.driver.MouseDown(MouseRight, pt) }
		up = func() error { return in.driver.MouseUp(MouseRight, pt) }
	case Escape:
		down = func() error { return in.driver.KeyDown("esc") }
		up = func() error { return in.driver.KeyUp("esc") }
	default:
		return fmt.Errorf("unsupported button %v", b)
	}

	if err := down(); err != nil {
		return fmt.Errorf("pressing %v: %w", b, err)
	}
	holdErr := in.sleep(ctx, hold)
	if err := up(); err != nil {
		return fmt.Errorf("releasing %v: %w", b, err)
	}
	return holdErr
}
