//go:build !cgo

package robot

import (
	"errors"
	"image"

	"github.com/kozaktomas/capture-kit/internal/automation"
)

var errNoCGO = errors.New("desktop automation requires CGO; build with CGO_ENABLED=1")

// Driver stub type when built without CGO (see robot.go for real implementation).
type Driver struct{}

// NewDriver returns an error when built without CGO.
func NewDriver() (*Driver, error) { return nil, errNoCGO }

func (d *Driver) FindWindow(_, _ string) (automation.Window, error) {
	return automation.Window{}, errNoCGO
}
func (d *Driver) IsActive(_ automation.Window) bool                       { return false }
func (d *Driver) Activate(_ automation.Window) error                      { return errNoCGO }
func (d *Driver) MouseDown(_ automation.MouseButton, _ image.Point) error { return errNoCGO }
func (d *Driver) MouseUp(_ automation.MouseButton, _ image.Point) error   { return errNoCGO }
func (d *Driver) KeyDown(_ string) error                                  { return errNoCGO }
func (d *Driver) KeyUp(_ string) error                                    { return errNoCGO }
func (d *Driver) Capture(_ image.Rectangle) (image.Image, error)          { return nil, errNoCGO }

// Hotkeys stub type when built without CGO.
type Hotkeys struct{}

// StartHotkeys returns an error when built without CGO.
func StartHotkeys() (*Hotkeys, error) { return nil, errNoCGO }

func (h *Hotkeys) Keys() <-chan string { return nil }
func (h *Hotkeys) Close() error        { return nil }
