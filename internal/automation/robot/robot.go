//go:build cgo

// Package robot implements automation.Driver with robotgo and
// automation.Hotkeys with gohook.
package robot

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"

	"github.com/kozaktomas/capture-kit/internal/automation"
)

// Driver controls the local desktop.
type Driver struct{}

var _ automation.Driver = (*Driver)(nil)

func NewDriver() (*Driver, error) {
	return &Driver{}, nil
}

func (d *Driver) FindWindow(title, process string) (automation.Window, error) {
	var pids []int
	var err error
	if process != "" {
		pids, err = robotgo.FindIds(process)
	} else {
		pids, err = robotgo.Pids()
	}
	if err != nil {
		return automation.Window{}, fmt.Errorf("listing processes: %w", err)
	}

	want := strings.ToLower(title)
	for _, pid := range pids {
		got := robotgo.GetTitle(pid)
		if got == "" || !strings.Contains(strings.ToLower(got), want) {
			continue
		}
		x, y, w, h := robotgo.GetBounds(pid)
		if w <= 0 || h <= 0 {
			continue
		}
		return automation.Window{ID: pid, Title: got, Left: x, Top: y, Width: w, Height: h}, nil
	}
	return automation.Window{}, fmt.Errorf("%w: %q", automation.ErrWindowNotFound, title)
}

func (d *Driver) IsActive(w automation.Window) bool {
	return robotgo.GetPid() == w.ID
}

func (d *Driver) Activate(w automation.Window) error {
	if err := robotgo.ActivePid(w.ID); err != nil {
		return fmt.Errorf("activating window %q: %w", w.Title, err)
	}
	return nil
}

func (d *Driver) MouseDown(b automation.MouseButton, p image.Point) error {
	robotgo.Move(p.X, p.Y)
	return robotgo.Toggle(string(b))
}

func (d *Driver) MouseUp(b automation.MouseButton, p image.Point) error {
	robotgo.Move(p.X, p.Y)
	return robotgo.Toggle(string(b), "up")
}

func (d *Driver) KeyDown(key string) error {
	return robotgo.KeyToggle(key, "down")
}

func (d *Driver) KeyUp(key string) error {
	return robotgo.KeyToggle(key, "up")
}

func (d *Driver) Capture(r image.Rectangle) (image.Image, error) {
	img, err := robotgo.CaptureImg(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	if err != nil {
		return nil, fmt.Errorf("capturing %v: %w", r, err)
	}
	return img, nil
}

// Hotkeys listens to the global keyboard hook. Only one instance may run at
// a time because gohook keeps process-wide state.
type Hotkeys struct {
	keys chan string
	done chan struct{}
	once sync.Once
}

var _ automation.Hotkeys = (*Hotkeys)(nil)

// StartHotkeys installs the global keyboard hook.
func StartHotkeys() (*Hotkeys, error) {
	h := &Hotkeys{
		keys: make(chan string, 16),
		done: make(chan struct{}),
	}
	events := hook.Start()
	go h.forward(events)
	return h, nil
}

func (h *Hotkeys) forward(events chan hook.Event) {
	defer close(h.keys)
	for {
		select {
		case <-h.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != hook.KeyDown {
				continue
			}
			key := keyName(ev)
			if key == "" {
				continue
			}
			select {
			case h.keys <- key:
			default:
				// Nobody is reading; drop rather than stall the hook.
			}
		}
	}
}

func keyName(ev hook.Event) string {
	if ev.Keychar != hook.CharUndefined && ev.Keychar != 0 {
		return strings.ToLower(string(ev.Keychar))
	}
	return strings.ToLower(hook.RawcodetoKeychar(ev.Rawcode))
}

func (h *Hotkeys) Keys() <-chan string {
	return h.keys
}

func (h *Hotkeys) Close() error {
	h.once.Do(func() {
		close(h.done)
		hook.End()
	})
	return nil
}
