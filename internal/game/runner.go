package game

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/automation"
	"github.com/kozaktomas/capture-kit/internal/vision"
)

// Window titles used by the loop.
const (
	CaptureWindow = "Window Capture"
	PausedWindow  = "Paused - Press P to Resume"
)

const (
	frameColorThickness = 2
	pausePollMs         = 50
)

type Options struct {
	Title   string
	Process string

	StartDelay    time.Duration // before the title menu click
	ClickHold     time.Duration
	MenuWait      time.Duration // after the title menu click
	ActivateDelay time.Duration // after focusing the window
	FrameDelay    time.Duration // between frames
	PauseDebounce time.Duration // minimum time between two pause toggles

	Filter      vision.FrameFilter
	SnapshotDir string
}

// DefaultOptions returns the timings the game needs.
func DefaultOptions(title string) Options {
	return Options{
		Title:         title,
		StartDelay:    time.Second,
		ClickHold:     100 * time.Millisecond,
		MenuWait:      3 * time.Second,
		ActivateDelay: 100 * time.Millisecond,
		FrameDelay:    100 * time.Millisecond,
		PauseDebounce: 500 * time.Millisecond,
		Filter:        vision.DefaultFrameFilter(),
	}
}

// Stats counts what a run has seen.
type Stats struct {
	Frames     int
	Detections int
	Pauses     int
}

// Runner drives the window loop.
type Runner struct {
	driver   automation.Driver
	input    *automation.Input
	hotkeys  automation.Hotkeys
	finder   vision.ContourFinder
	display  vision.Display
	renderer vision.Renderer
	opts     Options
	logger   *zap.Logger
	out      io.Writer

	sleep automation.SleepFunc
	now   func() time.Time

	lastToggle time.Time
	stats      Stats
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithHotkeys makes global key presses control the loop in addition to
// keys typed into the preview windows.
func WithHotkeys(h automation.Hotkeys) RunnerOption {
	return func(r *Runner) { r.hotkeys = h }
}

// WithRenderer replaces the pure-Go renderer used to outline frames.
func WithRenderer(rd vision.Renderer) RunnerOption {
	return func(r *Runner) { r.renderer = rd }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithOutput sets where detected frames are printed.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) { r.out = w }
}

// WithClock replaces the sleep and time functions.
func WithClock(sleep automation.SleepFunc, now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.sleep = sleep
		r.now = now
	}
}

func NewRunner(driver automation.Driver, finder vision.ContourFinder, display vision.Display, opts Options, options ...RunnerOption) *Runner {
	r := &Runner{
		driver:   driver,
		finder:   finder,
		display:  display,
		renderer: vision.ImageRenderer{},
		opts:     opts,
		logger:   zap.NewNop(),
		out:      io.Discard,
		sleep:    automation.Sleep,
		now:      time.Now,
	}
	for _, o := range options {
		o(r)
	}
	r.input = automation.NewInput(driver, r.sleep)
	return r
}

// Run finds the window, starts the game from the title menu and processes
// frames until 'q' is pressed or ctx is cancelled. All windows are closed on
// return.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	defer func() {
		if err := r.display.Close(); err != nil {
			r.logger.Debug("closing windows", zap.Error(err))
		}
	}()

	win, err := r.driver.FindWindow(r.opts.Title, r.opts.Process)
	if err != nil {
		return r.stats, err
	}
	r.logger.Info("window found",
		zap.String("title", win.Title),
		zap.Int("left", win.Left),
		zap.Int("top", win.Top),
		zap.Int("width", win.Width),
		zap.Int("height", win.Height))

	menu := TitleMenu(win.Center())
	if err := r.input.Press(ctx, automation.LeftClick, menu[0], r.opts.StartDelay, r.opts.ClickHold); err != nil {
		return r.stats, fmt.Errorf("clicking title menu: %w", err)
	}
	if err := r.sleep(ctx, r.opts.MenuWait); err != nil {
		return r.stats, err
	}

	paused := false
	for {
		if err := ctx.Err(); err != nil {
			return r.stats, err
		}

		quit := false
		for _, key := range r.pendingKeys() {
			switch key {
			case "p":
				if r.toggle() {
					paused = !paused
				}
			case "q":
				quit = true
			}
		}
		if quit {
			return r.stats, nil
		}

		if paused {
			quit, err := r.pause(ctx, win)
			if err != nil || quit {
				return r.stats, err
			}
			paused = false
			continue
		}

		if !r.driver.IsActive(win) {
			if err := r.driver.Activate(win); err != nil {
				r.logger.Warn("activating window failed", zap.Error(err))
			}
			if err := r.sleep(ctx, r.opts.ActivateDelay); err != nil {
				return r.stats, err
			}
		}

		frame, err := r.ProcessFrame(win)
		if err != nil {
			return r.stats, err
		}
		if err := r.display.Show(CaptureWindow, frame); err != nil {
			return r.stats, fmt.Errorf("showing frame: %w", err)
		}

		key := r.display.WaitKey(1)
		switch {
		case vision.IsKey(key, 'q'):
			return r.stats, nil
		case vision.IsKey(key, 's'):
			r.saveSnapshot(frame)
		case vision.IsKey(key, 'p'):
			if r.toggle() {
				paused = true
			}
		}

		if err := r.sleep(ctx, r.opts.FrameDelay); err != nil {
			return r.stats, err
		}
	}
}

// ProcessFrame captures the window, outlines the frames that pass the
// filter and reports each of them.
func (r *Runner) ProcessFrame(win automation.Window) (image.Image, error) {
	img, err := r.driver.Capture(win.Bounds())
	if err != nil {
		return nil, fmt.Errorf("capturing window: %w", err)
	}
	r.stats.Frames++

	contours, err := r.finder.Find(img)
	if err != nil {
		return nil, fmt.Errorf("finding contours: %w", err)
	}
	frames := r.opts.Filter.SelectFrames(contours)

	anns := make([]vision.Annotation, 0, len(frames))
	for _, f := range frames {
		b := f.Bounds
		anns = append(anns, vision.Polygon(f.Points, vision.Green, frameColorThickness))
		fmt.Fprintf(r.out, "Detected white frame at: x=%d, y=%d, w=%d, h=%d\n", b.Min.X, b.Min.Y, b.Dx(), b.Dy())
		r.logger.Debug("detected white frame",
			zap.Int("x", b.Min.X),
			zap.Int("y", b.Min.Y),
			zap.Int("w", b.Dx()),
			zap.Int("h", b.Dy()))
	}
	r.stats.Detections += len(frames)
	canvas, err := r.renderer.Draw(img, anns)
	if err != nil {
		return nil, fmt.Errorf("drawing frames: %w", err)
	}
	return canvas, nil
}

// pause shows the current capture and blocks until 'p' is pressed again.
// It reports whether 'q' was pressed instead.
func (r *Runner) pause(ctx context.Context, win automation.Window) (bool, error) {
	r.stats.Pauses++
	r.logger.Info("paused")

	img, err := r.driver.Capture(win.Bounds())
	if err != nil {
		return false, fmt.Errorf("capturing window: %w", err)
	}
	if err := r.display.Show(PausedWindow, img); err != nil {
		return false, fmt.Errorf("showing paused frame: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		resume := false
		for _, key := range r.pendingKeys() {
			switch key {
			case "p":
				resume = resume || r.toggle()
			case "q":
				return true, nil
			}
		}

		key := r.display.WaitKey(pausePollMs)
		switch {
		case vision.IsKey(key, 'q'):
			return true, nil
		case vision.IsKey(key, 'p'):
			resume = resume || r.toggle()
		}

		if resume {
			if err := r.display.CloseWindow(PausedWindow); err != nil {
				r.logger.Debug("closing pause window", zap.Error(err))
			}
			r.logger.Info("resumed")
			return false, nil
		}
	}
}

// toggle reports whether a pause toggle is allowed now, and records it.
func (r *Runner) toggle() bool {
	now := r.now()
	if !r.lastToggle.IsZero() && now.Sub(r.lastToggle) < r.opts.PauseDebounce {
		return false
	}
	r.lastToggle = now
	return true
}

// pendingKeys drains the hotkey channel without blocking.
func (r *Runner) pendingKeys() []string {
	if r.hotkeys == nil {
		return nil
	}
	var keys []string
	for {
		select {
		case k, ok := <-r.hotkeys.Keys():
			if !ok {
				r.hotkeys = nil
				return keys
			}
			keys = append(keys, k)
		default:
			return keys
		}
	}
}

func (r *Runner) saveSnapshot(img image.Image) {
	if r.opts.SnapshotDir == "" {
		return
	}
	path, err := vision.SaveSnapshot(r.opts.SnapshotDir, "window-", img)
	if err != nil {
		r.logger.Warn("saving snapshot failed", zap.Error(err))
		return
	}
	r.logger.Info("snapshot saved", zap.String("path", path))
}

// IsWindowNotFound reports whether err means the game window is missing.
func IsWindowNotFound(err error) bool {
	return errors.Is(err, automation.ErrWindowNotFound)
}
