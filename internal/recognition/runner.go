package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/facematch"
	"github.com/kozaktomas/capture-kit/internal/vision"
)

// WindowName is the title of the preview window.
const WindowName = "Face Detection"

// Stats counts what a run has seen.
type Stats struct {
	Frames   int
	Faces    int
	Known    int
	Enrolled int
	Errors   int
}

// Runner drives the face loop.
type Runner struct {
	source      vision.Source
	recognizer  Recognizer
	identifier  *facematch.Identifier
	display     vision.Display
	renderer    vision.Renderer
	logger      *zap.Logger
	maxWidth    int
	snapshotDir string

	stats Stats
}

type RunnerOptions struct {
	// MaxWidth downscales frames wider than this before detection; 0 disables.
	MaxWidth int
	// SnapshotDir receives annotated frames when 's' is pressed.
	SnapshotDir string
	// Renderer draws the boxes and labels; nil uses vision.ImageRenderer.
	Renderer vision.Renderer
	Logger   *zap.Logger
}

func NewRunner(source vision.Source, recognizer Recognizer, identifier *facematch.Identifier, display vision.Display, opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = vision.ImageRenderer{}
	}
	return &Runner{
		source:      source,
		recognizer:  recognizer,
		identifier:  identifier,
		display:     display,
		renderer:    renderer,
		logger:      logger,
		maxWidth:    opts.MaxWidth,
		snapshotDir: opts.SnapshotDir,
	}
}

// Run processes frames until 'q' is pressed, ctx is cancelled or the source
// runs dry. Running out of frames is not an error.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	defer func() {
		if err := r.display.Close(); err != nil {
			r.logger.Debug("closing windows", zap.Error(err))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return r.stats, err
		}

		frame, err := r.source.Read()
		if errors.Is(err, vision.ErrNoFrame) {
			r.logger.Info("camera stopped delivering frames", zap.Int("frames", r.stats.Frames))
			return r.stats, nil
		}
		if err != nil {
			return r.stats, fmt.Errorf("reading frame: %w", err)
		}
		r.stats.Frames++

		canvas, err := r.ProcessFrame(frame)
		if err != nil {
			return r.stats, err
		}

		if err := r.display.Show(WindowName, canvas); err != nil {
			return r.stats, fmt.Errorf("showing frame: %w", err)
		}

		key := r.display.WaitKey(1)
		switch {
		case vision.IsKey(key, 'q'):
			return r.stats, nil
		case vision.IsKey(key, 's'):
			r.saveSnapshot(canvas)
		}
	}
}

// ProcessFrame identifies every face in frame and returns a copy with the
// boxes and labels drawn on it.
func (r *Runner) ProcessFrame(frame image.Image) (image.Image, error) {
	detectOn, scale := vision.Downscale(frame, r.maxWidth)

	faces, err := r.recognizer.Recognize(detectOn)
	if err != nil {
		// A bad frame should not end the loop.
		r.stats.Errors++
		r.logger.Warn("face recognition failed", zap.Error(err))
		faces = nil
	}

	var anns []vision.Annotation
	for _, f := range faces {
		r.stats.Faces++
		rect := f.Rect
		if scale != 1 {
			rect = vision.ScaleRect(rect, scale).Add(frame.Bounds().Min)
		}

		res, err := r.identifier.Identify(f.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("identifying face: %w", err)
		}

		labelColor := vision.Green
		if res.Known {
			r.stats.Known++
		} else {
			r.stats.Enrolled++
			labelColor = vision.Red
		}
		anns = append(anns,
			vision.Label(facematch.DisplayLabel(res), image.Pt(rect.Min.X, rect.Min.Y-10), labelColor),
			vision.Box(rect, vision.Blue, 2),
		)
	}
	canvas, err := r.renderer.Draw(frame, anns)
	if err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	r.logger.Debug("frame processed",
		zap.Int("frame", r.stats.Frames),
		zap.Int("faces", len(faces)))
	return canvas, nil
}

func (r *Runner) saveSnapshot(img image.Image) {
	if r.snapshotDir == "" {
		return
	}
	path, err := vision.SaveSnapshot(r.snapshotDir, "faces-", img)
	if err != nil {
		r.logger.Warn("saving snapshot failed", zap.Error(err))
		return
	}
	r.logger.Info("snapshot saved", zap.String("path", path))
}
