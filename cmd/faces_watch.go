package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/facematch"
	"github.com/kozaktomas/capture-kit/internal/recognition"
	"github.com/kozaktomas/capture-kit/internal/recognition/dlib"
	"github.com/kozaktomas/capture-kit/internal/vision/opencv"
)

var facesWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Identify faces from the webcam and enroll new ones",
	Long: `Read frames from the webcam, detect faces and compare each face with the
stored identities. Known faces are labelled "ID: n" in green. Unknown faces
are labelled "New Face" in red and stored under the next free ID.

Keys in the preview window:
  q  quit
  s  save an annotated snapshot

Examples:
  # Default camera with first-match semantics
  capture-kit faces watch

  # Second camera, stricter tolerance, closest match wins
  capture-kit faces watch --camera 1 --tolerance 0.5 --match nearest`,
	Args: cobra.NoArgs,
	RunE: runFacesWatch,
}

func init() {
	facesCmd.AddCommand(facesWatchCmd)

	facesWatchCmd.Flags().Int("camera", -1, "Camera device index (default from config)")
	facesWatchCmd.Flags().Float64("tolerance", 0, "Maximum Euclidean distance for a match (default from config)")
	facesWatchCmd.Flags().String("match", "", "Match strategy: first or nearest (default from config)")
}

func runFacesWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if camera := mustGetInt(cmd, "camera"); camera >= 0 {
		cfg.Faces.Camera = camera
	}
	if tolerance := mustGetFloat64(cmd, "tolerance"); tolerance > 0 {
		cfg.Faces.Tolerance = tolerance
	}
	if match := mustGetString(cmd, "match"); match != "" {
		cfg.Faces.Match = match
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	model, err := recognition.ParseModel(cfg.Faces.Model)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	matcher, idx, err := newMatcher(cfg, store, logger)
	if err != nil {
		return err
	}
	defer saveIndex(cfg, idx, logger)
	identifier := facematch.NewIdentifier(matcher, store, logger.Named("identifier"))

	recognizer, err := dlib.New(cfg.Faces.ModelsDir, model)
	if err != nil {
		return err
	}
	defer recognizer.Close()

	camera, err := opencv.OpenCamera(cfg.Faces.Camera)
	if err != nil {
		return err
	}
	defer camera.Close()

	display, err := opencv.NewDisplay()
	if err != nil {
		return err
	}
	renderer, err := opencv.NewRenderer()
	if err != nil {
		return err
	}

	runner := recognition.NewRunner(camera, recognizer, identifier, display, recognition.RunnerOptions{
		MaxWidth:    cfg.Faces.MaxWidth,
		SnapshotDir: cfg.SnapshotDir,
		Renderer:    renderer,
		Logger:      logger.Named("faces"),
	})

	ctx, stop := signalContext()
	defer stop()

	logger.Info("face loop started",
		zap.Int("camera", cfg.Faces.Camera),
		zap.Float64("tolerance", matcher.Tolerance()),
		zap.String("match", string(matcher.Strategy())))

	stats, err := runner.Run(ctx)
	if err != nil && !isInterrupted(err) {
		return fmt.Errorf("face loop: %w", err)
	}

	logger.Info("face loop finished",
		zap.Int("frames", stats.Frames),
		zap.Int("faces", stats.Faces),
		zap.Int("known", stats.Known),
		zap.Int("enrolled", stats.Enrolled),
		zap.Int("errors", stats.Errors))
	return nil
}
