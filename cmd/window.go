package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/automation/robot"
	"github.com/kozaktomas/capture-kit/internal/game"
	"github.com/kozaktomas/capture-kit/internal/vision"
	"github.com/kozaktomas/capture-kit/internal/vision/opencv"
)

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Automate a game window",
}

var windowRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the title menu and detect white frames in the game window",
	Long: `Find the game window by title, click the first title menu entry and then
capture the window continuously. White rectangular frames are outlined in
green in the "Window Capture" window and their positions are printed.

Keys (global and in the capture window):
  p  pause / resume
  q  quit
  s  save an annotated snapshot (capture window only)

Examples:
  capture-kit window run
  capture-kit window run --title "irisu syndrome" --process irisu.exe`,
	Args: cobra.NoArgs,
	RunE: runWindowRun,
}

func init() {
	rootCmd.AddCommand(windowCmd)
	windowCmd.AddCommand(windowRunCmd)

	windowRunCmd.Flags().String("title", "", "Window title to look for (default from config)")
	windowRunCmd.Flags().String("process", "", "Process name to narrow the window search")
	windowRunCmd.Flags().Bool("no-hotkeys", false, "Only read keys from the capture window")
}

func runWindowRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if title := mustGetString(cmd, "title"); title != "" {
		cfg.Window.Title = title
	}
	if process := mustGetString(cmd, "process"); process != "" {
		cfg.Window.Process = process
	}
	w := cfg.Window

	driver, err := robot.NewDriver()
	if err != nil {
		return err
	}
	finder, err := opencv.NewContourFinder(w.Threshold, w.Epsilon)
	if err != nil {
		return err
	}
	display, err := opencv.NewDisplay()
	if err != nil {
		return err
	}
	renderer, err := opencv.NewRenderer()
	if err != nil {
		return err
	}

	opts := game.Options{
		Title:         w.Title,
		Process:       w.Process,
		StartDelay:    w.StartDelay,
		ClickHold:     w.ClickHold,
		MenuWait:      w.MenuWait,
		ActivateDelay: w.ActivateDelay,
		FrameDelay:    w.FrameDelay,
		PauseDebounce: w.PauseDebounce,
		Filter: vision.FrameFilter{
			MinWidth:  w.MinWidth,
			MinHeight: w.MinHeight,
			AspectMin: w.AspectMin,
			AspectMax: w.AspectMax,
			MergeIoU:  w.MergeIoU,
		},
		SnapshotDir: cfg.SnapshotDir,
	}
	options := []game.RunnerOption{
		game.WithLogger(logger.Named("window")),
		game.WithOutput(os.Stdout),
		game.WithRenderer(renderer),
	}

	if !mustGetBool(cmd, "no-hotkeys") {
		hotkeys, err := robot.StartHotkeys()
		if err != nil {
			logger.Warn("global hotkeys unavailable, using the capture window keys only", zap.Error(err))
		} else {
			defer hotkeys.Close()
			options = append(options, game.WithHotkeys(hotkeys))
		}
	}

	runner := game.NewRunner(driver, finder, display, opts, options...)

	ctx, stop := signalContext()
	defer stop()

	stats, err := runner.Run(ctx)
	if game.IsWindowNotFound(err) {
		return fmt.Errorf("window %q not found", w.Title)
	}
	if err != nil && !isInterrupted(err) {
		return fmt.Errorf("window loop: %w", err)
	}

	logger.Info("window loop finished",
		zap.Int("frames", stats.Frames),
		zap.Int("detections", stats.Detections),
		zap.Int("pauses", stats.Pauses))
	return nil
}
