package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/capture-kit/internal/config"
	"github.com/kozaktomas/capture-kit/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "capture-kit",
	Short: "Screen and webcam capture loops with contour and face detection",
	Long: `Capture Kit runs two interactive capture loops:

  window run   drives a game window, detects its white frames and
               shows them with pause (p) and quit (q) hotkeys
  faces watch  identifies faces from a webcam against a directory of
               stored feature vectors and enrolls new faces

It also manages the stored identities and serves them over HTTP.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (defaults are embedded)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// setup loads the configuration and builds the logger every command uses.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, log, nil
}
