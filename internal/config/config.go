package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Match strategies and detector models accepted by Validate.
const (
	MatchFirst   = "first"
	MatchNearest = "nearest"

	ModelHOG = "hog"
	ModelCNN = "cnn"
)

type Config struct {
	Log         LogConfig      `yaml:"log"`
	Faces       FacesConfig    `yaml:"faces"`
	Window      WindowConfig   `yaml:"window"`
	Database    DatabaseConfig `yaml:"database"`
	Web         WebConfig      `yaml:"web"`
	SnapshotDir string         `yaml:"snapshot_dir"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type FacesConfig struct {
	DataDir   string  `yaml:"data_dir"`   // one vector file per identity
	ModelsDir string  `yaml:"models_dir"` // dlib model files for the recognizer
	Camera    int     `yaml:"camera"`
	Dim       int     `yaml:"dim"`
	Tolerance float64 `yaml:"tolerance"`
	Match     string  `yaml:"match"`     // first or nearest
	Model     string  `yaml:"model"`     // hog or cnn
	MaxWidth  int     `yaml:"max_width"` // downscale frames wider than this before detection, 0 disables
}

type WindowConfig struct {
	Title         string        `yaml:"title"`
	Process       string        `yaml:"process"` // optional process name to narrow the window search
	Threshold     float64       `yaml:"threshold"`
	Epsilon       float64       `yaml:"epsilon"` // fraction of the contour perimeter
	MinWidth      int           `yaml:"min_width"`
	MinHeight     int           `yaml:"min_height"`
	AspectMin     float64       `yaml:"aspect_min"`
	AspectMax     float64       `yaml:"aspect_max"`
	MergeIoU      float64       `yaml:"merge_iou"` // 0 keeps overlapping frames
	StartDelay    time.Duration `yaml:"start_delay"`
	ClickHold     time.Duration `yaml:"click_hold"`
	MenuWait      time.Duration `yaml:"menu_wait"`
	ActivateDelay time.Duration `yaml:"activate_delay"`
	FrameDelay    time.Duration `yaml:"frame_delay"`
	PauseDebounce time.Duration `yaml:"pause_debounce"`
}

type DatabaseConfig struct {
	URL           string `yaml:"url"`             // PostgreSQL connection URL
	MaxOpenConns  int    `yaml:"max_open_conns"`  // Maximum open connections (default 25)
	MaxIdleConns  int    `yaml:"max_idle_conns"`  // Maximum idle connections (default 5)
	HNSWIndexPath string `yaml:"hnsw_index_path"` // Path to persist face HNSW index (optional, if empty index is rebuilt on startup)
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS origins besides localhost
}

// Addr returns the listen address for the web server.
func (c WebConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// envInt reads an environment variable and parses it as a non-negative integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Default returns the embedded defaults.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load builds the configuration from the embedded defaults, the optional YAML
// file at path and finally the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the --config flag
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Log.Level = envString("CAPTURE_LOG_LEVEL", c.Log.Level)
	c.Log.Development = envBool("CAPTURE_LOG_DEV", c.Log.Development)

	c.Faces.DataDir = envString("FACES_DATA_DIR", c.Faces.DataDir)
	c.Faces.ModelsDir = envString("FACES_MODELS_DIR", c.Faces.ModelsDir)
	c.Faces.Camera = envInt("FACES_CAMERA", c.Faces.Camera)
	c.Faces.Dim = envInt("FACES_DIM", c.Faces.Dim)
	c.Faces.Tolerance = envFloat("FACES_TOLERANCE", c.Faces.Tolerance)
	c.Faces.Match = envString("FACES_MATCH", c.Faces.Match)
	c.Faces.Model = envString("FACES_MODEL", c.Faces.Model)
	c.Faces.MaxWidth = envInt("FACES_MAX_WIDTH", c.Faces.MaxWidth)

	c.Window.Title = envString("WINDOW_TITLE", c.Window.Title)
	c.Window.Process = envString("WINDOW_PROCESS", c.Window.Process)

	c.Database.URL = envString("DATABASE_URL", c.Database.URL)
	c.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.HNSWIndexPath = envString("HNSW_INDEX_PATH", c.Database.HNSWIndexPath)

	c.Web.Host = envString("WEB_HOST", c.Web.Host)
	c.Web.Port = envInt("WEB_PORT", c.Web.Port)
	if origins := os.Getenv("WEB_ALLOWED_ORIGINS"); origins != "" {
		c.Web.AllowedOrigins = splitList(origins)
	}

	c.SnapshotDir = envString("SNAPSHOT_DIR", c.SnapshotDir)
}

// Validate reports every setting that the loops cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Faces.Dim <= 0 {
		errs = append(errs, fmt.Errorf("faces.dim must be positive, got %d", c.Faces.Dim))
	}
	if c.Faces.Tolerance <= 0 || c.Faces.Tolerance > 2 {
		errs = append(errs, fmt.Errorf("faces.tolerance must be in (0, 2], got %g", c.Faces.Tolerance))
	}
	switch c.Faces.Match {
	case MatchFirst, MatchNearest:
	default:
		errs = append(errs, fmt.Errorf("faces.match must be %q or %q, got %q", MatchFirst, MatchNearest, c.Faces.Match))
	}
	switch c.Faces.Model {
	case ModelHOG, ModelCNN:
	default:
		errs = append(errs, fmt.Errorf("faces.model must be %q or %q, got %q", ModelHOG, ModelCNN, c.Faces.Model))
	}
	if c.Faces.DataDir == "" {
		errs = append(errs, errors.New("faces.data_dir must not be empty"))
	}
	if c.Window.AspectMin >= c.Window.AspectMax {
		errs = append(errs, fmt.Errorf("window.aspect_min (%g) must be below window.aspect_max (%g)", c.Window.AspectMin, c.Window.AspectMax))
	}
	if c.Window.MergeIoU < 0 || c.Window.MergeIoU > 1 {
		errs = append(errs, fmt.Errorf("window.merge_iou must be in [0, 1], got %g", c.Window.MergeIoU))
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		errs = append(errs, fmt.Errorf("web.port out of range: %d", c.Web.Port))
	}
	return errors.Join(errs...)
}
