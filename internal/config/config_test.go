package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Faces.Dim != 128 {
		t.Errorf("expected default dim 128, got %d", cfg.Faces.Dim)
	}
	if cfg.Faces.Tolerance != 0.6 {
		t.Errorf("expected default tolerance 0.6, got %v", cfg.Faces.Tolerance)
	}
	if cfg.Faces.Match != MatchFirst {
		t.Errorf("expected default match %q, got %q", MatchFirst, cfg.Faces.Match)
	}
	if cfg.Window.Title != "irisu syndrome" {
		t.Errorf("expected default window title, got %q", cfg.Window.Title)
	}
	if cfg.Window.Threshold != 200 {
		t.Errorf("expected threshold 200, got %v", cfg.Window.Threshold)
	}
	if cfg.Window.MenuWait != 3*time.Second {
		t.Errorf("expected menu wait 3s, got %v", cfg.Window.MenuWait)
	}
	if cfg.Window.PauseDebounce != 500*time.Millisecond {
		t.Errorf("expected pause debounce 500ms, got %v", cfg.Window.PauseDebounce)
	}
	if cfg.Database.MaxOpenConns != 25 || cfg.Database.MaxIdleConns != 5 {
		t.Errorf("unexpected pool defaults: %+v", cfg.Database)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Faces.DataDir == "" {
		t.Error("expected a default data dir")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.yaml")
	content := `
faces:
  tolerance: 0.45
  match: nearest
window:
  title: Other Game
  frame_delay: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Faces.Tolerance != 0.45 {
		t.Errorf("expected tolerance 0.45, got %v", cfg.Faces.Tolerance)
	}
	if cfg.Faces.Match != MatchNearest {
		t.Errorf("expected match nearest, got %q", cfg.Faces.Match)
	}
	if cfg.Window.Title != "Other Game" {
		t.Errorf("expected title 'Other Game', got %q", cfg.Window.Title)
	}
	if cfg.Window.FrameDelay != 250*time.Millisecond {
		t.Errorf("expected frame delay 250ms, got %v", cfg.Window.FrameDelay)
	}
	// Values missing from the file keep their defaults.
	if cfg.Faces.Dim != 128 {
		t.Errorf("expected dim 128 to survive, got %d", cfg.Faces.Dim)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.yaml")
	if err := os.WriteFile(path, []byte("faces:\n  camera: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FACES_CAMERA", "1")
	t.Setenv("FACES_TOLERANCE", "0.5")
	t.Setenv("WINDOW_TITLE", "Env Game")
	t.Setenv("DATABASE_URL", "postgres://localhost/faces")
	t.Setenv("CAPTURE_LOG_DEV", "true")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Faces.Camera != 1 {
		t.Errorf("expected camera 1, got %d", cfg.Faces.Camera)
	}
	if cfg.Faces.Tolerance != 0.5 {
		t.Errorf("expected tolerance 0.5, got %v", cfg.Faces.Tolerance)
	}
	if cfg.Window.Title != "Env Game" {
		t.Errorf("expected title 'Env Game', got %q", cfg.Window.Title)
	}
	if cfg.Database.URL != "postgres://localhost/faces" {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}
	if !cfg.Log.Development {
		t.Error("expected development logging")
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected allowed origins %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_InvalidEnvKeepsDefault(t *testing.T) {
	t.Setenv("FACES_DIM", "invalid")
	t.Setenv("WEB_PORT", "-1")
	t.Setenv("FACES_TOLERANCE", "abc")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Faces.Dim != 128 {
		t.Errorf("expected default dim for invalid value, got %d", cfg.Faces.Dim)
	}
	if cfg.Web.Port != 8085 {
		t.Errorf("expected default port for negative value, got %d", cfg.Web.Port)
	}
	if cfg.Faces.Tolerance != 0.6 {
		t.Errorf("expected default tolerance, got %v", cfg.Faces.Tolerance)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero dim", func(c *Config) { c.Faces.Dim = 0 }, "faces.dim"},
		{"zero tolerance", func(c *Config) { c.Faces.Tolerance = 0 }, "faces.tolerance"},
		{"tolerance too large", func(c *Config) { c.Faces.Tolerance = 2.5 }, "faces.tolerance"},
		{"unknown match", func(c *Config) { c.Faces.Match = "best" }, "faces.match"},
		{"unknown model", func(c *Config) { c.Faces.Model = "mtcnn" }, "faces.model"},
		{"empty data dir", func(c *Config) { c.Faces.DataDir = "" }, "faces.data_dir"},
		{"inverted aspect", func(c *Config) { c.Window.AspectMin = 10; c.Window.AspectMax = 1 }, "window.aspect_min"},
		{"merge iou", func(c *Config) { c.Window.MergeIoU = 1.5 }, "window.merge_iou"},
		{"bad port", func(c *Config) { c.Web.Port = 70000 }, "web.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestWebConfig_Addr(t *testing.T) {
	cfg := WebConfig{Host: "0.0.0.0", Port: 8085}
	if got := cfg.Addr(); got != "0.0.0.0:8085" {
		t.Errorf("Addr() = %q, want %q", got, "0.0.0.0:8085")
	}
}
