// Package config holds the settings of a render.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Script   string `yaml:"script"`   // Script document; empty uses Preset
	Preset   string `yaml:"preset"`   // Built-in script when Script is empty
	Backdrop string `yaml:"backdrop"` // PDF, image or directory; empty generates pages
	Catalog  string `yaml:"catalog"`  // Scene catalog; empty uses the built-in one
	Output   string `yaml:"output"`   // .mp4, .mov, .mkv, .webm or .gif

	Width    int           `yaml:"width"`
	Height   int           `yaml:"height"`
	FPS      int           `yaml:"fps"`
	Duration time.Duration `yaml:"duration"` // Zero renders one loop
	FitLoop  time.Duration `yaml:"fit_loop"` // Rescale dwell beats to this loop length

	// InterruptAt simulates a visitor grabbing the widget; the export stops
	// there. Zero disables it.
	InterruptAt time.Duration `yaml:"interrupt_at"`

	DPI          int    `yaml:"dpi"`
	Margin       int    `yaml:"margin"` // Percent of canvas height around the page
	Detector     string `yaml:"detector"`
	Workers      int    `yaml:"workers"` // Zero sizes to the host
	VideoEncoder string `yaml:"video_encoder"`
	Quality      int    `yaml:"quality"`
}

// Default returns the settings used when neither a file nor flags say
// otherwise.
func Default() Config {
	return Config{
		Preset:   "comparison",
		Output:   "demo.mp4",
		Width:    1280,
		Height:   720,
		FPS:      30,
		DPI:      110,
		Margin:   6,
		Detector: "contrast",
		Quality:  23,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be rendered.
func (c Config) Validate() error {
	switch {
	case c.Script == "" && c.Preset == "":
		return errors.New("either script or preset is required")
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	case c.Width%2 != 0 || c.Height%2 != 0:
		return fmt.Errorf("size %dx%d must be even for yuv420p", c.Width, c.Height)
	case c.FPS <= 0 || c.FPS > 120:
		return fmt.Errorf("fps %d out of range 1-120", c.FPS)
	case c.Duration < 0:
		return fmt.Errorf("negative duration %v", c.Duration)
	case c.FitLoop < 0:
		return fmt.Errorf("negative fit_loop %v", c.FitLoop)
	case c.InterruptAt < 0:
		return fmt.Errorf("negative interrupt_at %v", c.InterruptAt)
	case c.DPI <= 0:
		return fmt.Errorf("invalid dpi %d", c.DPI)
	case c.Margin < 0 || c.Margin >= 50:
		return fmt.Errorf("margin %d out of range 0-49", c.Margin)
	case c.Workers < 0:
		return fmt.Errorf("negative workers %d", c.Workers)
	case c.Quality < 0:
		return fmt.Errorf("negative quality %d", c.Quality)
	}
	switch ext := strings.ToLower(filepath.Ext(c.Output)); ext {
	case ".mp4", ".mov", ".mkv", ".webm", ".gif":
	default:
		return fmt.Errorf("unsupported output %q", c.Output)
	}
	return nil
}
