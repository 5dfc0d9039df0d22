package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds command settings. Values come from defaults, then the YAML
// file named by -config, then flags that were set explicitly.
type Config struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Scale   float64 `yaml:"scale"`
	Variant string  `yaml:"variant"`
	Backend string  `yaml:"backend"`
	Pattern string  `yaml:"pattern"`
	Encoded bool    `yaml:"encoded"`
	Output  string  `yaml:"output"`
	Watch   string  `yaml:"watch"`
	Verbose bool    `yaml:"verbose"`
}

const maxConfigSize = 1 << 20

var errInvalidConfig = errors.New("invalid config")

func defaultConfig() Config {
	return Config{
		Width:   640,
		Height:  480,
		Scale:   1,
		Variant: "gpu",
		Backend: "software",
		Pattern: "quadrants",
		Output:  "pixview.png",
	}
}

// parseConfig builds the configuration from command line arguments.
func parseConfig(args []string) (Config, error) {
	cfg := defaultConfig()
	flags := cfg
	var path string

	fs := flag.NewFlagSet("pixview", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "YAML configuration file")
	fs.IntVar(&flags.Width, "width", cfg.Width, "view width in logical points")
	fs.IntVar(&flags.Height, "height", cfg.Height, "view height in logical points")
	fs.Float64Var(&flags.Scale, "scale", cfg.Scale, "display scale factor")
	fs.StringVar(&flags.Variant, "variant", cfg.Variant, "display variant: gpu or image")
	fs.StringVar(&flags.Backend, "backend", cfg.Backend, "GPU backend: software or noop")
	fs.StringVar(&flags.Pattern, "pattern", cfg.Pattern, "test pattern: quadrants or gradient")
	fs.BoolVar(&flags.Encoded, "encoded", cfg.Encoded, "deliver the pattern as a BMP image")
	fs.StringVar(&flags.Output, "output", cfg.Output, "PNG file for the presented frame")
	fs.StringVar(&flags.Watch, "watch", cfg.Watch, "image file to display and reload on change")
	fs.BoolVar(&flags.Verbose, "v", cfg.Verbose, "debug logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if path != "" {
		var err error
		if cfg, err = loadConfigFile(path, cfg); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Width = flags.Width
		case "height":
			cfg.Height = flags.Height
		case "scale":
			cfg.Scale = flags.Scale
		case "variant":
			cfg.Variant = flags.Variant
		case "backend":
			cfg.Backend = flags.Backend
		case "pattern":
			cfg.Pattern = flags.Pattern
		case "encoded":
			cfg.Encoded = flags.Encoded
		case "output":
			cfg.Output = flags.Output
		case "watch":
			cfg.Watch = flags.Watch
		case "v":
			cfg.Verbose = flags.Verbose
		}
	})
	return cfg, cfg.validate()
}

// loadConfigFile overlays the YAML file at path onto base. Unknown keys are
// rejected.
func loadConfigFile(path string, base Config) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("%w: %s is %d bytes", errInvalidConfig, path, info.Size())
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return Config{}, err
	}

	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: size %dx%d", errInvalidConfig, c.Width, c.Height)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("%w: scale %v", errInvalidConfig, c.Scale)
	}
	switch c.Variant {
	case "gpu", "image":
	default:
		return fmt.Errorf("%w: variant %q", errInvalidConfig, c.Variant)
	}
	if _, ok := backends[c.Backend]; !ok {
		return fmt.Errorf("%w: backend %q", errInvalidConfig, c.Backend)
	}
	if _, ok := patterns[c.Pattern]; !ok {
		return fmt.Errorf("%w: pattern %q", errInvalidConfig, c.Pattern)
	}
	return nil
}
