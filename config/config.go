// Package config loads the run configuration of the xscene command from a
// TOML or YAML file.
package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/xscene/backend"
)

// DefaultFile is the configuration read when none is named.
const DefaultFile = "~/.config/xscene/config.toml"

// Config is the run configuration. Zero fields mean "use the default".
type Config struct {
	// Scene is the scene document to render.
	Scene string `toml:"scene" yaml:"scene"`
	// Backend names a registered backend.
	Backend string `toml:"backend" yaml:"backend"`

	// Frames is the number of frames to run; 0 runs until interrupted.
	Frames int `toml:"frames" yaml:"frames"`
	// FrameInterval is the pause between frames.
	FrameInterval Duration `toml:"frame_interval" yaml:"frame_interval"`

	// Output is the PNG written after the last frame (raster backend).
	Output string `toml:"output" yaml:"output"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`

	MaxLights   int  `toml:"max_lights" yaml:"max_lights"`
	SharedLoads bool `toml:"shared_loads" yaml:"shared_loads"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// Store is the program database path; empty disables it.
	Store string `toml:"store" yaml:"store"`
	// Watch recompiles the scene when it changes on disk.
	Watch bool `toml:"watch" yaml:"watch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:       backend.NameRaster,
		Frames:        1,
		FrameInterval: Duration(time.Second / 60),
		Width:         640,
		Height:        480,
		MaxLights:     backend.DefaultMaxLights,
		LogLevel:      "warn",
	}
}

// Duration is a time.Duration written as a string such as "16ms".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// decoder is satisfied by the TOML and YAML decoders.
type decoder interface {
	Decode(v any) error
}

type decoderFunc func(r io.Reader) decoder

func tomlDecoder(r io.Reader) decoder {
	return toml.NewDecoder(r).DisallowUnknownFields()
}

func yamlDecoder(r io.Reader) decoder {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	return d
}

// decoderFor picks the decoder by file extension.
func decoderFor(path string) (decoderFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return tomlDecoder, nil
	case ".yaml", ".yml":
		return yamlDecoder, nil
	default:
		return nil, fmt.Errorf("config: %s: unknown format (want .toml, .yaml or .yml)", path)
	}
}

// Load reads the file at path over the defaults. A leading ~ is expanded
// to the home directory.
func Load(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	dec, err := decoderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	c := Default()
	if err := dec(bufio.NewReader(f)).Decode(c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := c.resolve(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// LoadDefault reads DefaultFile if it exists and returns the built-in
// defaults otherwise.
func LoadDefault() (*Config, error) {
	path, err := homedir.Expand(DefaultFile)
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}

// resolve expands ~ in paths and makes relative ones relative to dir, the
// directory of the configuration file.
func (c *Config) resolve(dir string) error {
	for _, p := range []*string{&c.Scene, &c.Output, &c.Store} {
		if *p == "" {
			continue
		}
		v, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if !filepath.IsAbs(v) {
			v = filepath.Join(dir, v)
		}
		*p = v
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Frames < 0:
		return fmt.Errorf("config: frames must not be negative")
	case c.FrameInterval < 0:
		return fmt.Errorf("config: frame_interval must not be negative")
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: invalid size %dx%d", c.Width, c.Height)
	case c.MaxLights <= 0:
		return fmt.Errorf("config: max_lights must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps LogLevel onto a slog level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}
