// Package config collects converter settings from defaults, preset files,
// the environment and command line flags, in that order of priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ivlev/aecomp/internal/export"
	"github.com/ivlev/aecomp/internal/importer"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// InputPath is a composition export. Empty means the newest .json in InputDir.
	InputPath string   `yaml:"input" toml:"input"`
	Inputs    []string `yaml:"inputs,omitempty" toml:"inputs,omitempty"`
	InputDir  string   `yaml:"input_dir" toml:"input_dir"`
	// OutputPath is only honored for a single input; otherwise names are
	// derived from the inputs and placed in OutputDir.
	OutputPath string `yaml:"output" toml:"output"`
	OutputDir  string `yaml:"output_dir" toml:"output_dir"`
	Format     string `yaml:"format" toml:"format"`
	// BaseScene is a YAML scene written by an earlier run. Imports are
	// added to it instead of to an empty scene.
	BaseScene string `yaml:"base_scene" toml:"base_scene"`

	Workers int  `yaml:"workers" toml:"workers"`
	Watch   bool `yaml:"watch" toml:"watch"`

	// State of the destination scene before the import; remap_times
	// converts to this rate.
	SceneFPS     int     `yaml:"scene_fps" toml:"scene_fps"`
	SceneFPSBase float64 `yaml:"scene_fps_base" toml:"scene_fps_base"`

	Import importer.Options `yaml:"import" toml:"import"`

	Preset string `yaml:"-" toml:"-"`
	// BuildVersion is set by the binary (-ldflags "-X main.version=...")
	// and stamped into written files.
	BuildVersion string `yaml:"-" toml:"-"`
}

// Default returns the settings used when nothing else is given.
func Default() *Config {
	return &Config{
		InputDir:     "input",
		OutputDir:    "output",
		Format:       "yaml",
		Workers:      1,
		SceneFPS:     24,
		SceneFPSBase: 1,
		Import:       importer.DefaultOptions(),
		BuildVersion: "dev",
	}
}

// LoadPreset merges a YAML (.yaml, .yml) or TOML (.toml) preset into c.
// Keys missing from the file keep their current values.
func (c *Config) LoadPreset(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("preset: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("preset %s: unsupported format, use .yaml or .toml", path)
	}
	if err != nil {
		return fmt.Errorf("preset %s: %w", path, err)
	}
	c.Preset = path
	return nil
}

// ExpandPaths resolves a leading ~ in every path setting.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.InputPath, &c.InputDir, &c.OutputPath, &c.OutputDir, &c.BaseScene} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	for i, in := range c.Inputs {
		expanded, err := homedir.Expand(in)
		if err != nil {
			return err
		}
		c.Inputs[i] = expanded
	}
	return nil
}

// AllInputs returns InputPath followed by Inputs, without duplicates.
func (c *Config) AllInputs() []string {
	var all []string
	for _, in := range append([]string{c.InputPath}, c.Inputs...) {
		if in != "" && !slices.Contains(all, in) {
			all = append(all, in)
		}
	}
	return all
}

// Validate rejects settings the converter cannot run with.
func (c *Config) Validate() error {
	if err := c.Import.Validate(); err != nil {
		return err
	}
	if _, err := export.New(c.Format); err != nil {
		return err
	}
	if c.SceneFPS <= 0 || c.SceneFPSBase <= 0 {
		return fmt.Errorf("scene frame rate must be positive, got %d/%v", c.SceneFPS, c.SceneFPSBase)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.OutputPath != "" && len(c.AllInputs()) > 1 {
		return fmt.Errorf("-output names a single file but %d inputs were given", len(c.AllInputs()))
	}
	return nil
}
