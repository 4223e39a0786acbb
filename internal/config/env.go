package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/ivlev/aecomp/internal/importer"
	"github.com/ivlev/aecomp/internal/scene"
	"github.com/joho/godotenv"
)

// EnvPrefix starts every environment variable the converter reads.
const EnvPrefix = "AECOMP_"

// LoadEnv reads .env style files into the process environment (variables
// already set win) and then applies the AECOMP_* variables to c. Missing
// files are skipped.
func (c *Config) LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	parse := func(name string, set func(string) error) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}
	boolean := func(name string, dst *bool) {
		parse(name, func(v string) (err error) {
			*dst, err = strconv.ParseBool(v)
			return err
		})
	}
	float := func(name string, dst *float64) {
		parse(name, func(v string) (err error) {
			*dst, err = strconv.ParseFloat(v, 64)
			return err
		})
	}
	integer := func(name string, dst *int) {
		parse(name, func(v string) (err error) {
			*dst, err = strconv.Atoi(v)
			return err
		})
	}

	str("INPUT", &c.InputPath)
	str("INPUT_DIR", &c.InputDir)
	str("OUTPUT", &c.OutputPath)
	str("OUTPUT_DIR", &c.OutputDir)
	str("FORMAT", &c.Format)
	str("BASE_SCENE", &c.BaseScene)
	integer("WORKERS", &c.Workers)
	integer("SCENE_FPS", &c.SceneFPS)
	float("SCENE_FPS_BASE", &c.SceneFPSBase)

	o := &c.Import
	float("SCALE", &o.ScaleFactor)
	if v, ok := lookup(EnvPrefix + "FPS_MODE"); ok {
		o.HandleFramerate = importer.FrameratePolicy(v)
	}
	if v, ok := lookup(EnvPrefix + "SENSOR_FIT"); ok {
		o.SensorFit = scene.SensorFit(strings.ToUpper(v))
	}
	boolean("CENTER", &o.CompCenterToOrigin)
	boolean("RESOLUTION", &o.UseCompResolution)
	boolean("COLLECTION", &o.CreateNewCollection)
	boolean("FRAME_RANGE", &o.AdjustFrameStartEnd)
	boolean("MARKERS", &o.CamerasToMarkers)

	return errors.Join(errs...)
}
