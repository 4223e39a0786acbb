package importer

import (
	"fmt"

	"github.com/ivlev/aecomp/internal/scene"
)

// FrameratePolicy decides what happens when the comp frame rate differs
// from the destination scene's.
type FrameratePolicy string

const (
	// PreserveFrameNumbers keeps comp frame numbers; the scene rate is left alone.
	PreserveFrameNumbers FrameratePolicy = "preserve_frame_numbers"
	// SetFramerate keeps frame numbers and switches the scene to the comp rate.
	SetFramerate FrameratePolicy = "set_framerate"
	// RemapTimes keeps durations in seconds by rescaling frame numbers to
	// the scene's existing rate.
	RemapTimes FrameratePolicy = "remap_times"
)

// Valid reports whether p is a known policy.
func (p FrameratePolicy) Valid() bool {
	switch p {
	case PreserveFrameNumbers, SetFramerate, RemapTimes:
		return true
	}
	return false
}

// Options mirrors the import settings a user can change.
type Options struct {
	// ScaleFactor maps pixels to scene units. 0.01 is one pixel per centimeter.
	ScaleFactor         float64         `yaml:"scale_factor" toml:"scale_factor"`
	HandleFramerate     FrameratePolicy `yaml:"handle_framerate" toml:"handle_framerate"`
	CompCenterToOrigin  bool            `yaml:"comp_center_to_origin" toml:"comp_center_to_origin"`
	UseCompResolution   bool            `yaml:"use_comp_resolution" toml:"use_comp_resolution"`
	CreateNewCollection bool            `yaml:"create_new_collection" toml:"create_new_collection"`
	AdjustFrameStartEnd bool            `yaml:"adjust_frame_start_end" toml:"adjust_frame_start_end"`
	CamerasToMarkers    bool            `yaml:"cameras_to_markers" toml:"cameras_to_markers"`
	// SensorFit is VERTICAL (24mm sensor height against comp height) or
	// HORIZONTAL (36mm sensor width against comp width).
	SensorFit scene.SensorFit `yaml:"sensor_fit" toml:"sensor_fit"`
}

// DefaultOptions returns the importer defaults.
func DefaultOptions() Options {
	return Options{
		ScaleFactor:     0.01,
		HandleFramerate: PreserveFrameNumbers,
		SensorFit:       scene.SensorFitVertical,
	}
}

// Validate rejects settings the importer cannot honor.
func (o Options) Validate() error {
	if o.ScaleFactor < 0.0001 || o.ScaleFactor > 10000 {
		return fmt.Errorf("scale factor %v outside [0.0001, 10000]", o.ScaleFactor)
	}
	if !o.HandleFramerate.Valid() {
		return fmt.Errorf("unknown framerate policy %q", o.HandleFramerate)
	}
	switch o.SensorFit {
	case scene.SensorFitVertical, scene.SensorFitHorizontal:
	default:
		return fmt.Errorf("unsupported sensor fit %q", o.SensorFit)
	}
	return nil
}
