// Package config loads the runtime tuning parameters for the perception
// pipeline: crop geometry, per-color HSV ranges, contour size bounds, and
// filter endurance, all editable live via the debug-UI parameter endpoint.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the canonical tuning defaults file, the single
// source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// HSVRangeConfig is the wire representation of one color's lower/upper HSV
// bound, matching the (lower_bound, upper_bound) tuples read from
// mask_params in the reference source.
type HSVRangeConfig struct {
	Lower [3]uint8 `json:"lower"`
	Upper [3]uint8 `json:"upper"`
}

// TuningConfig is the root configuration for every live-tunable pipeline
// parameter. All fields are pointers so the zero value (all nil) means
// "use the default," distinguishing an explicit 0 from "not set" the same
// way the reference TuningConfig does.
type TuningConfig struct {
	// Frame/crop params
	CropRadius *float64 `json:"crop_radius,omitempty"`

	// Mask params
	Orange      *HSVRangeConfig `json:"orange,omitempty"`
	Blue        *HSVRangeConfig `json:"blue,omitempty"`
	Yellow      *HSVRangeConfig `json:"yellow,omitempty"`
	Green       *HSVRangeConfig `json:"green,omitempty"`
	MaskField   *bool           `json:"mask_field,omitempty"`
	RobotRadius *float64        `json:"robot_radius,omitempty"`

	// Contour size params
	BallMinArea *float64 `json:"ball_min_area,omitempty"`
	BallMaxArea *float64 `json:"ball_max_area,omitempty"`
	GoalMinArea *float64 `json:"goal_min_area,omitempty"`
	GoalMaxArea *float64 `json:"goal_max_area,omitempty"`

	// Filter endurance params (max consecutive not-found ticks before a
	// prediction is abandoned)
	BallFilterEndurance *int `json:"ball_filter_endurance,omitempty"`
	GoalFilterEndurance *int `json:"goal_filter_endurance,omitempty"`

	// Goal polygon vertex-count sanity test
	GoalPolygonEpsilonFactor *float64 `json:"goal_polygon_epsilon_factor,omitempty"`

	// Resolves spec.md §9's flagged sanity-box unit mismatch.
	StrictSanityBounds *bool `json:"strict_sanity_bounds,omitempty"`

	// Render/debug-UI params
	Render *bool `json:"render,omitempty"`

	// Serial link params
	SerialDevice *string `json:"serial_device,omitempty"`
	SerialBaud   *int    `json:"serial_baud,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields nil. Use
// LoadTuningConfig to load actual values from a defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to have a .json extension and be under the max file size;
// fields omitted from the JSON retain their default values, so partial
// configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching the current directory and a few parent
// directories. Panics if the file cannot be loaded; intended for test
// setup and process startup, both of which should fail fast on a missing
// config.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks that set fields hold sane values.
func (c *TuningConfig) Validate() error {
	if c.CropRadius != nil && *c.CropRadius <= 0 {
		return fmt.Errorf("crop_radius must be positive, got %f", *c.CropRadius)
	}
	if c.RobotRadius != nil && *c.RobotRadius < 0 {
		return fmt.Errorf("robot_radius must be non-negative, got %f", *c.RobotRadius)
	}
	if c.BallMinArea != nil && c.BallMaxArea != nil && *c.BallMinArea >= *c.BallMaxArea {
		return fmt.Errorf("ball_min_area must be less than ball_max_area")
	}
	if c.GoalMinArea != nil && c.GoalMaxArea != nil && *c.GoalMinArea >= *c.GoalMaxArea {
		return fmt.Errorf("goal_min_area must be less than goal_max_area")
	}
	if c.BallFilterEndurance != nil && *c.BallFilterEndurance < 0 {
		return fmt.Errorf("ball_filter_endurance must be non-negative, got %d", *c.BallFilterEndurance)
	}
	if c.GoalFilterEndurance != nil && *c.GoalFilterEndurance < 0 {
		return fmt.Errorf("goal_filter_endurance must be non-negative, got %d", *c.GoalFilterEndurance)
	}
	if c.SerialBaud != nil && *c.SerialBaud <= 0 {
		return fmt.Errorf("serial_baud must be positive, got %d", *c.SerialBaud)
	}
	return nil
}

// GetCropRadius returns crop_radius or its default.
func (c *TuningConfig) GetCropRadius() float64 {
	if c.CropRadius == nil {
		return 240
	}
	return *c.CropRadius
}

// GetRobotRadius returns robot_radius or its default.
func (c *TuningConfig) GetRobotRadius() float64 {
	if c.RobotRadius == nil {
		return 40
	}
	return *c.RobotRadius
}

// GetMaskField returns mask_field or its default (enabled).
func (c *TuningConfig) GetMaskField() bool {
	if c.MaskField == nil {
		return true
	}
	return *c.MaskField
}

// GetBallMinArea returns ball_min_area or its default.
func (c *TuningConfig) GetBallMinArea() float64 {
	if c.BallMinArea == nil {
		return 20
	}
	return *c.BallMinArea
}

// GetBallMaxArea returns ball_max_area or its default.
func (c *TuningConfig) GetBallMaxArea() float64 {
	if c.BallMaxArea == nil {
		return 5000
	}
	return *c.BallMaxArea
}

// GetGoalMinArea returns goal_min_area or its default.
func (c *TuningConfig) GetGoalMinArea() float64 {
	if c.GoalMinArea == nil {
		return 200
	}
	return *c.GoalMinArea
}

// GetGoalMaxArea returns goal_max_area or its default.
func (c *TuningConfig) GetGoalMaxArea() float64 {
	if c.GoalMaxArea == nil {
		return 40000
	}
	return *c.GoalMaxArea
}

// GetBallFilterEndurance returns ball_filter_endurance or its default.
func (c *TuningConfig) GetBallFilterEndurance() int {
	if c.BallFilterEndurance == nil {
		return 10
	}
	return *c.BallFilterEndurance
}

// GetGoalFilterEndurance returns goal_filter_endurance or its default.
func (c *TuningConfig) GetGoalFilterEndurance() int {
	if c.GoalFilterEndurance == nil {
		return 10
	}
	return *c.GoalFilterEndurance
}

// GetGoalPolygonEpsilonFactor returns goal_polygon_epsilon_factor or its
// default, matching the reference's bare 0.03 constant.
func (c *TuningConfig) GetGoalPolygonEpsilonFactor() float64 {
	if c.GoalPolygonEpsilonFactor == nil {
		return 0.03
	}
	return *c.GoalPolygonEpsilonFactor
}

// GetStrictSanityBounds returns strict_sanity_bounds or its default
// (enabled: the cm-calibrated sanity box is the correct comparison once a
// Kalman state is being compared against a calibrated measurement).
func (c *TuningConfig) GetStrictSanityBounds() bool {
	if c.StrictSanityBounds == nil {
		return true
	}
	return *c.StrictSanityBounds
}

// GetRender returns render or its default (disabled; the Annotator is
// out-of-scope for the core pipeline per spec.md's Non-goals).
func (c *TuningConfig) GetRender() bool {
	if c.Render == nil {
		return false
	}
	return *c.Render
}

// GetSerialDevice returns serial_device or its default.
func (c *TuningConfig) GetSerialDevice() string {
	if c.SerialDevice == nil {
		return "/dev/ttyS0"
	}
	return *c.SerialDevice
}

// GetSerialBaud returns serial_baud or its default.
func (c *TuningConfig) GetSerialBaud() int {
	if c.SerialBaud == nil {
		return 1000000
	}
	return *c.SerialBaud
}

var defaultHSV = HSVRangeConfig{}

// GetOrange, GetBlue, GetYellow, GetGreen return the named color's HSV
// range, falling back to the zero range (0,0,0)-(0,0,0) if unset, which
// matches only pure black pixels — callers are expected to always load a real
// defaults file rather than relying on this fallback in production.
func (c *TuningConfig) GetOrange() HSVRangeConfig { return getRange(c.Orange) }
func (c *TuningConfig) GetBlue() HSVRangeConfig   { return getRange(c.Blue) }
func (c *TuningConfig) GetYellow() HSVRangeConfig { return getRange(c.Yellow) }
func (c *TuningConfig) GetGreen() HSVRangeConfig  { return getRange(c.Green) }

func getRange(r *HSVRangeConfig) HSVRangeConfig {
	if r == nil {
		return defaultHSV
	}
	return *r
}
