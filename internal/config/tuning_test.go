package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, dir string, body map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTuningConfigAppliesDefaultsForUnsetFields(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), map[string]interface{}{"crop_radius": 300})
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}
	if cfg.GetCropRadius() != 300 {
		t.Errorf("expected crop_radius 300, got %v", cfg.GetCropRadius())
	}
	if cfg.GetRobotRadius() != 40 {
		t.Errorf("expected default robot_radius 40, got %v", cfg.GetRobotRadius())
	}
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.txt")
	os.WriteFile(path, []byte("{}"), 0o644)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected an error for a non-.json extension")
	}
}

func TestLoadTuningConfigRejectsOversizeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	big := make([]byte, 2*1024*1024)
	for i := range big {
		big[i] = ' '
	}
	os.WriteFile(path, big, 0o644)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected an error for an oversize config file")
	}
}

func TestLoadTuningConfigRejectsMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestValidateRejectsInvertedAreaBounds(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), map[string]interface{}{
		"ball_min_area": 500,
		"ball_max_area": 100,
	})
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected Validate to reject ball_min_area >= ball_max_area")
	}
}

func TestValidateRejectsNonPositiveCropRadius(t *testing.T) {
	cfg := EmptyTuningConfig()
	zero := 0.0
	cfg.CropRadius = &zero
	if err := cfg.Validate(); err == nil {
		t.Error("expected Validate to reject a non-positive crop_radius")
	}
}

func TestGetOrangeFallsBackToDefaultWhenUnset(t *testing.T) {
	cfg := EmptyTuningConfig()
	rng := cfg.GetOrange()
	if rng != (HSVRangeConfig{}) {
		t.Errorf("expected zero-value fallback, got %+v", rng)
	}
}
