package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Machine.PolePairs < 1 {
		t.Error("pole pairs should be at least 1")
	}
	if cfg.Sim.StopTime <= 0 {
		t.Error("stop time should be positive")
	}
	if cfg.Sim.SwitchingFreq <= 0 {
		t.Error("switching frequency should be positive")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive.yaml")

	cfg := DefaultConfig()
	cfg.Scenario.SpeedRefHz = 33
	cfg.Sim.PWM = false
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scenario.SpeedRefHz != 33 {
		t.Errorf("speed ref: got %g, want 33", loaded.Scenario.SpeedRefHz)
	}
	if loaded.Sim.PWM {
		t.Error("pwm flag should survive the round trip")
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "scenario:\n  speed_ref_hz: 20\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scenario.SpeedRefHz != 20 {
		t.Errorf("overridden field: got %g", cfg.Scenario.SpeedRefHz)
	}
	if cfg.Machine.Rs != 3.7 {
		t.Errorf("unset fields should keep defaults, Rs=%g", cfg.Machine.Rs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("2.2kw")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Machine.Rs != 3.7 {
		t.Errorf("expected stock stator resistance, got %g", cfg.Machine.Rs)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetCopyIsolation(t *testing.T) {
	a := GetPreset("2.2kw")
	a.Scenario.SpeedRefHz = 999

	b := GetPreset("2.2kw")
	if b.Scenario.SpeedRefHz == 999 {
		t.Error("presets must hand out independent copies")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) == 0 {
		t.Fatal("expected presets")
	}
	found := false
	for _, n := range names {
		if n == "2.2kw" {
			found = true
		}
	}
	if !found {
		t.Error("stock preset missing from listing")
	}
}

func TestScenarioFuncs(t *testing.T) {
	s := ScenarioConfig{SpeedRefHz: 25, LoadStepTime: 1.0, LoadTorque: 5}

	ref := s.SpeedRef()
	if got := ref(0.3); math.Abs(got-2*math.Pi*25) > 1e-12 {
		t.Errorf("speed ref: got %g", got)
	}

	load := s.LoadTime()
	if load(0.5) != 0 {
		t.Error("load should be zero before the step")
	}
	if load(1.5) != 5 {
		t.Error("load should be applied after the step")
	}

	if (ScenarioConfig{}).LoadTime() != nil {
		t.Error("zero torque should produce no load law")
	}
}

func TestFanLoad(t *testing.T) {
	m := MechanicsConfig{FanCoeff: 2}
	fan := m.LoadSpeed()

	if got := fan(3); got != 18 {
		t.Errorf("fan law at +3: got %g, want 18", got)
	}
	if got := fan(-3); got != -18 {
		t.Errorf("fan law must oppose reverse rotation, got %g", got)
	}
	if (MechanicsConfig{}).LoadSpeed() != nil {
		t.Error("zero coefficient should produce no fan law")
	}
}
