package config

import "math"

func preset(mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	mutate(cfg)
	return cfg
}

var Presets = map[string]*Config{
	// The stock 2.2 kW drive: ramp to 40 Hz, rated-fraction load step at 1 s.
	"2.2kw": preset(func(c *Config) {}),

	// Same drive in averaged modulation for fast controller studies.
	"2.2kw-averaged": preset(func(c *Config) {
		c.Sim.PWM = false
	}),

	// Slip-compensated variant: holds loaded speed near the reference at
	// the cost of a biased settle point.
	"2.2kw-slipcomp": preset(func(c *Config) {
		c.Control.SlipComp = true
	}),

	// Fan drive: quadratic load tuned to absorb rated torque at 50 Hz.
	"fan": preset(func(c *Config) {
		c.Scenario = ScenarioConfig{SpeedRefHz: 50}
		c.Mechanics.FanCoeff = 14.6 / math.Pow(2*math.Pi*50/2, 2)
		c.Sim.StopTime = 2.0
	}),

	// Field-weakening sweep: reference past base speed with six-step shaping.
	"field-weakening": preset(func(c *Config) {
		c.Scenario = ScenarioConfig{SpeedRefHz: 75}
		c.Control.SixStep = true
		c.Sim.StopTime = 2.5
	}),

	// Lossless machine with no supply interaction, for integrator checks.
	"lossless": preset(func(c *Config) {
		c.Machine.Rs = 0
		c.Machine.Rr = 0
		c.Machine.Beta = 0
		c.Scenario = ScenarioConfig{}
		c.Sim.PWM = false
		c.Sim.StopTime = 0.5
	}),
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	// Hand out a copy so callers can mutate freely.
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
