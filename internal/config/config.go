package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivesim/internal/dynamo"
)

const (
	DefaultSwitchingFreq = 4e3
	DefaultStopTime      = 1.5
	DefaultMaxStep       = 25e-6
	DefaultEventTol      = 1e-9
)

type Config struct {
	Machine   MachineConfig   `yaml:"machine"`
	Mechanics MechanicsConfig `yaml:"mechanics"`
	Converter ConverterConfig `yaml:"converter"`
	Control   ControlConfig   `yaml:"control"`
	Sim       SimConfig       `yaml:"sim"`
	Scenario  ScenarioConfig  `yaml:"scenario"`
}

type MachineConfig struct {
	Rs        float64 `yaml:"rs"`
	Rr        float64 `yaml:"rr"`
	LLeak     float64 `yaml:"l_leak"`
	Lsu       float64 `yaml:"l_su"`
	Beta      float64 `yaml:"beta"`
	Exp       float64 `yaml:"exp"`
	PolePairs int     `yaml:"pole_pairs"`
}

type MechanicsConfig struct {
	Inertia float64 `yaml:"inertia"`
	// FanCoeff scales a quadratic speed-dependent load torque.
	FanCoeff float64 `yaml:"fan_coeff"`
}

type ConverterConfig struct {
	SupplyVoltage float64 `yaml:"supply_voltage"`
	SupplyFreq    float64 `yaml:"supply_freq"`
	Inductance    float64 `yaml:"inductance"`
	Capacitance   float64 `yaml:"capacitance"`
}

type ControlConfig struct {
	PsiRef     float64 `yaml:"psi_ref"`
	KU         float64 `yaml:"k_u"`
	KW         float64 `yaml:"k_w"`
	SlipComp   bool    `yaml:"slip_comp"`
	RateLimit  float64 `yaml:"rate_limit"`
	CurrentRef float64 `yaml:"current_ref"`
	SixStep    bool    `yaml:"six_step"`
}

type SimConfig struct {
	SwitchingFreq float64 `yaml:"switching_freq"`
	PWM           bool    `yaml:"pwm"`
	StopTime      float64 `yaml:"stop_time"`
	MaxStep       float64 `yaml:"max_step"`
	EventTol      float64 `yaml:"event_tol"`
	Integrator    string  `yaml:"integrator"`
	LogEvery      int     `yaml:"log_every"`
}

// ScenarioConfig describes the reference and load trajectory of a run: a
// rate-limited speed ramp to SpeedRefHz (electrical Hz) and an optional
// torque step at LoadStepTime.
type ScenarioConfig struct {
	SpeedRefHz   float64 `yaml:"speed_ref_hz"`
	LoadStepTime float64 `yaml:"load_step_time"`
	LoadTorque   float64 `yaml:"load_torque"`
}

// DefaultConfig is the 2.2 kW drive with its standard supply and link.
func DefaultConfig() *Config {
	return &Config{
		Machine: MachineConfig{
			Rs: 3.7, Rr: 2.1, LLeak: 0.021,
			Lsu: 0.34, Beta: 0.84, Exp: 7,
			PolePairs: 2,
		},
		Mechanics: MechanicsConfig{Inertia: 0.015},
		Converter: ConverterConfig{
			SupplyVoltage: 400, SupplyFreq: 50,
			Inductance: 2e-3, Capacitance: 235e-6,
		},
		Control: ControlConfig{
			PsiRef:    1.04,
			KU:        1,
			KW:        4,
			RateLimit: 2 * math.Pi * 120,
		},
		Sim: SimConfig{
			SwitchingFreq: DefaultSwitchingFreq,
			PWM:           true,
			StopTime:      DefaultStopTime,
			MaxStep:       DefaultMaxStep,
			EventTol:      DefaultEventTol,
			Integrator:    "rk4",
			LogEvery:      1,
		},
		Scenario: ScenarioConfig{
			SpeedRefHz:   40,
			LoadStepTime: 1.0,
			LoadTorque:   2.9,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrConfig, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SpeedRef is the scenario speed reference in electrical rad/s. The ramp
// shaping itself lives in the controller's rate limiter; the scenario only
// switches the target on at t=0.
func (s ScenarioConfig) SpeedRef() func(t float64) float64 {
	w := 2 * math.Pi * s.SpeedRefHz
	return func(float64) float64 { return w }
}

// LoadTime is the external torque step of the scenario, or nil when no step
// is configured.
func (s ScenarioConfig) LoadTime() func(t float64) float64 {
	if s.LoadTorque == 0 {
		return nil
	}
	return func(t float64) float64 {
		if t >= s.LoadStepTime {
			return s.LoadTorque
		}
		return 0
	}
}

// LoadSpeed is the quadratic fan-law load, or nil when the coefficient is
// zero.
func (m MechanicsConfig) LoadSpeed() func(wM float64) float64 {
	if m.FanCoeff == 0 {
		return nil
	}
	k := m.FanCoeff
	return func(wM float64) float64 {
		return k * wM * math.Abs(wM)
	}
}
