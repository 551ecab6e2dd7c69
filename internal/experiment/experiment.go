package experiment

import (
	"fmt"

	"github.com/san-kum/drivesim/internal/config"
	"github.com/san-kum/drivesim/internal/control"
	"github.com/san-kum/drivesim/internal/converter"
	"github.com/san-kum/drivesim/internal/dynamo"
	"github.com/san-kum/drivesim/internal/engine"
	"github.com/san-kum/drivesim/internal/integrators"
	"github.com/san-kum/drivesim/internal/machine"
	"github.com/san-kum/drivesim/internal/metrics"
	"github.com/san-kum/drivesim/internal/plant"
	"github.com/san-kum/drivesim/internal/pwm"
)

// Experiment holds an assembled drive simulation and the pieces the CLI
// needs access to after the run.
type Experiment struct {
	Config *config.Config
	Drive  *plant.Drive
	Engine *engine.Engine
}

// integratorFactories maps config names to fixed-step integrators. The RK45
// stepper also satisfies the fixed-step interface, so it slots in here for
// users who want its embedded error estimate elsewhere.
var integratorFactories = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return integrators.NewEuler() },
	"rk4":   func() dynamo.Integrator { return integrators.NewRK4() },
	"rk45":  func() dynamo.Integrator { return integrators.NewRK45() },
}

func ListIntegrators() []string {
	names := make([]string, 0, len(integratorFactories))
	for name := range integratorFactories {
		names = append(names, name)
	}
	return names
}

// Build assembles the plant, controller, modulator and engine from a config.
func Build(cfg *config.Config) (*Experiment, error) {
	mach, err := machine.NewInductionMachine(machine.InductionParams{
		Rs:        cfg.Machine.Rs,
		Rr:        cfg.Machine.Rr,
		LLeak:     cfg.Machine.LLeak,
		PolePairs: cfg.Machine.PolePairs,
		Saturation: machine.SaturationCurve{
			Lsu:  cfg.Machine.Lsu,
			Beta: cfg.Machine.Beta,
			Exp:  cfg.Machine.Exp,
		},
	})
	if err != nil {
		return nil, err
	}

	mech, err := machine.NewMechanics(cfg.Mechanics.Inertia)
	if err != nil {
		return nil, err
	}
	mech.LoadTime = cfg.Scenario.LoadTime()
	mech.LoadSpeed = cfg.Mechanics.LoadSpeed()

	conv, err := converter.New(converter.Params{
		SupplyVoltage: cfg.Converter.SupplyVoltage,
		SupplyFreq:    cfg.Converter.SupplyFreq,
		Inductance:    cfg.Converter.Inductance,
		Capacitance:   cfg.Converter.Capacitance,
	})
	if err != nil {
		return nil, err
	}

	drive := plant.New(mach, mech, conv, cfg.Sim.PWM)

	ctrlParams := controllerParams(cfg)
	corrector := control.Corrector(control.NoCorrection{})
	if ctrlParams.CurrentRef > 0 {
		corrector = control.CurrentCorrector{Gain: 1}
	}
	ctrl, err := control.NewVHzController(ctrlParams, corrector)
	if err != nil {
		return nil, err
	}

	mod, err := pwm.NewCarrierComparison(cfg.Sim.SwitchingFreq)
	if err != nil {
		return nil, err
	}

	factory, ok := integratorFactories[cfg.Sim.Integrator]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrConfig, cfg.Sim.Integrator)
	}

	eng, err := engine.New(drive, ctrl, mod, factory(), cfg.Scenario.SpeedRef(), engine.Config{
		StopTime:      cfg.Sim.StopTime,
		MaxStep:       cfg.Sim.MaxStep,
		EventTol:      cfg.Sim.EventTol,
		LogEvery:      cfg.Sim.LogEvery,
		ValidateState: true,
	})
	if err != nil {
		return nil, err
	}

	for _, m := range DefaultMetrics(drive, cfg) {
		eng.AddMetric(m)
	}

	return &Experiment{Config: cfg, Drive: drive, Engine: eng}, nil
}

// controllerParams derives the V/Hz law constants from the machine section.
// The controller sees the magnetizing inductance at the flux reference, not
// the unsaturated value.
func controllerParams(cfg *config.Config) control.VHzParams {
	sat := machine.SaturationCurve{
		Lsu:  cfg.Machine.Lsu,
		Beta: cfg.Machine.Beta,
		Exp:  cfg.Machine.Exp,
	}
	lm := sat.Inductance(cfg.Control.PsiRef) - cfg.Machine.LLeak
	if lm <= 0 {
		lm = cfg.Machine.LLeak
	}
	return control.VHzParams{
		Rs:         cfg.Machine.Rs,
		Rr:         cfg.Machine.Rr,
		LSigma:     cfg.Machine.LLeak,
		LM:         lm,
		PsiRef:     cfg.Control.PsiRef,
		KU:         cfg.Control.KU,
		KW:         cfg.Control.KW,
		SlipComp:   cfg.Control.SlipComp,
		RateLimit:  cfg.Control.RateLimit,
		CurrentRef: cfg.Control.CurrentRef,
		SixStep:    cfg.Control.SixStep,
	}
}

func DefaultMetrics(drive *plant.Drive, cfg *config.Config) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnergyDrift(drive),
		metrics.NewDCRipple(),
		metrics.NewSpeedTracking(cfg.Machine.PolePairs, cfg.Scenario.SpeedRef()),
	}
}
