package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/drivesim/internal/control"
	"github.com/san-kum/drivesim/internal/dynamo"
	"github.com/san-kum/drivesim/internal/plant"
	"github.com/san-kum/drivesim/internal/pwm"
)

// Phase tracks the engine lifecycle. An engine runs exactly once.
type Phase int

const (
	Idle Phase = iota
	Running
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SpeedRef produces the rotor speed command in electrical rad/s at time t.
type SpeedRef func(t float64) float64

// Config bounds the hybrid stepping loop.
type Config struct {
	// StopTime is the simulated horizon in seconds.
	StopTime float64
	// MaxStep bounds the continuous micro-step inside a switching interval.
	MaxStep float64
	// EventTol is the time tolerance at which a located switching instant
	// is considered resolved.
	EventTol float64
	// LogEvery decimates trajectory recording to every n-th control step.
	LogEvery int
	// ValidateState rejects states containing NaN or Inf after every step.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		StopTime:      1.5,
		MaxStep:       25e-6,
		EventTol:      1e-9,
		LogEvery:      1,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if c.StopTime <= 0 {
		return fmt.Errorf("%w: stop time must be positive, got %g", dynamo.ErrConfig, c.StopTime)
	}
	if c.MaxStep <= 0 || c.MaxStep >= c.StopTime {
		return fmt.Errorf("%w: max step %g outside (0, stop time)", dynamo.ErrConfig, c.MaxStep)
	}
	if c.EventTol <= 0 || c.EventTol >= c.MaxStep {
		return fmt.Errorf("%w: event tolerance %g outside (0, max step)", dynamo.ErrConfig, c.EventTol)
	}
	if c.LogEvery < 1 {
		return fmt.Errorf("%w: log decimation must be at least 1, got %d", dynamo.ErrConfig, c.LogEvery)
	}
	return nil
}

// Engine closes the loop between the drive plant, the V/Hz controller and
// the carrier modulator. Each control period it samples the plant, asks the
// controller for duty ratios, expands them into switching intervals and
// integrates the continuous states across each interval, locating diode
// bridge mode changes to within the event tolerance.
type Engine struct {
	drive    *plant.Drive
	ctrl     *control.VHzController
	mod      *pwm.CarrierComparison
	integ    dynamo.Integrator
	speedRef SpeedRef
	cfg      Config

	metrics   []dynamo.Metric
	observers []dynamo.Observer

	phase Phase
	step  int
}

func New(drive *plant.Drive, ctrl *control.VHzController, mod *pwm.CarrierComparison, integ dynamo.Integrator, speedRef SpeedRef, cfg Config) (*Engine, error) {
	if drive == nil || ctrl == nil || mod == nil || integ == nil {
		return nil, fmt.Errorf("%w: engine requires a drive, controller, modulator and integrator", dynamo.ErrConfig)
	}
	if speedRef == nil {
		return nil, fmt.Errorf("%w: engine requires a speed reference", dynamo.ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		drive:    drive,
		ctrl:     ctrl,
		mod:      mod,
		integ:    integ,
		speedRef: speedRef,
		cfg:      cfg,
	}, nil
}

func (e *Engine) AddMetric(m dynamo.Metric)     { e.metrics = append(e.metrics, m) }
func (e *Engine) AddObserver(o dynamo.Observer) { e.observers = append(e.observers, o) }
func (e *Engine) Phase() Phase                  { return e.phase }
func (e *Engine) Step() int                     { return e.step }

// Run executes the closed loop until the configured stop time or until ctx
// is cancelled. The recorder accumulated so far is returned even on error.
func (e *Engine) Run(ctx context.Context) (*Recorder, error) {
	if e.phase != Idle {
		return nil, fmt.Errorf("%w: engine is %s", dynamo.ErrNotRunnable, e.phase)
	}
	e.phase = Running
	defer func() { e.phase = Stopped }()

	for _, m := range e.metrics {
		m.Reset()
	}

	x := e.drive.InitialState()
	t := 0.0
	ts := e.mod.Period()
	e.drive.SetConduction(e.drive.ShouldConduct(t, x))

	rec := NewRecorder()
	e.record(rec, t, x, control.Output{})

	for t < e.cfg.StopTime-0.5*ts {
		select {
		case <-ctx.Done():
			return rec, ctx.Err()
		default:
		}

		out := e.ctrl.Control(ts, e.drive.Measure(x), e.speedRef(t), t)

		var seq []pwm.Interval
		if e.drive.PWMMode {
			seq = e.mod.Sequence(out.Duty)
		} else {
			// Averaged mode: the duty ratios act as a continuous switch
			// vector for the whole period.
			seq = []pwm.Interval{{Start: 0, End: ts, Q: dynamo.Control{out.Duty[0], out.Duty[1], out.Duty[2]}}}
		}

		for _, iv := range seq {
			var err error
			x, err = e.advance(x, iv.Q, t+iv.Start, t+iv.End)
			if err != nil {
				return rec, err
			}
		}

		t += ts
		e.step++

		u := dynamo.Control{out.Duty[0], out.Duty[1], out.Duty[2]}
		for _, m := range e.metrics {
			m.Observe(x, u, t)
		}
		for _, o := range e.observers {
			o.OnStep(x, u, t)
		}
		if e.step%e.cfg.LogEvery == 0 {
			e.record(rec, t, x, out)
		}
	}

	for _, m := range e.metrics {
		rec.metrics[m.Name()] = m.Value()
	}
	return rec, nil
}

// advance integrates the plant from t0 to t1 under a fixed switch state,
// splitting the span at diode bridge conduction changes.
func (e *Engine) advance(x dynamo.State, q dynamo.Control, t0, t1 float64) (dynamo.State, error) {
	t := t0
	for t < t1-e.cfg.EventTol {
		h := math.Min(e.cfg.MaxStep, t1-t)
		next := e.integ.Step(e.drive, x, q, t, h)
		if e.cfg.ValidateState && !next.IsValid() {
			return x, &dynamo.SimulationError{
				Step:    e.step,
				Time:    t,
				State:   next.Clone(),
				Wrapped: dynamo.ErrInvalidState,
			}
		}
		if e.drive.ShouldConduct(t+h, next) != e.drive.Conducting() {
			hEv, xEv, err := e.locateModeChange(x, q, t, h)
			if err != nil {
				return x, err
			}
			x = xEv
			t += hEv
			e.flipConduction(x)
			continue
		}
		x = next
		t += h
	}
	return x, nil
}

// locateModeChange bisects the step size until the conduction change is
// bracketed within the event tolerance, falling back to a fixed-step scan
// if bisection stalls.
func (e *Engine) locateModeChange(x dynamo.State, q dynamo.Control, t, h float64) (float64, dynamo.State, error) {
	const maxBisect = 80

	lo := 0.0
	hi := h
	xHi := e.integ.Step(e.drive, x, q, t, h)
	for i := 0; i < maxBisect; i++ {
		if hi-lo <= e.cfg.EventTol {
			return hi, xHi, nil
		}
		mid := 0.5 * (lo + hi)
		xMid := e.integ.Step(e.drive, x, q, t, mid)
		if e.drive.ShouldConduct(t+mid, xMid) != e.drive.Conducting() {
			hi, xHi = mid, xMid
		} else {
			lo = mid
		}
	}
	return e.scanModeChange(x, q, t, h)
}

// scanModeChange is the recovery path: walk the step in fixed sub-steps and
// accept the first one past the conduction change.
func (e *Engine) scanModeChange(x dynamo.State, q dynamo.Control, t, h float64) (float64, dynamo.State, error) {
	const parts = 64
	for i := 1; i <= parts; i++ {
		hh := h * float64(i) / parts
		xi := e.integ.Step(e.drive, x, q, t, hh)
		if e.drive.ShouldConduct(t+hh, xi) != e.drive.Conducting() {
			return hh, xi, nil
		}
	}
	return 0, nil, &dynamo.SimulationError{
		Step:    e.step,
		Time:    t,
		State:   x.Clone(),
		Wrapped: errors.Join(dynamo.ErrEventDetection, dynamo.ErrUnstable),
	}
}

// flipConduction toggles the bridge mode at a located switching instant. A
// turn-off clamps the link current at zero so the blocking branch never
// carries a negative remnant.
func (e *Engine) flipConduction(x dynamo.State) {
	on := !e.drive.Conducting()
	if !on {
		x[plant.IdxLinkCurrent] = 0
	}
	e.drive.SetConduction(on)
}

func (e *Engine) record(rec *Recorder, t float64, x dynamo.State, out control.Output) {
	iS, tau := e.drive.Outputs(x)
	ia, ib, ic := dynamo.ComplexToABC(iS)
	rec.Append(Sample{
		T:               t,
		Speed:           x[plant.IdxSpeed],
		Torque:          tau,
		DCVoltage:       x[plant.IdxDCVoltage],
		LinkCurrent:     x[plant.IdxLinkCurrent],
		StatorCurrent:   iS,
		PhaseCurrents:   [3]float64{ia, ib, ic},
		TerminalVoltage: pwm.RealizableVoltage(out.Duty, x[plant.IdxDCVoltage]),
		Duty:            out.Duty,
	})
}
