package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Control carries the inverter leg commands for one sub-interval: three
// values in [0,1]. Under carrier comparison they are discrete {0,1} switch
// states; in averaged mode they are continuous duty ratios.
type Control []float64

func (u Control) Clone() Control {
	c := make(Control, len(u))
	copy(c, u)
	return c
}

// System is a continuous-time plant: given state, inverter command and time,
// produce the state derivative.
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, error)
}

// Observer is notified once per control step with the accepted state.
type Observer interface {
	OnStep(x State, u Control, t float64)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(x State, u Control, t float64)

func (f ObserverFunc) OnStep(x State, u Control, t float64) { f(x, u, t) }

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}
