package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/drivesim/internal/dynamo"
)

// rlCircuit is a series RL branch: di/dt = (u - R*i)/L with u = u[0].
type rlCircuit struct {
	r, l float64
}

func (c *rlCircuit) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{(u[0] - c.r*x[0]) / c.l}
}

func (c *rlCircuit) StateDim() int   { return 1 }
func (c *rlCircuit) ControlDim() int { return 1 }

// rotor models an undamped rotating flux vector: dpsi/dt = j*w*psi.
type rotor struct {
	w float64
}

func (r *rotor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-r.w * x[1], r.w * x[0]}
}

func (r *rotor) StateDim() int   { return 2 }
func (r *rotor) ControlDim() int { return 0 }

func TestRK4RLCircuit(t *testing.T) {
	dyn := &rlCircuit{r: 2.0, l: 0.05}
	integ := NewRK4()

	u := dynamo.Control{10.0}
	x := dynamo.State{0.0}
	dt := 1e-4
	steps := 1000

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	tEnd := float64(steps) * dt
	want := (u[0] / dyn.r) * (1 - math.Exp(-dyn.r*tEnd/dyn.l))
	if math.Abs(x[0]-want) > 1e-8 {
		t.Errorf("RL current: got %.10f, want %.10f", x[0], want)
	}
}

func TestRK4RotatingFlux(t *testing.T) {
	w := 2 * math.Pi * 50
	dyn := &rotor{w: w}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 1e-5
	steps := 2000

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	theta := w * float64(steps) * dt
	if math.Abs(x[0]-math.Cos(theta)) > 1e-6 {
		t.Errorf("flux re: got %.8f, want %.8f", x[0], math.Cos(theta))
	}
	if math.Abs(x[1]-math.Sin(theta)) > 1e-6 {
		t.Errorf("flux im: got %.8f, want %.8f", x[1], math.Sin(theta))
	}

	// No resistance: magnitude must not drift.
	mag := math.Hypot(x[0], x[1])
	if math.Abs(mag-1.0) > 1e-8 {
		t.Errorf("flux magnitude drifted to %.10f", mag)
	}
}
