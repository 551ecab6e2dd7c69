package integrators

import (
	"testing"

	"github.com/san-kum/drivesim/internal/dynamo"
)

func BenchmarkEulerStep(b *testing.B) {
	dyn := &rlCircuit{r: 2.0, l: 0.05}
	integ := NewEuler()
	x := dynamo.State{0.5}
	u := dynamo.Control{10.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(dyn, x, u, 0, 1e-5)
	}
}

func BenchmarkRK4Step(b *testing.B) {
	dyn := &rotor{w: 314.159}
	integ := NewRK4()
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(dyn, x, nil, 0, 1e-5)
	}
}

func BenchmarkRK45Step(b *testing.B) {
	dyn := &rotor{w: 314.159}
	integ := NewRK45()
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _, _ = integ.StepAdaptive(dyn, x, nil, 0, 1e-5, 1e-6)
	}
}
