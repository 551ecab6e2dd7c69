package machine

import (
	"fmt"

	"github.com/san-kum/drivesim/internal/dynamo"
)

// Mechanics is the rotational subsystem. Its only state is the mechanical
// angular speed; the derivative contract is pure.
type Mechanics struct {
	Inertia float64

	// LoadTime is an external load torque as a function of time (step loads).
	// LoadSpeed is an external load torque as a function of speed (fan/pump
	// profiles). Either may be nil; when both are set they are summed.
	LoadTime  func(t float64) float64
	LoadSpeed func(wM float64) float64
}

func NewMechanics(inertia float64) (*Mechanics, error) {
	if inertia <= 0 {
		return nil, fmt.Errorf("%w: inertia must be positive, got %g", dynamo.ErrConfig, inertia)
	}
	return &Mechanics{Inertia: inertia}, nil
}

// LoadTorque evaluates the configured load laws at (t, wM).
func (m *Mechanics) LoadTorque(t, wM float64) float64 {
	tau := 0.0
	if m.LoadTime != nil {
		tau += m.LoadTime(t)
	}
	if m.LoadSpeed != nil {
		tau += m.LoadSpeed(wM)
	}
	return tau
}

// Derivative is the speed derivative for electromagnetic torque tauM.
func (m *Mechanics) Derivative(tauM, t, wM float64) float64 {
	return (tauM - m.LoadTorque(t, wM)) / m.Inertia
}

func (m *Mechanics) KineticEnergy(wM float64) float64 {
	return 0.5 * m.Inertia * wM * wM
}
