package machine

import (
	"fmt"
	"math"

	"github.com/san-kum/drivesim/internal/dynamo"
)

// SaturationCurve models the flux-dependent stator inductance of the
// Γ-equivalent machine:
//
//	L_s(psi) = Lsu / (1 + (Beta*psi)^Exp)
//
// Lsu is the unsaturated inductance, Beta and Exp shape the knee. Beta = 0
// disables saturation. The curve is strictly positive and monotonically
// non-increasing in the flux magnitude for any valid parameter set.
type SaturationCurve struct {
	Lsu  float64
	Beta float64
	Exp  float64
}

// Inductance evaluates the curve at the given flux magnitude. It is a pure
// function and is re-evaluated on every call; the machine never caches it
// because the flux changes continuously.
func (c SaturationCurve) Inductance(psi float64) float64 {
	return c.Lsu / (1 + math.Pow(c.Beta*math.Abs(psi), c.Exp))
}

func (c SaturationCurve) Validate() error {
	if c.Lsu <= 0 {
		return fmt.Errorf("%w: unsaturated inductance must be positive, got %g", dynamo.ErrConfig, c.Lsu)
	}
	if c.Beta < 0 {
		return fmt.Errorf("%w: saturation coefficient must be non-negative, got %g", dynamo.ErrConfig, c.Beta)
	}
	if c.Beta > 0 && c.Exp <= 0 {
		return fmt.Errorf("%w: saturation exponent must be positive, got %g", dynamo.ErrConfig, c.Exp)
	}
	return nil
}

// fieldEnergy is the stored magnetizing energy per unit space vector at flux
// magnitude psi, the integral of i(psi') dpsi' with i = psi*(1+(B*psi)^S)/Lsu.
func (c SaturationCurve) fieldEnergy(psi float64) float64 {
	psi = math.Abs(psi)
	w := psi * psi / (2 * c.Lsu)
	if c.Beta > 0 {
		w += math.Pow(c.Beta, c.Exp) * math.Pow(psi, c.Exp+2) / ((c.Exp + 2) * c.Lsu)
	}
	return w
}
