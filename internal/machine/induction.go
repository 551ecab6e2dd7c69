package machine

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/drivesim/internal/dynamo"
)

// InductionParams are the Γ-equivalent circuit parameters of a squirrel-cage
// induction machine in SI units. Zero stator and rotor resistance is a valid
// (lossless) configuration; resistance only appears as a loss term.
type InductionParams struct {
	Rs         float64
	Rr         float64
	LLeak      float64
	PolePairs  int
	Saturation SaturationCurve
}

func (p InductionParams) Validate() error {
	if p.Rs < 0 || p.Rr < 0 {
		return fmt.Errorf("%w: winding resistance must be non-negative (Rs=%g, Rr=%g)", dynamo.ErrConfig, p.Rs, p.Rr)
	}
	if p.LLeak <= 0 {
		return fmt.Errorf("%w: leakage inductance must be positive, got %g", dynamo.ErrConfig, p.LLeak)
	}
	if p.PolePairs < 1 {
		return fmt.Errorf("%w: pole pairs must be at least 1, got %d", dynamo.ErrConfig, p.PolePairs)
	}
	return p.Saturation.Validate()
}

// InductionMachine holds stator and rotor flux linkages as complex space
// vectors in stator coordinates. Currents are not state: they are solved
// algebraically from the fluxes through the saturation-dependent inductance.
type InductionMachine struct {
	p InductionParams
}

func NewInductionMachine(p InductionParams) (*InductionMachine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &InductionMachine{p: p}, nil
}

func (m *InductionMachine) Params() InductionParams { return m.p }

// Currents inverts the flux linkages into stator and rotor current vectors.
// The magnetizing inductance is evaluated fresh from the present stator flux
// magnitude, which makes the electrical subsystem nonlinear.
func (m *InductionMachine) Currents(psiS, psiR complex128) (iS, iR complex128) {
	ls := m.p.Saturation.Inductance(cmplx.Abs(psiS))
	iR = (psiR - psiS) / complex(m.p.LLeak, 0)
	iS = psiS/complex(ls, 0) - iR
	return
}

// Torque is the electromagnetic torque produced by the present flux state.
func (m *InductionMachine) Torque(psiS, psiR complex128) float64 {
	iS, _ := m.Currents(psiS, psiR)
	return 1.5 * float64(m.p.PolePairs) * imagConj(iS, psiS)
}

// Derivatives evaluates the electrical state derivatives for stator voltage
// uS and mechanical speed wM.
func (m *InductionMachine) Derivatives(psiS, psiR, uS complex128, wM float64) (dPsiS, dPsiR complex128) {
	iS, iR := m.Currents(psiS, psiR)
	dPsiS = uS - complex(m.p.Rs, 0)*iS
	dPsiR = -complex(m.p.Rr, 0)*iR + complex(0, float64(m.p.PolePairs)*wM)*psiR
	return
}

// MagneticEnergy is the total energy stored in the magnetizing and leakage
// fields, consistent with the saturation curve used for the inversion.
func (m *InductionMachine) MagneticEnergy(psiS, psiR complex128) float64 {
	leak := cmplx.Abs(psiR - psiS)
	return 1.5 * (m.p.Saturation.fieldEnergy(cmplx.Abs(psiS)) + leak*leak/(2*m.p.LLeak))
}

// imagConj returns Im{a * conj(b)}.
func imagConj(a, b complex128) float64 {
	return imag(a)*real(b) - real(a)*imag(b)
}

// StatorCurrentMagnitude is a convenience for protection metrics.
func (m *InductionMachine) StatorCurrentMagnitude(psiS, psiR complex128) float64 {
	iS, _ := m.Currents(psiS, psiR)
	return math.Hypot(real(iS), imag(iS))
}
