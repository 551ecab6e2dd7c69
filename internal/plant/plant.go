package plant

import (
	"github.com/san-kum/drivesim/internal/control"
	"github.com/san-kum/drivesim/internal/converter"
	"github.com/san-kum/drivesim/internal/dynamo"
	"github.com/san-kum/drivesim/internal/machine"
)

// Flat state vector layout of the drive.
const (
	IdxPsiSRe = iota
	IdxPsiSIm
	IdxPsiRRe
	IdxPsiRIm
	IdxSpeed
	IdxDCVoltage
	IdxLinkCurrent

	StateDim
)

// Drive couples the induction machine, the mechanical subsystem and the
// frequency converter into one continuous-time system. The diode conduction
// mode is a discrete plant mode: it is only flipped by the engine at located
// event instants, so Derive stays smooth inside every integration step.
type Drive struct {
	Machine    *machine.InductionMachine
	Mech       *machine.Mechanics
	Conv       *converter.FrequencyConverter
	PWMMode    bool
	conducting bool
}

func New(m *machine.InductionMachine, mech *machine.Mechanics, conv *converter.FrequencyConverter, pwmMode bool) *Drive {
	return &Drive{Machine: m, Mech: mech, Conv: conv, PWMMode: pwmMode}
}

func (d *Drive) StateDim() int   { return StateDim }
func (d *Drive) ControlDim() int { return 3 }

// InitialState is the rest state: zero fluxes and speed, the DC link charged
// to the no-load rectifier voltage, no inductor current.
func (d *Drive) InitialState() dynamo.State {
	x := make(dynamo.State, StateDim)
	x[IdxDCVoltage] = d.Conv.InitialLinkVoltage()
	return x
}

func (d *Drive) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	psiS := complex(x[IdxPsiSRe], x[IdxPsiSIm])
	psiR := complex(x[IdxPsiRRe], x[IdxPsiRIm])
	wM := x[IdxSpeed]
	uDc := x[IdxDCVoltage]
	iL := x[IdxLinkCurrent]

	q := converter.SwitchVector(u)
	uS := converter.TerminalVoltage(q, uDc)

	dPsiS, dPsiR := d.Machine.Derivatives(psiS, psiR, uS, wM)
	tau := d.Machine.Torque(psiS, psiR)

	iS, _ := d.Machine.Currents(psiS, psiR)
	iDc := converter.DCCurrent(u, iS, !d.PWMMode)
	duDc, diL := d.Conv.LinkDerivatives(t, uDc, iL, iDc, d.conducting)

	dx := make(dynamo.State, StateDim)
	dx[IdxPsiSRe] = real(dPsiS)
	dx[IdxPsiSIm] = imag(dPsiS)
	dx[IdxPsiRRe] = real(dPsiR)
	dx[IdxPsiRIm] = imag(dPsiR)
	dx[IdxSpeed] = d.Mech.Derivative(tau, t, wM)
	dx[IdxDCVoltage] = duDc
	dx[IdxLinkCurrent] = diL
	return dx
}

// Conducting reports the present diode bridge mode.
func (d *Drive) Conducting() bool { return d.conducting }

// SetConduction flips the bridge mode. Called by the engine at event
// instants only; the continuous state is untouched at the instant.
func (d *Drive) SetConduction(on bool) { d.conducting = on }

// ShouldConduct evaluates the conduction rule for the given state.
func (d *Drive) ShouldConduct(t float64, x dynamo.State) bool {
	return d.Conv.Conducting(t, x[IdxDCVoltage], x[IdxLinkCurrent])
}

// ConductionResidual is the event function whose zero crossing marks a mode
// change: bridge voltage minus link voltage while blocking, inductor current
// while conducting.
func (d *Drive) ConductionResidual(t float64, x dynamo.State) float64 {
	if d.conducting {
		return x[IdxLinkCurrent]
	}
	return d.Conv.BridgeVoltage(t) - x[IdxDCVoltage]
}

// Measure takes the read-only controller snapshot from the state.
func (d *Drive) Measure(x dynamo.State) control.Measurement {
	psiS := complex(x[IdxPsiSRe], x[IdxPsiSIm])
	psiR := complex(x[IdxPsiRRe], x[IdxPsiRIm])
	iS, _ := d.Machine.Currents(psiS, psiR)
	return control.Measurement{StatorCurrent: iS, DCVoltage: x[IdxDCVoltage]}
}

// Outputs derives the logged quantities from the state.
func (d *Drive) Outputs(x dynamo.State) (iS complex128, tau float64) {
	psiS := complex(x[IdxPsiSRe], x[IdxPsiSIm])
	psiR := complex(x[IdxPsiRRe], x[IdxPsiRIm])
	iS, _ = d.Machine.Currents(psiS, psiR)
	tau = d.Machine.Torque(psiS, psiR)
	return
}

// Energy is the total stored energy: magnetic, kinetic and DC link.
func (d *Drive) Energy(x dynamo.State) float64 {
	psiS := complex(x[IdxPsiSRe], x[IdxPsiSIm])
	psiR := complex(x[IdxPsiRRe], x[IdxPsiRIm])
	return d.Machine.MagneticEnergy(psiS, psiR) +
		d.Mech.KineticEnergy(x[IdxSpeed]) +
		d.Conv.LinkEnergy(x[IdxDCVoltage], x[IdxLinkCurrent])
}
