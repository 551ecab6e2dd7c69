package control

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/drivesim/internal/dynamo"
	"github.com/san-kum/drivesim/internal/pwm"
)

// VHzParams are the open-loop V/Hz law parameters. The machine quantities
// are the controller's own estimates, independent of the plant model.
type VHzParams struct {
	Rs     float64
	Rr     float64
	LSigma float64
	LM     float64

	// PsiRef is the stator flux reference magnitude held across the speed
	// range (the V/Hz ratio).
	PsiRef float64
	// KU scales the RI compensation of the voltage reference.
	KU float64
	// KW scales the dynamic stator-frequency correction from the slip
	// estimate. Only active with SlipComp.
	KW float64
	// SlipComp feeds the filtered slip estimate forward into the stator
	// frequency and applies the KW correction. Off, the law is plain V/Hz
	// droop: a loaded machine settles below synchronous speed by its slip.
	SlipComp bool
	// RateLimit bounds the slew of the speed reference, in rad/s per second.
	RateLimit float64
	// CurrentRef is the constant reference handed to the auxiliary corrector.
	CurrentRef float64
	// SixStep enables overmodulation shaping of the voltage reference.
	SixStep bool
}

// DefaultVHzParams fit the 2.2 kW machine preset.
func DefaultVHzParams() VHzParams {
	return VHzParams{
		Rs:        3.7,
		Rr:        2.1,
		LSigma:    0.021,
		LM:        0.224,
		PsiRef:    1.04,
		KU:        1,
		KW:        4,
		RateLimit: 2 * math.Pi * 120,
	}
}

func (p VHzParams) Validate() error {
	if p.LSigma <= 0 || p.LM <= 0 {
		return fmt.Errorf("%w: controller inductances must be positive (LSigma=%g, LM=%g)", dynamo.ErrConfig, p.LSigma, p.LM)
	}
	if p.PsiRef <= 0 {
		return fmt.Errorf("%w: flux reference must be positive, got %g", dynamo.ErrConfig, p.PsiRef)
	}
	if p.RateLimit <= 0 {
		return fmt.Errorf("%w: rate limit must be positive, got %g", dynamo.ErrConfig, p.RateLimit)
	}
	return nil
}

// Output is the control decision for one step, consumed by the modulator.
type Output struct {
	// Duty are the three-phase duty ratio references.
	Duty [3]float64
	// UsRef is the stator-frame voltage reference behind the duty ratios.
	UsRef complex128
	// StatorFreq is the dynamic stator frequency used this step.
	StatorFreq float64
	// Angle is the stator flux angle after the step.
	Angle float64
}

// VHzController implements open-loop V/Hz control with optional slip
// compensation and an auxiliary correction channel. State carried between steps: the stator
// flux angle, low-pass current and slip references, and the realized-voltage
// estimate across the PWM delay.
type VHzController struct {
	p         VHzParams
	rate      *RateLimiter
	corrector Corrector

	alphaI float64
	alphaF float64

	iSRef     complex128
	wRRef     float64
	thetaS    float64
	uRefLim   complex128
	uRealized complex128
}

func NewVHzController(p VHzParams, corrector Corrector) (*VHzController, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if corrector == nil {
		corrector = NoCorrection{}
	}

	// Breakdown slip frequency of the estimated machine sets the reference
	// filter bandwidths.
	wRb := p.Rr * (p.LM + p.LSigma) / (p.LSigma * p.LM)

	return &VHzController{
		p:         p,
		rate:      NewRateLimiter(p.RateLimit),
		corrector: corrector,
		alphaI:    0.1 * wRb,
		alphaF:    0.1 * wRb,
	}, nil
}

// Control computes the duty ratio references for one control step of length
// ts. speedRef is the speed reference in electrical rad/s at time t.
func (c *VHzController) Control(ts float64, m Measurement, speedRef, t float64) Output {
	wmRef := c.rate.Apply(ts, speedRef)

	// Measured current into synchronous coordinates.
	iS := dynamo.Rotate(m.StatorCurrent, -c.thetaS)

	// Auxiliary channel: voltage correction du, current correction di.
	du, di := c.corrector.Correct(m, c.p.CurrentRef, t)
	iSRef := c.iSRef + complex(0, di)

	wsRef := wmRef
	if c.p.SlipComp {
		wsRef += c.wRRef
	}
	ws, wr := c.statorFreq(wsRef, iS, iSRef)
	usRef := c.voltageReference(ws, iS, iSRef) + complex(du, 0)

	// Compensate the computational delay and the PWM zero-order hold.
	thetaComp := dynamo.WrapAngle(c.thetaS + 1.5*ts*ws)
	usRefStator := dynamo.Rotate(usRef, thetaComp)
	if c.p.SixStep {
		usRefStator = pwm.SixStepOvermodulation(usRefStator, m.DCVoltage)
	}

	d := pwm.DutyRatios(usRefStator, m.DCVoltage)

	// Track the realizable voltage across the half-period PWM delay.
	uRefLim := dynamo.Rotate(pwm.RealizableVoltage(d, m.DCVoltage), -thetaComp)
	c.uRealized = 0.5 * (c.uRefLim + uRefLim)
	c.uRefLim = uRefLim

	c.iSRef += complex(ts*c.alphaI, 0) * (iS - c.iSRef)
	c.wRRef += ts * c.alphaF * (wr - c.wRRef)
	c.thetaS = dynamo.WrapAngle(c.thetaS + ts*ws)

	return Output{Duty: d, UsRef: usRefStator, StatorFreq: ws, Angle: c.thetaS}
}

// statorFreq computes the dynamic stator frequency and the slip estimate from
// the measured current.
func (c *VHzController) statorFreq(wsRef float64, iS, iSRef complex128) (ws, wr float64) {
	psiRRef := complex(c.p.PsiRef, 0) - complex(c.p.LSigma, 0)*iSRef
	n2 := real(psiRRef)*real(psiRRef) + imag(psiRRef)*imag(psiRRef)
	if n2 <= 0 {
		return 0, 0
	}
	wr = c.p.Rr * imag(iS*cmplx.Conj(psiRRef)) / n2
	ws = wsRef
	if c.p.SlipComp {
		ws += c.p.KW * (c.wRRef - wr)
	}
	return
}

// voltageReference is the V/Hz law with RI compensation.
func (c *VHzController) voltageReference(ws float64, iS, iSRef complex128) complex128 {
	iSdNom := c.p.PsiRef / (c.p.LM + c.p.LSigma)
	iSRef0 := complex(iSdNom, imag(iSRef))
	k := complex(c.p.KU*c.p.LSigma, 0) * complex(c.p.Rr/c.p.LM, ws)
	return complex(c.p.Rs, 0)*iSRef0 + complex(0, ws*c.p.PsiRef) + k*(iSRef-iS)
}

// RealizedVoltage is the estimate of the stator voltage actually applied over
// the previous step, accounting for the PWM delay.
func (c *VHzController) RealizedVoltage() complex128 { return c.uRealized }

// Angle is the current stator flux angle.
func (c *VHzController) Angle() float64 { return c.thetaS }

// Reset returns the controller to its power-on state.
func (c *VHzController) Reset() {
	c.rate.Reset()
	c.iSRef = 0
	c.wRRef = 0
	c.thetaS = 0
	c.uRefLim = 0
	c.uRealized = 0
}
