package converter

import (
	"fmt"
	"math"

	"github.com/san-kum/drivesim/internal/dynamo"
)

// Params describe the supply side and DC link of the frequency converter.
// SupplyVoltage is the line-to-line RMS voltage of the fixed AC source.
type Params struct {
	SupplyVoltage float64
	SupplyFreq    float64
	Inductance    float64
	Capacitance   float64
}

func (p Params) Validate() error {
	if p.SupplyVoltage <= 0 {
		return fmt.Errorf("%w: supply voltage must be positive, got %g", dynamo.ErrConfig, p.SupplyVoltage)
	}
	if p.SupplyFreq <= 0 {
		return fmt.Errorf("%w: supply frequency must be positive, got %g", dynamo.ErrConfig, p.SupplyFreq)
	}
	if p.Inductance <= 0 {
		return fmt.Errorf("%w: link inductance must be positive, got %g", dynamo.ErrConfig, p.Inductance)
	}
	if p.Capacitance <= 0 {
		return fmt.Errorf("%w: link capacitance must be positive, got %g", dynamo.ErrConfig, p.Capacitance)
	}
	return nil
}

// FrequencyConverter models a fixed three-phase source feeding an
// uncontrolled six-pulse diode bridge, an LC DC link and a two-level
// inverter. The diode bridge is a genuine discrete-mode element: whether it
// conducts is decided by the engine at event boundaries, not smoothed.
type FrequencyConverter struct {
	p     Params
	uPeak float64
	wg    float64
}

func New(p Params) (*FrequencyConverter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &FrequencyConverter{
		p:     p,
		uPeak: math.Sqrt(2.0/3.0) * p.SupplyVoltage,
		wg:    2 * math.Pi * p.SupplyFreq,
	}, nil
}

func (c *FrequencyConverter) Params() Params { return c.p }

// GridVoltages returns the instantaneous phase voltages of the AC source.
func (c *FrequencyConverter) GridVoltages(t float64) (ua, ub, uc float64) {
	theta := c.wg * t
	ua = c.uPeak * math.Cos(theta)
	ub = c.uPeak * math.Cos(theta-2*math.Pi/3)
	uc = c.uPeak * math.Cos(theta+2*math.Pi/3)
	return
}

// BridgeVoltage is the rectified source magnitude seen by the DC link: the
// envelope of the line-to-line voltages.
func (c *FrequencyConverter) BridgeVoltage(t float64) float64 {
	ua, ub, uc := c.GridVoltages(t)
	return math.Max(ua, math.Max(ub, uc)) - math.Min(ua, math.Min(ub, uc))
}

// Conducting reports whether the diode bridge passes current for the given
// link state. The bridge conducts while inductor current flows, or as soon as
// the rectified source reaches the link voltage.
func (c *FrequencyConverter) Conducting(t, uDc, iL float64) bool {
	return iL > 0 || c.BridgeVoltage(t) >= uDc
}

// LinkDerivatives evaluates the DC-link state derivatives. When the bridge
// blocks, the inductor branch carries exactly zero current and contributes
// nothing.
func (c *FrequencyConverter) LinkDerivatives(t, uDc, iL, iDc float64, conducting bool) (duDc, diL float64) {
	if conducting {
		diL = (c.BridgeVoltage(t) - uDc) / c.p.Inductance
		duDc = (iL - iDc) / c.p.Capacitance
		return
	}
	duDc = -iDc / c.p.Capacitance
	return
}

// InitialLinkVoltage is the steady no-load link voltage, the peak of the
// line-to-line supply.
func (c *FrequencyConverter) InitialLinkVoltage() float64 {
	return math.Sqrt(2) * c.p.SupplyVoltage
}

// SwitchVector folds the three inverter leg commands into a space vector. The
// same mapping serves discrete switch states and averaged duty ratios.
func SwitchVector(u dynamo.Control) complex128 {
	return dynamo.ABCToComplex(u[0], u[1], u[2])
}

// TerminalVoltage is the machine-side voltage vector produced by the inverter.
func TerminalVoltage(q complex128, uDc float64) complex128 {
	return q * complex(uDc, 0)
}

// DCCurrent is the current the inverter draws from the link. With discrete
// switch states it is the sum of the phase currents routed to the positive
// rail; in averaged mode it follows from power balance.
func DCCurrent(u dynamo.Control, iS complex128, averaged bool) float64 {
	if averaged {
		q := SwitchVector(u)
		return 1.5 * (real(q)*real(iS) + imag(q)*imag(iS))
	}
	ia, ib, ic := dynamo.ComplexToABC(iS)
	return u[0]*ia + u[1]*ib + u[2]*ic
}

// LinkEnergy is the energy stored in the DC link.
func (c *FrequencyConverter) LinkEnergy(uDc, iL float64) float64 {
	return 0.5*c.p.Capacitance*uDc*uDc + 0.5*c.p.Inductance*iL*iL
}
