package control

import "math"

// Measurement is the read-only plant snapshot the controller samples once per
// control step.
type Measurement struct {
	// StatorCurrent is the measured current space vector in stator coordinates.
	StatorCurrent complex128
	// DCVoltage is the measured DC-link voltage.
	DCVoltage float64
}

// Corrector is the auxiliary control strategy invoked once per control step.
// It receives the measurement, a constant current reference and the current
// time, and returns a correction pair: du augments the magnitude channel of
// the voltage reference, di augments the torque-axis current reference. Any
// strategy (lookup table, learned model, fixed-gain law) can satisfy this.
type Corrector interface {
	Correct(m Measurement, ref, t float64) (du, di float64)
}

// NoCorrection disables the auxiliary channel.
type NoCorrection struct{}

func (NoCorrection) Correct(Measurement, float64, float64) (float64, float64) { return 0, 0 }

// CurrentCorrector is the default auxiliary strategy: a fixed-gain regulator
// pushing the stator current magnitude toward the reference. It stands in for
// whatever external controller the drive is paired with and is meant to be
// replaced.
type CurrentCorrector struct {
	Gain float64
}

func (c CurrentCorrector) Correct(m Measurement, ref, t float64) (du, di float64) {
	mag := math.Hypot(real(m.StatorCurrent), imag(m.StatorCurrent))
	return c.Gain * (ref - mag), 0
}
