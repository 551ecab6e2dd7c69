package pwm

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/drivesim/internal/dynamo"
)

// DutyRatios converts a stator-frame voltage reference into three duty
// ratios using the symmetrical suboscillation method, which is equivalent to
// standard space-vector PWM. The zero-sequence component centers the phase
// references inside the link voltage; overmodulation is limited with a
// minimum phase-error scaling.
func DutyRatios(usRef complex128, uDc float64) [3]float64 {
	ua, ub, uc := dynamo.ComplexToABC(usRef)

	// Symmetrize by removing the zero-sequence midpoint.
	u0 := 0.5 * (math.Max(ua, math.Max(ub, uc)) + math.Min(ua, math.Min(ub, uc)))
	ua, ub, uc = ua-u0, ub-u0, uc-u0

	// Scale down if the reference does not fit inside the link voltage.
	m := (2 / uDc) * math.Max(ua, math.Max(ub, uc))
	if m > 1 {
		ua, ub, uc = ua/m, ub/m, uc/m
	}

	return [3]float64{
		clampUnit(ua/uDc + 0.5),
		clampUnit(ub/uDc + 0.5),
		clampUnit(uc/uDc + 0.5),
	}
}

// RealizableVoltage is the stator-frame voltage the inverter can actually
// produce for the given duty ratios.
func RealizableVoltage(d [3]float64, uDc float64) complex128 {
	return dynamo.ABCToComplex(d[0], d[1], d[2]) * complex(uDc, 0)
}

// SixStepOvermodulation pulls the voltage reference toward the six-step
// hexagon corners once its magnitude leaves the linear modulation range,
// trading waveform quality for fundamental amplitude.
func SixStepOvermodulation(usRef complex128, uDc float64) complex128 {
	r := math.Min(cmplx.Abs(usRef), 2.0/3.0*uDc)

	if math.Sqrt(3)*r <= uDc {
		return usRef
	}

	theta := cmplx.Phase(usRef)
	sector := math.Floor(3 * theta / math.Pi)

	// Angle reduced to the first sector.
	theta0 := theta - sector*math.Pi/3

	// Intersection of the reference circle with the hexagon side.
	alphaG := math.Pi/6 - math.Acos(uDc/(math.Sqrt(3)*r))

	switch {
	case alphaG <= theta0 && theta0 <= math.Pi/6:
		theta0 = alphaG
	case math.Pi/6 <= theta0 && theta0 <= math.Pi/3-alphaG:
		theta0 = math.Pi/3 - alphaG
	}

	return dynamo.Rotate(complex(r, 0), theta0+sector*math.Pi/3)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
