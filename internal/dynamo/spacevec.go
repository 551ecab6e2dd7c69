package dynamo

import "math"

// Space-vector transforms between three-phase quantities and the complex
// stator-frame vector. Peak-invariant scaling; the zero-sequence component
// is discarded by ABCToComplex and absent from ComplexToABC output.

const sqrt3 = 1.7320508075688772

// ABCToComplex folds three phase values into a complex space vector.
func ABCToComplex(a, b, c float64) complex128 {
	return complex((2.0*a-b-c)/3.0, (b-c)/sqrt3)
}

// ComplexToABC expands a space vector into three phase values summing to zero.
func ComplexToABC(u complex128) (a, b, c float64) {
	re, im := real(u), imag(u)
	a = re
	b = 0.5 * (-re + sqrt3*im)
	c = 0.5 * (-re - sqrt3*im)
	return
}

// Rotate multiplies u by exp(j*theta).
func Rotate(u complex128, theta float64) complex128 {
	sin, cos := math.Sincos(theta)
	return u * complex(cos, sin)
}

// WrapAngle reduces theta into [-pi, pi).
func WrapAngle(theta float64) float64 {
	w := math.Mod(theta+math.Pi, 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	return w - math.Pi
}
