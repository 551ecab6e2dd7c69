package pwm

import (
	"fmt"
	"sort"

	"github.com/san-kum/drivesim/internal/dynamo"
)

// Interval is one piecewise-constant stretch of inverter switch states
// within a carrier period, with Start and End relative to the period start.
type Interval struct {
	Start float64
	End   float64
	Q     dynamo.Control
}

// CarrierComparison realizes duty ratios as discrete switch states against a
// triangular carrier: the carrier ramps 0 to 1 over the first half period and
// back to 0 over the second. A leg is high while its duty ratio exceeds the
// carrier, so each phase switches off at d*T/2 and on again at T*(1-d/2).
// Every crossing time is available in closed form; no root finding is needed.
type CarrierComparison struct {
	period   float64
	minPulse float64
}

func NewCarrierComparison(switchingFreq float64) (*CarrierComparison, error) {
	if switchingFreq <= 0 {
		return nil, fmt.Errorf("%w: switching frequency must be positive, got %g", dynamo.ErrConfig, switchingFreq)
	}
	period := 1 / switchingFreq
	return &CarrierComparison{
		period:   period,
		minPulse: 1e-9 * period,
	}, nil
}

func (c *CarrierComparison) Period() float64 { return c.period }

// Crossings returns the switch-off and switch-on instants of one phase
// within the period. ok is false when the duty ratio pins the leg high or low
// for the whole period.
func (c *CarrierComparison) Crossings(d float64) (off, on float64, ok bool) {
	if d <= 0 || d >= 1 {
		return 0, 0, false
	}
	return d * c.period / 2, c.period * (1 - d/2), true
}

// Sequence expands three duty ratios into the ordered switch-state intervals
// covering one carrier period. Crossings closer together than the minimum
// pulse width are merged, so the engine never integrates a degenerate
// sub-interval.
func (c *CarrierComparison) Sequence(d [3]float64) []Interval {
	times := make([]float64, 0, 6)
	for k := 0; k < 3; k++ {
		if off, on, ok := c.Crossings(d[k]); ok {
			times = append(times, off, on)
		}
	}
	sort.Float64s(times)

	bounds := make([]float64, 0, 8)
	bounds = append(bounds, 0)
	for _, t := range times {
		if t-bounds[len(bounds)-1] > c.minPulse && c.period-t > c.minPulse {
			bounds = append(bounds, t)
		}
	}
	bounds = append(bounds, c.period)

	intervals := make([]Interval, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		mid := 0.5 * (bounds[i] + bounds[i+1])
		q := dynamo.Control{c.stateAt(d[0], mid), c.stateAt(d[1], mid), c.stateAt(d[2], mid)}
		intervals = append(intervals, Interval{Start: bounds[i], End: bounds[i+1], Q: q})
	}
	return intervals
}

func (c *CarrierComparison) stateAt(d, t float64) float64 {
	off, on, ok := c.Crossings(d)
	if !ok {
		if d >= 1 {
			return 1
		}
		return 0
	}
	if t < off || t > on {
		return 1
	}
	return 0
}
