package metrics

import (
	"math"

	"github.com/san-kum/drivesim/internal/dynamo"
	"github.com/san-kum/drivesim/internal/plant"
)

// SpeedTracking accumulates the RMS error between the electrical rotor
// speed and a speed reference.
type SpeedTracking struct {
	name      string
	polePairs float64
	ref       func(t float64) float64
	sumSq     float64
	samples   int
}

func NewSpeedTracking(polePairs int, ref func(t float64) float64) *SpeedTracking {
	return &SpeedTracking{
		name:      "speed_rms_error",
		polePairs: float64(polePairs),
		ref:       ref,
	}
}

func (s *SpeedTracking) Name() string { return s.name }

func (s *SpeedTracking) Observe(x dynamo.State, u dynamo.Control, t float64) {
	err := s.polePairs*x[plant.IdxSpeed] - s.ref(t)
	s.sumSq += err * err
	s.samples++
}

func (s *SpeedTracking) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return math.Sqrt(s.sumSq / float64(s.samples))
}

func (s *SpeedTracking) Reset() {
	s.sumSq = 0
	s.samples = 0
}

// CurrentLimit reports the fraction of control steps during which the
// stator current magnitude stayed under a limit.
type CurrentLimit struct {
	name       string
	drive      *plant.Drive
	limit      float64
	violations int
	samples    int
}

func NewCurrentLimit(d *plant.Drive, limit float64) *CurrentLimit {
	return &CurrentLimit{
		name:  "current_within_limit",
		drive: d,
		limit: limit,
	}
}

func (c *CurrentLimit) Name() string { return c.name }

func (c *CurrentLimit) Observe(x dynamo.State, u dynamo.Control, t float64) {
	c.samples++
	m := c.drive.Measure(x)
	if re, im := real(m.StatorCurrent), imag(m.StatorCurrent); math.Hypot(re, im) > c.limit {
		c.violations++
	}
}

func (c *CurrentLimit) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *CurrentLimit) Reset() {
	c.violations = 0
	c.samples = 0
}
