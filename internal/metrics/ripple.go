package metrics

import (
	"math"

	"github.com/san-kum/drivesim/internal/dynamo"
	"github.com/san-kum/drivesim/internal/plant"
)

// DCRipple measures the peak-to-peak DC link voltage swing relative to the
// mean link voltage over the run.
type DCRipple struct {
	name    string
	min     float64
	max     float64
	sum     float64
	samples int
}

func NewDCRipple() *DCRipple {
	r := &DCRipple{name: "dc_ripple"}
	r.Reset()
	return r
}

func (r *DCRipple) Name() string { return r.name }

func (r *DCRipple) Observe(x dynamo.State, u dynamo.Control, t float64) {
	uDc := x[plant.IdxDCVoltage]
	r.min = math.Min(r.min, uDc)
	r.max = math.Max(r.max, uDc)
	r.sum += uDc
	r.samples++
}

func (r *DCRipple) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	mean := r.sum / float64(r.samples)
	if mean == 0 {
		return 0
	}
	return (r.max - r.min) / mean
}

func (r *DCRipple) Reset() {
	r.min = math.Inf(1)
	r.max = math.Inf(-1)
	r.sum = 0
	r.samples = 0
}
