package metrics

import (
	"math"

	"github.com/san-kum/drivesim/internal/dynamo"
	"github.com/san-kum/drivesim/internal/plant"
)

// EnergyDrift tracks the worst-case relative drift of the total stored drive
// energy from its initial value. On a lossless configuration with no
// external exchange it doubles as an integrator sanity check.
type EnergyDrift struct {
	name          string
	drive         *plant.Drive
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(d *plant.Drive) *EnergyDrift {
	return &EnergyDrift{
		name:  "energy_drift",
		drive: d,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	energy := e.drive.Energy(x)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
