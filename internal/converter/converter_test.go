package converter

import (
	"math"
	"testing"

	"github.com/san-kum/drivesim/internal/dynamo"
)

func testConverter(t *testing.T) *FrequencyConverter {
	t.Helper()
	c, err := New(Params{
		SupplyVoltage: 400,
		SupplyFreq:    50,
		Inductance:    2e-3,
		Capacitance:   235e-6,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestBridgeVoltageEnvelope(t *testing.T) {
	c := testConverter(t)

	peak := math.Sqrt(2) * 400
	valley := peak * math.Cos(math.Pi/6)

	for i := 0; i < 2000; i++ {
		tt := float64(i) * 1e-5
		u := c.BridgeVoltage(tt)
		if u < valley-1e-6 || u > peak+1e-6 {
			t.Fatalf("bridge voltage %g at t=%g outside six-pulse envelope [%g, %g]", u, tt, valley, peak)
		}
	}
}

func TestConductionRule(t *testing.T) {
	c := testConverter(t)

	uDi := c.BridgeVoltage(0)

	if !c.Conducting(0, uDi-1, 0) {
		t.Error("bridge should conduct when source exceeds link voltage")
	}
	if c.Conducting(0, uDi+1, 0) {
		t.Error("bridge should block when link voltage exceeds source")
	}
	if !c.Conducting(0, uDi+1, 0.5) {
		t.Error("bridge should keep conducting while inductor current flows")
	}
}

func TestBlockedBridgeContributesNothing(t *testing.T) {
	c := testConverter(t)

	duDc, diL := c.LinkDerivatives(0, 600, 0, 2.0, false)
	if diL != 0 {
		t.Errorf("blocked bridge must hold zero inductor current, got diL=%g", diL)
	}
	want := -2.0 / 235e-6
	if math.Abs(duDc-want) > 1e-9 {
		t.Errorf("link discharge: got %g, want %g", duDc, want)
	}
}

func TestConductingDerivativeSigns(t *testing.T) {
	c := testConverter(t)

	// Source above link: inductor current must rise. At t=0 the six-pulse
	// envelope sits at its valley near 490 V, so the link must be below that.
	_, diL := c.LinkDerivatives(0, 450, 0, 0, true)
	if diL <= 0 {
		t.Errorf("expected charging current, got diL=%g", diL)
	}

	// Source below link: the inductor current must fall.
	_, diL = c.LinkDerivatives(0, 560, 1.0, 0, true)
	if diL >= 0 {
		t.Errorf("expected discharging current, got diL=%g", diL)
	}

	// Inflow above draw: link voltage must rise.
	duDc, _ := c.LinkDerivatives(0, 500, 3.0, 1.0, true)
	if duDc <= 0 {
		t.Errorf("expected rising link voltage, got duDc=%g", duDc)
	}
}

func TestSwitchVectorStates(t *testing.T) {
	// All-off and all-on legs are both zero vectors.
	for _, u := range []dynamo.Control{{0, 0, 0}, {1, 1, 1}} {
		q := SwitchVector(u)
		if math.Abs(real(q)) > 1e-12 || math.Abs(imag(q)) > 1e-12 {
			t.Errorf("state %v: expected zero vector, got %v", u, q)
		}
	}

	// Phase a high: vector along the real axis with magnitude 2/3.
	q := SwitchVector(dynamo.Control{1, 0, 0})
	if math.Abs(real(q)-2.0/3.0) > 1e-12 || math.Abs(imag(q)) > 1e-12 {
		t.Errorf("expected 2/3+0j, got %v", q)
	}
}

func TestTerminalVoltageScaling(t *testing.T) {
	q := SwitchVector(dynamo.Control{1, 0, 0})
	u := TerminalVoltage(q, 540)
	if math.Abs(real(u)-360) > 1e-9 {
		t.Errorf("expected 360 V on the real axis, got %v", u)
	}
}

func TestDCCurrentPowerBalance(t *testing.T) {
	iS := complex(8.0, -3.0)
	u := dynamo.Control{0.7, 0.3, 0.2}
	uDc := 540.0

	// Averaged mode: u_dc*i_dc must equal the machine-side power.
	iDc := DCCurrent(u, iS, true)
	q := SwitchVector(u)
	uS := TerminalVoltage(q, uDc)
	pMachine := 1.5 * (real(uS)*real(iS) + imag(uS)*imag(iS))
	if math.Abs(uDc*iDc-pMachine) > 1e-9 {
		t.Errorf("power mismatch: dc %g, machine %g", uDc*iDc, pMachine)
	}
}

func TestDCCurrentSwitched(t *testing.T) {
	iS := complex(10.0, 0.0)
	ia, _, _ := dynamo.ComplexToABC(iS)

	got := DCCurrent(dynamo.Control{1, 0, 0}, iS, false)
	if math.Abs(got-ia) > 1e-12 {
		t.Errorf("expected phase a current %g, got %g", ia, got)
	}

	if got := DCCurrent(dynamo.Control{0, 0, 0}, iS, false); got != 0 {
		t.Errorf("zero vector should draw nothing, got %g", got)
	}
}

func TestParamValidation(t *testing.T) {
	base := Params{SupplyVoltage: 400, SupplyFreq: 50, Inductance: 2e-3, Capacitance: 235e-6}

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero voltage", func(p *Params) { p.SupplyVoltage = 0 }},
		{"negative frequency", func(p *Params) { p.SupplyFreq = -50 }},
		{"zero inductance", func(p *Params) { p.Inductance = 0 }},
		{"zero capacitance", func(p *Params) { p.Capacitance = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			if _, err := New(p); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
