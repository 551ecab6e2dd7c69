package machine_test

import (
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/drivesim/internal/machine"
)

// Parameters of a 2.2 kW machine used throughout the suite.
func testParams() machine.InductionParams {
	return machine.InductionParams{
		Rs:        3.7,
		Rr:        2.1,
		LLeak:     0.021,
		PolePairs: 2,
		Saturation: machine.SaturationCurve{
			Lsu:  0.34,
			Beta: 0.84,
			Exp:  7,
		},
	}
}

var _ = Describe("SaturationCurve", func() {
	curve := testParams().Saturation

	It("is strictly positive over the working flux range", func() {
		for psi := 0.0; psi <= 3.0; psi += 0.01 {
			Expect(curve.Inductance(psi)).To(BeNumerically(">", 0))
		}
	})

	It("is monotonically non-increasing in flux magnitude", func() {
		prev := curve.Inductance(0)
		for psi := 0.01; psi <= 3.0; psi += 0.01 {
			l := curve.Inductance(psi)
			Expect(l).To(BeNumerically("<=", prev+1e-15))
			prev = l
		}
	})

	It("equals the unsaturated inductance at zero flux", func() {
		Expect(curve.Inductance(0)).To(BeNumerically("~", curve.Lsu, 1e-12))
	})

	It("is flat when saturation is disabled", func() {
		flat := machine.SaturationCurve{Lsu: 0.34}
		Expect(flat.Validate()).To(Succeed())
		Expect(flat.Inductance(0.1)).To(Equal(flat.Inductance(2.5)))
	})

	It("rejects non-positive unsaturated inductance", func() {
		bad := machine.SaturationCurve{Lsu: 0, Beta: 0.5, Exp: 7}
		Expect(bad.Validate()).NotTo(Succeed())
	})

	It("rejects negative saturation coefficient", func() {
		bad := machine.SaturationCurve{Lsu: 0.3, Beta: -1, Exp: 7}
		Expect(bad.Validate()).NotTo(Succeed())
	})
})

var _ = Describe("InductionMachine", func() {
	var m *machine.InductionMachine

	BeforeEach(func() {
		var err error
		m, err = machine.NewInductionMachine(testParams())
		Expect(err).NotTo(HaveOccurred())
	})

	It("inverts fluxes into currents consistently", func() {
		psiS := complex(0.9, 0.2)
		psiR := complex(0.85, 0.15)

		iS, iR := m.Currents(psiS, psiR)

		p := m.Params()
		ls := p.Saturation.Inductance(cmplx.Abs(psiS))

		// Reconstruct the fluxes from the currents through the Γ circuit.
		Expect(cmplx.Abs(complex(ls, 0)*(iS+iR) - psiS)).To(BeNumerically("<", 1e-12))
		Expect(cmplx.Abs(psiS + complex(p.LLeak, 0)*iR - psiR)).To(BeNumerically("<", 1e-12))
	})

	It("produces zero torque for aligned fluxes", func() {
		psi := complex(1.0, 0.5)
		Expect(m.Torque(psi, psi*complex(0.95, 0))).To(BeNumerically("~", 0, 1e-12))
	})

	It("produces torque of opposite sign when fluxes swap", func() {
		psiS := complex(1.0, 0.0)
		psiR := complex(0.95, -0.1)
		tau := m.Torque(psiS, psiR)
		Expect(tau).NotTo(BeNumerically("~", 0, 1e-9))
		Expect(m.Torque(psiS, cmplx.Conj(psiR))).To(BeNumerically("~", -tau, 1e-9))
	})

	It("remains a valid lossless model with zero resistances", func() {
		p := testParams()
		p.Rs = 0
		p.Rr = 0
		lossless, err := machine.NewInductionMachine(p)
		Expect(err).NotTo(HaveOccurred())

		dPsiS, dPsiR := lossless.Derivatives(complex(1, 0), complex(0.9, 0.1), complex(300, 0), 150.0)
		Expect(cmplx.IsNaN(dPsiS)).To(BeFalse())
		Expect(cmplx.IsNaN(dPsiR)).To(BeFalse())
		// With Rs = 0 the stator flux derivative is exactly the applied voltage.
		Expect(cmplx.Abs(dPsiS - complex(300, 0))).To(BeNumerically("<", 1e-12))
	})

	It("stores more magnetic energy at higher flux", func() {
		low := m.MagneticEnergy(complex(0.5, 0), complex(0.5, 0))
		high := m.MagneticEnergy(complex(1.5, 0), complex(1.5, 0))
		Expect(high).To(BeNumerically(">", low))
		Expect(low).To(BeNumerically(">=", 0))
	})

	It("rejects invalid parameters", func() {
		p := testParams()
		p.LLeak = 0
		_, err := machine.NewInductionMachine(p)
		Expect(err).To(HaveOccurred())

		p = testParams()
		p.PolePairs = 0
		_, err = machine.NewInductionMachine(p)
		Expect(err).To(HaveOccurred())
	})
})
