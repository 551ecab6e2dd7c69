package analysis

import (
	"math"
	"math/cmplx"
)

func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// Spectrum pairs spectral magnitudes with their frequencies for a uniformly
// sampled signal. Trailing samples beyond the largest power of two are
// dropped.
type Spectrum struct {
	Freqs []float64
	Mags  []float64
}

func NewSpectrum(data []float64, sampleRate float64) Spectrum {
	n := 1
	for n*2 <= len(data) {
		n *= 2
	}
	if len(data) < 2 {
		return Spectrum{}
	}

	ps := PowerSpectrum(data[:n])
	freqs := make([]float64, len(ps))
	for i := range freqs {
		freqs[i] = float64(i) * sampleRate / float64(n)
	}
	return Spectrum{Freqs: freqs, Mags: ps}
}

// Peak returns the frequency with the largest magnitude above fMin. The DC
// bin and everything below fMin are skipped.
func (s Spectrum) Peak(fMin float64) (freq, mag float64) {
	for i := 1; i < len(s.Freqs); i++ {
		if s.Freqs[i] < fMin {
			continue
		}
		if s.Mags[i] > mag {
			freq, mag = s.Freqs[i], s.Mags[i]
		}
	}
	return
}

// THD estimates total harmonic distortion of a signal with fundamental
// frequency f1: the ratio of the RMS of all other non-DC bins to the
// fundamental bin magnitude.
func (s Spectrum) THD(f1 float64) float64 {
	if len(s.Freqs) < 2 {
		return 0
	}

	df := s.Freqs[1] - s.Freqs[0]
	fund := int(math.Round(f1 / df))
	if fund < 1 || fund >= len(s.Mags) || s.Mags[fund] == 0 {
		return 0
	}

	var rest float64
	for i := 1; i < len(s.Mags); i++ {
		if i == fund {
			continue
		}
		rest += s.Mags[i] * s.Mags[i]
	}
	return math.Sqrt(rest) / s.Mags[fund]
}
