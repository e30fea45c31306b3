package profile

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// LowPass keeps the mean and the first harmonics frequency components of the
// profile and discards the rest. The profile is treated as one period of a
// circular signal, so the result has no seam at index 0. A harmonics value
// that covers the whole spectrum returns a copy.
func (p Profile) LowPass(harmonics int) Profile {
	n := len(p)
	if n == 0 || harmonics < 0 || harmonics >= n/2 {
		return p.Copy()
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, p)
	for k := harmonics + 1; k < len(coeff); k++ {
		coeff[k] = 0
	}

	// Sequence is not normalised
	out := fft.Sequence(nil, coeff)
	scale := 1 / float64(n)
	for i := range out {
		out[i] *= scale
	}
	return Profile(out)
}
