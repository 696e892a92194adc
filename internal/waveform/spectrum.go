package waveform

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Hamming returns a Hamming window of length n.
func Hamming(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	win := make([]float64, n)
	for i := 0; i < n; i++ {
		win[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return win
}

// Spectrum computes the windowed power spectrum of the waveform in dBFS,
// shifted so that DC sits in the middle of the slice.
func Spectrum(w Waveform) []float64 {
	if len(w) == 0 {
		return []float64{}
	}

	win := Hamming(len(w))
	sumWin := 0.0
	for _, v := range win {
		sumWin += v
	}

	samples := w.Complex()
	for i := range samples {
		samples[i] *= complex(win[i], 0)
	}

	fft := fourier.NewCmplxFFT(len(samples)).Coefficients(nil, samples)
	for i := range fft {
		fft[i] /= complex(sumWin, 0)
	}

	shifted := fftShift(fft)
	dbfs := make([]float64, len(shifted))
	for i, v := range shifted {
		mag := cmplx.Abs(v)
		if mag == 0 {
			dbfs[i] = math.Inf(-1)
			continue
		}
		dbfs[i] = 20 * math.Log10(mag)
	}
	return dbfs
}

// fftShift rotates FFT output so DC is centered.
func fftShift(data []complex128) []complex128 {
	n := len(data)
	if n == 0 {
		return []complex128{}
	}
	half := n / 2
	return append(data[half:], data[:half]...)
}

// PeakBin returns the index of the strongest spectrum bin.
func PeakBin(dbfs []float64) int {
	peak := 0
	for i, v := range dbfs {
		if v > dbfs[peak] {
			peak = i
		}
	}
	return peak
}

// BinFrequency converts a shifted-spectrum bin index to a frequency offset
// from the carrier, in Hz, for the given sample rate.
func BinFrequency(bin, n int, rate float64) float64 {
	if n == 0 {
		return 0
	}
	return (float64(bin) - float64(n/2)) * rate / float64(n)
}
