package waveform

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a waveform's amplitude behavior. All values are relative
// to full scale, so a full-scale complex tone measures 0 dBFS.
type Stats struct {
	Samples       int
	PeakMagnitude float64 // largest |sample|, 1.0 = full scale
	MeanI         float64 // DC offset of the I rail
	MeanQ         float64 // DC offset of the Q rail
	PowerDBFS     float64 // mean power about the DC offset
}

// Analyze computes amplitude statistics for a waveform. An empty waveform
// yields the zero Stats.
func Analyze(w Waveform) Stats {
	if len(w) == 0 {
		return Stats{}
	}

	iRail := make([]float64, len(w))
	qRail := make([]float64, len(w))
	mags := make([]float64, len(w))
	for n, s := range w {
		i := float64(s.I) / fullScale
		q := float64(s.Q) / fullScale
		iRail[n] = i
		qRail[n] = q
		mags[n] = math.Hypot(i, q)
	}

	meanI := stat.Mean(iRail, nil)
	meanQ := stat.Mean(qRail, nil)

	power := 0.0
	for n := range iRail {
		di := iRail[n] - meanI
		dq := qRail[n] - meanQ
		power += di*di + dq*dq
	}
	power /= float64(len(w))

	return Stats{
		Samples:       len(w),
		PeakMagnitude: floats.Max(mags),
		MeanI:         meanI,
		MeanQ:         meanQ,
		PowerDBFS:     10 * math.Log10(power),
	}
}
