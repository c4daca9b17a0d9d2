// Package analysis summarises scan output so candidate lists can be ranked
// and sanity-checked before anyone stares at hex.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/framesift/internal/scan"
)

// Summary describes one scan pass over a payload.
type Summary struct {
	Windows    int `json:"windows"`
	Candidates int `json:"candidates"`

	// HitRate is candidates per interpretation examined (two per window).
	// Near 1.0 means the predicate is not discriminating; near 0 on a
	// payload known to carry floats means the range guess is wrong.
	HitRate   float64 `json:"hit_rate"`
	MeanAbs   float64 `json:"mean_abs"`
	StdDevAbs float64 `json:"stddev_abs"`

	// EntropyBits is the Shannon entropy of the payload bytes in bits per
	// byte. Values close to 8 indicate compressed or encrypted data,
	// where float scanning is noise.
	EntropyBits float64 `json:"entropy_bits"`
}

// Summarize computes scan statistics for candidates found in buf starting
// at offset start.
func Summarize(buf []byte, start int, candidates []scan.Candidate) Summary {
	s := Summary{
		Windows:    scan.Windows(buf, start),
		Candidates: len(candidates),
	}
	if s.Windows > 0 {
		s.HitRate = float64(len(candidates)) / float64(2*s.Windows)
	}

	if len(candidates) > 0 {
		abs := make([]float64, len(candidates))
		for i, c := range candidates {
			abs[i] = math.Abs(float64(c.Value))
		}
		s.MeanAbs, s.StdDevAbs = stat.MeanStdDev(abs, nil)
		if len(candidates) == 1 {
			s.StdDevAbs = 0
		}
	}

	if start < 0 {
		start = 0
	}
	if start < len(buf) {
		s.EntropyBits = ByteEntropy(buf[start:])
	}
	return s
}

// ByteEntropy returns the Shannon entropy of buf in bits per byte.
func ByteEntropy(buf []byte) float64 {
	if len(buf) == 0 {
		return 0
	}
	var counts [256]float64
	for _, b := range buf {
		counts[b]++
	}
	p := make([]float64, 256)
	n := float64(len(buf))
	for i, c := range counts {
		p[i] = c / n
	}
	return stat.Entropy(p) / math.Ln2
}
