// internal/engine/score.go
package engine

import (
	"math"

	"motifsampler/internal/stats"
)

// matrixScore is the log marginal likelihood of the active columns under a
// Dirichlet prior, relative to background, less the log number of ways to
// place the interior columns in the window.
func (e *Engine) matrixScore() float64 {
	m := e.m
	e.freq = m.CalcFreqMatrix(e.freq)
	nc := m.NumCols()
	nsites := float64(m.NumSites())
	ps := e.p.Pseudo

	ms := 0.0
	var tot [4]float64
	for i := 0; i < nc; i++ {
		for b := 0; b < 4; b++ {
			f := float64(e.freq[4*i+b])
			ms += stats.Gammaln(f + ps[b])
			tot[b] += f
		}
	}
	ms -= float64(nc) * stats.Gammaln(nsites+e.p.NPseudo)
	for b := 0; b < 4; b++ {
		ms -= tot[b] * math.Log(e.p.BackFreq[b])
	}
	ms -= stats.LnBico(m.Width()-2, nc-2)

	vg := -stats.Gammaln(e.p.NPseudo)
	for b := 0; b < 4; b++ {
		vg += stats.Gammaln(ps[b])
	}
	return ms - float64(nc)*vg
}

// mapScore adds a beta-binomial prior on the number of sites to the
// matrix score.
func (e *Engine) mapScore() float64 {
	n := float64(e.m.PositionsAvailable(e.possible))
	wt := e.p.Weight / (1 - e.p.Weight)
	alpha := float64(e.p.Expect) * wt
	beta := n*wt - alpha
	if beta <= 0 {
		beta = alpha
	}
	k := float64(e.m.NumSites())
	prior := stats.Gammaln(k+alpha) + stats.Gammaln(n-k+beta) - stats.Gammaln(alpha) - stats.Gammaln(n+beta)
	return prior + e.matrixScore()
}

// entropyScore is the summed relative entropy of the active columns
// against background, in bits.
func (e *Engine) entropyScore() float64 {
	m := e.m
	if m.NumSites() == 0 {
		return 0
	}
	e.freq = m.CalcFreqMatrix(e.freq)
	tot := float64(m.NumSites()) + e.p.NPseudo
	h := 0.0
	for i := 0; i < m.NumCols(); i++ {
		for b := 0; b < 4; b++ {
			q := (float64(e.freq[4*i+b]) + e.p.Pseudo[b]) / tot
			h += q * math.Log2(q/e.p.BackFreq[b])
		}
	}
	return h
}
