// internal/motif/scorer.go
package motif

import (
	"math"

	"motifsampler/internal/seqset"
)

// Scorer evaluates candidate windows against a motif's log-likelihood
// matrix and the corpus background. Its matrix buffers are reused across
// passes and only regrown when the column count increases.
type Scorer struct {
	bg     *seqset.Background
	pseudo [4]float64

	m     *Motif
	cols  []int
	width int
	freq  []int
	score []float64
}

// NewScorer returns a scorer using the given per-base pseudocounts.
func NewScorer(bg *seqset.Background, pseudo [4]float64) *Scorer {
	return &Scorer{bg: bg, pseudo: pseudo}
}

// Calc rebuilds the matrix from m's current sites and columns. Later calls
// to LogOdds and ScoreSite use this snapshot even if m's sites change.
func (s *Scorer) Calc(m *Motif) {
	s.m = m
	s.cols = append(s.cols[:0], m.columns...)
	s.width = m.width
	s.freq = m.CalcFreqMatrix(s.freq)
	s.score = m.CalcScoreMatrix(s.freq, s.score, s.pseudo)
}

// Matrix returns the current score matrix (4 entries per active column).
func (s *Scorer) Matrix() []float64 { return s.score }

// Width is the window width of the snapshot.
func (s *Scorer) Width() int { return s.width }

// LogOdds is the motif log-likelihood of the window at (seq, pos) on the
// given strand minus its background log-likelihood over the same columns.
func (s *Scorer) LogOdds(seq, pos int, watson bool) float64 {
	enc := s.bg.Corpus().Seq(seq)
	L := 0.0
	if watson {
		for i, c := range s.cols {
			p := pos + c
			L += s.score[4*i+int(enc[p])]
			L -= s.bg.Score(seq, p, true)
		}
		return L
	}
	for i, c := range s.cols {
		p := pos + s.width - 1 - c
		L += s.score[4*i+3-int(enc[p])]
		L -= s.bg.Score(seq, p, false)
	}
	return L
}

// ScoreSite is the likelihood ratio exp(LogOdds). Posterior computations
// use it directly as odds.
func (s *Scorer) ScoreSite(seq, pos int, watson bool) float64 {
	return math.Exp(s.LogOdds(seq, pos, watson))
}
