// internal/engine/params.go
package engine

import (
	"errors"
	"fmt"
	"math"
)

// Mode selects what drives the search space.
type Mode string

const (
	// ModeExpression grows the search space around the mean expression
	// profile of the genes carrying sites.
	ModeExpression Mode = "expression"
	// ModeSubset fixes the search space to a named gene list.
	ModeSubset Mode = "subset"
)

// ColumnPolicy selects the move made by column sampling.
type ColumnPolicy string

const (
	ColumnSwap   ColumnPolicy = "swap"
	ColumnAdd    ColumnPolicy = "add"
	ColumnRemove ColumnPolicy = "remove"
)

// Params holds search parameters. Fill with Defaults, override, then let
// New call Finalize.
type Params struct {
	Expect      int     // expected number of sites
	MinPass     int     // non-improving iterations per phase before escalation
	Seed        int64   // RNG seed; negative picks one at random
	PsFact      float64 // pseudocount mass per expected site
	Weight      float64 // search-space vs site weighting of the prior
	MinSize     int     // minimum sequences carrying a final motif
	MinCorr     float64 // lowest expression correlation for the initial space
	Undersample float64
	Oversample  float64

	NumCols        int // active columns
	MaxWidthFactor int // window may grow to NumCols*MaxWidthFactor
	BgOrder        int // background Markov order used to build the corpus

	// MinProb is the sequence-cutoff floor per phase; the search stops
	// iterating when the last entry's phase is reached.
	MinProb []float64

	SimCutoff       float64 // t-statistic above which two motifs are one
	Overlap         int     // required overlap when aligning two motifs
	MaxIterations   int
	SeedTries       int
	MaxSiteFraction float64 // restart when more than this fraction of genes carry sites
	ColumnPolicy    ColumnPolicy
	Mode            Mode

	// Derived by Finalize.
	NPseudo  float64
	BackFreq [4]float64
	Pseudo   [4]float64
}

// Defaults returns the stock parameter set.
func Defaults() Params {
	return Params{
		Expect:          10,
		MinPass:         50,
		Seed:            -1,
		PsFact:          0.1,
		Weight:          0.5,
		MinSize:         5,
		MinCorr:         0.4,
		Undersample:     1,
		Oversample:      1,
		NumCols:         10,
		MaxWidthFactor:  3,
		BgOrder:         3,
		MinProb:         []float64{0.01, 0.01, 0.2, 0.6},
		SimCutoff:       6,
		Overlap:         2,
		MaxIterations:   10000,
		SeedTries:       50,
		MaxSiteFraction: 1.0 / 3.0,
		ColumnPolicy:    ColumnSwap,
		Mode:            ModeExpression,
	}
}

// ErrParams wraps every validation failure.
var ErrParams = errors.New("invalid search parameters")

// Validate checks ranges that would make the search meaningless.
func (p *Params) Validate() error {
	switch {
	case p.Expect < 1:
		return fmt.Errorf("%w: expect must be >= 1", ErrParams)
	case p.MinPass < 1:
		return fmt.Errorf("%w: minpass must be >= 1", ErrParams)
	case p.PsFact <= 0:
		return fmt.Errorf("%w: psfact must be > 0", ErrParams)
	case p.Weight <= 0 || p.Weight >= 1:
		return fmt.Errorf("%w: weight must be in (0,1)", ErrParams)
	case p.MinSize < 2:
		return fmt.Errorf("%w: minsize must be >= 2", ErrParams)
	case p.NumCols < 2:
		return fmt.Errorf("%w: numcols must be >= 2", ErrParams)
	case p.MaxWidthFactor < 1:
		return fmt.Errorf("%w: max width factor must be >= 1", ErrParams)
	case p.BgOrder < 0 || p.BgOrder > 3:
		return fmt.Errorf("%w: background order must be 0..3", ErrParams)
	case len(p.MinProb) < 2:
		return fmt.Errorf("%w: need at least two phase floors", ErrParams)
	case p.Undersample <= 0 || p.Oversample <= 0:
		return fmt.Errorf("%w: under/oversample must be > 0", ErrParams)
	case p.MaxIterations < 1 || p.SeedTries < 1:
		return fmt.Errorf("%w: iteration and seed bounds must be >= 1", ErrParams)
	case p.MaxSiteFraction <= 0:
		return fmt.Errorf("%w: max site fraction must be > 0", ErrParams)
	}
	for i, f := range p.MinProb {
		if f < 0 || f > 1 {
			return fmt.Errorf("%w: minprob[%d]=%v outside [0,1]", ErrParams, i, f)
		}
	}
	switch p.ColumnPolicy {
	case ColumnSwap, ColumnAdd, ColumnRemove:
	default:
		return fmt.Errorf("%w: unknown column policy %q", ErrParams, p.ColumnPolicy)
	}
	switch p.Mode {
	case ModeExpression, ModeSubset:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrParams, p.Mode)
	}
	return nil
}

// Finalize derives pseudocounts and background frequencies from the
// genome G+C fraction, kept away from 0 and 1 so no base is impossible.
func (p *Params) Finalize(gc float64) {
	gc = math.Min(math.Max(gc, 1e-3), 1-1e-3)
	p.NPseudo = float64(p.Expect) * p.PsFact
	p.BackFreq[0] = (1 - gc) / 2
	p.BackFreq[3] = p.BackFreq[0]
	p.BackFreq[1] = gc / 2
	p.BackFreq[2] = p.BackFreq[1]
	for i := range p.Pseudo {
		p.Pseudo[i] = p.NPseudo * p.BackFreq[i]
	}
}

// MaxWidth is the widest window column sampling may open.
func (p *Params) MaxWidth() int { return p.NumCols * p.MaxWidthFactor }

// FinalPhase is the phase at which iteration stops.
func (p *Params) FinalPhase() int { return len(p.MinProb) - 1 }

// NumRuns suggests how many attempts cover a corpus with the given number
// of candidate positions.
func (p *Params) NumRuns(positions int) int {
	n := float64(positions) / float64(p.Expect) / float64(p.NumCols) / p.Undersample * p.Oversample
	if n < 1 {
		return 1
	}
	return int(n)
}
