// internal/engine/cutoff.go
package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"motifsampler/internal/stats"
)

const (
	initialExprCutoff = 0.8
	exprCutoffStep    = 0.05
)

func (e *Engine) setAllPossible() {
	for g := range e.possible {
		e.possible[g] = true
	}
	e.npossible = e.ngenes
}

func (e *Engine) setSubsetSpace() {
	e.npossible = 0
	for g, in := range e.data.Subset {
		e.possible[g] = in
		if in {
			e.npossible++
		}
	}
}

// initialSearchSpace fixes the first search space around the seed. In
// expression mode it lowers the correlation cutoff from 0.8 until the space
// holds 5*MinSize genes or MinCorr is reached.
func (e *Engine) initialSearchSpace() Status {
	if e.p.Mode == ModeSubset {
		e.setSubsetSpace()
		e.m.ExprCutoff = 0.5
		if e.npossible < 2 {
			return BadSearchSpace
		}
		return Success
	}
	cut := initialExprCutoff
	e.clearPossible()
	for k := 1; e.npossible < 5*e.p.MinSize && cut > e.p.MinCorr+1e-9; k++ {
		cut = initialExprCutoff - exprCutoffStep*float64(k)
		e.expandAroundMean(cut)
	}
	e.m.ExprCutoff = cut
	if e.npossible < 2 {
		return BadSearchSpace
	}
	return Success
}

func (e *Engine) clearPossible() {
	for g := range e.possible {
		e.possible[g] = false
	}
	e.npossible = 0
}

// updateSearchSpace recenters the expression search space on the current
// members. Subset mode keeps its fixed space.
func (e *Engine) updateSearchSpace() {
	if e.p.Mode == ModeExpression {
		e.expandAroundMean(e.m.ExprCutoff)
	}
}

// calcMean averages the profiles of sequences carrying sites. With no
// members the previous mean is kept.
func (e *Engine) calcMean() {
	n := 0
	for g := 0; g < e.ngenes; g++ {
		if !e.m.HasSiteOn(g) {
			continue
		}
		if n == 0 {
			copy(e.mean, e.data.Expr[g])
		} else {
			floats.Add(e.mean, e.data.Expr[g])
		}
		n++
	}
	if n > 0 {
		floats.Scale(1/float64(n), e.mean)
		e.meanSet = true
	}
}

// expandAroundMean sets the search space to every gene whose profile
// correlates with the members' mean at or above cut. Without a mean yet
// the space is left unchanged.
func (e *Engine) expandAroundMean(cut float64) {
	e.calcMean()
	if !e.meanSet {
		return
	}
	e.npossible = 0
	for g := 0; g < e.ngenes; g++ {
		e.possible[g] = stats.Corr(e.mean, e.data.Expr[g]) >= cut
		if e.possible[g] {
			e.npossible++
		}
	}
}

// computeExprScores scores every gene's membership evidence: correlation
// to the mean profile, or 1/0 subset membership.
func (e *Engine) computeExprScores() {
	if e.p.Mode == ModeSubset {
		for g, in := range e.data.Subset {
			e.exprScores[g] = 0
			if in {
				e.exprScores[g] = 1
			}
		}
	} else {
		e.calcMean()
		for g := 0; g < e.ngenes; g++ {
			e.exprScores[g] = 0
			if e.meanSet {
				e.exprScores[g] = stats.Corr(e.mean, e.data.Expr[g])
			}
		}
	}
	fillRanks(e.exprRanks, e.exprScores)
}

// setSeqCutoff picks the sequence-score threshold, not below the phase
// floor, whose passing set overlaps the expression set most improbably.
func (e *Engine) setSeqCutoff(phase int) {
	floor := e.p.MinProb[phase]
	exprCut := e.m.ExprCutoff
	expn := 0
	for _, s := range e.exprScores {
		if s >= exprCut {
			expn++
		}
	}
	best, bestPo := floor, 1.0
	seqn, isect := 0, 0
	seqcut := e.seqRanks[0].score
	for _, r := range e.seqRanks {
		if r.score < floor {
			break
		}
		if seqcut > r.score {
			if po := stats.ProbOverlap(expn, seqn, isect, e.ngenes); po < bestPo {
				best, bestPo = seqcut, po
			}
		}
		seqn++
		if e.exprScores[r.id] >= exprCut {
			isect++
		}
		seqcut = r.score
	}
	if seqn > 0 && seqcut >= floor {
		if po := stats.ProbOverlap(expn, seqn, isect, e.ngenes); po < bestPo {
			best = seqcut
		}
	}
	e.m.SeqCutoff = best
}

// setExprCutoff scans correlation cutoffs from 0.95 down to 0 and keeps
// the one whose expression set overlaps the passing sequences most
// improbably. Subset mode has a fixed cutoff.
func (e *Engine) setExprCutoff() {
	if e.p.Mode == ModeSubset {
		return
	}
	seqCut := e.m.SeqCutoff
	seqn := 0
	for _, s := range e.seqScores {
		if s >= seqCut {
			seqn++
		}
	}
	best, bestPo := 0.0, 1.0
	expn, isect, k := 0, 0, 0
	for step := 95; step >= 0; step-- {
		cut := float64(step) / 100
		for k < len(e.exprRanks) && e.exprRanks[k].score >= cut {
			expn++
			if e.seqScores[e.exprRanks[k].id] >= seqCut {
				isect++
			}
			k++
		}
		if po := stats.ProbOverlap(expn, seqn, isect, e.ngenes); po <= bestPo {
			best, bestPo = cut, po
		}
	}
	e.m.ExprCutoff = best
}

// specScore is -log10 of the overlap probability between sequences
// passing the sequence cutoff and genes passing the expression cutoff;
// 0 when that probability exceeds 0.99.
func (e *Engine) specScore() float64 {
	seqn, expn, isect := 0, 0, 0
	for g := 0; g < e.ngenes; g++ {
		inSeq := e.seqScores[g] >= e.m.SeqCutoff
		inExpr := e.exprScores[g] >= e.m.ExprCutoff
		if inSeq {
			seqn++
		}
		if inExpr {
			expn++
		}
		if inSeq && inExpr {
			isect++
		}
	}
	po := stats.ProbOverlap(expn, seqn, isect, e.ngenes)
	if po > 0.99 {
		return 0
	}
	if po <= 0 {
		return math.MaxFloat64
	}
	return -math.Log10(po)
}
