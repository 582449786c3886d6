// internal/engine/sample.go
package engine

import "sort"

// seedRandomSite places one site at a random position of a random
// candidate sequence, retrying up to SeedTries times.
func (e *Engine) seedRandomSite() {
	e.m.RemoveAllSites()
	if e.npossible < 1 {
		return
	}
	w := e.m.Width()
	for try := 0; try < e.p.SeedTries; try++ {
		g := e.nthPossible(e.rng.IntN(e.npossible))
		room := e.corpus.Len(g) - w
		if room < 1 {
			continue
		}
		pos := e.rng.IntN(room)
		watson := e.rng.Float64() > 0.5
		if e.m.IsOpenSite(g, pos) && e.m.AddSite(g, pos, watson) {
			return
		}
	}
}

func (e *Engine) nthPossible(k int) int {
	for g, ok := range e.possible {
		if !ok {
			continue
		}
		if k == 0 {
			return g
		}
		k--
	}
	return -1
}

// priorOdds is the prior site probability per strand and position.
func (e *Engine) priorOdds() float64 {
	avail := e.m.PositionsAvailable(e.possible)
	if avail == 0 {
		return 0
	}
	w := e.p.Weight
	return (w*float64(e.npossible) + (1-w)*float64(e.m.NumSites())) / (2 * float64(avail))
}

// posterior turns a likelihood ratio into a site probability.
func posterior(L, ap float64) float64 {
	if L > 1e300 {
		return 1
	}
	return L * ap / (1 - ap + L*ap)
}

// siteProb scores both strands at (g, j) and returns the per-strand
// posteriors and their union.
func (e *Engine) siteProb(g, j int, ap float64) (pw, pc, f float64) {
	pw = posterior(e.scorer.ScoreSite(g, j, true), ap)
	pc = posterior(e.scorer.ScoreSite(g, j, false), ap)
	return pw, pc, pw + pc - pw*pc
}

// singlePass rebuilds the site set from a full scan of the search space.
// Stochastic passes keep a window with probability equal to its posterior;
// greedy passes keep every window at or above seqcut. Windows above
// seqcut/5 are cached for singlePassSelect.
func (e *Engine) singlePass(seqcut float64, greedy bool) {
	ap := e.priorOdds()
	e.scorer.Calc(e.m)
	e.m.RemoveAllSites()
	e.sel.Clear()
	w := e.scorer.Width()
	for g := 0; g < e.ngenes; g++ {
		if !e.possible[g] {
			continue
		}
		gadd, jadd := false, 0
		for j := 0; j < e.corpus.Len(g)-w; j++ {
			if gadd && j < jadd+w {
				continue
			}
			pw, pc, f := e.siteProb(g, j, ap)
			if f > seqcut/5 {
				e.sel.Add(g, j)
			}
			if f < seqcut {
				continue
			}
			if !greedy && e.rng.Float64() > f {
				continue
			}
			if e.m.AddSite(g, j, pw > pc) {
				gadd, jadd = true, j
			}
		}
	}
}

// singlePassSelect is singlePass restricted to the cached candidates.
func (e *Engine) singlePassSelect(seqcut float64, greedy bool) {
	ap := e.priorOdds()
	e.scorer.Calc(e.m)
	e.m.RemoveAllSites()
	w := e.scorer.Width()
	for i := 0; i < e.sel.Len(); i++ {
		s := e.sel.At(i)
		if !e.possible[s.Seq] || s.Pos < 0 || s.Pos+w > e.corpus.Len(s.Seq) {
			continue
		}
		pw, pc, f := e.siteProb(s.Seq, s.Pos, ap)
		if f < seqcut {
			continue
		}
		if !greedy && e.rng.Float64() > f {
			continue
		}
		e.m.AddSite(s.Seq, s.Pos, pw > pc)
	}
}

// computeSeqScores sets every sequence's score to its best window
// posterior and re-ranks.
func (e *Engine) computeSeqScores() {
	ap := e.priorOdds()
	e.scorer.Calc(e.m)
	w := e.scorer.Width()
	for g := 0; g < e.ngenes; g++ {
		best, at := 0.0, -1
		for j := 0; j < e.corpus.Len(g)-w; j++ {
			if _, _, f := e.siteProb(g, j, ap); f > best {
				best, at = f, j
			}
		}
		e.seqScores[g], e.bestPos[g] = best, at
	}
	e.rankSeqs()
}

// computeSeqScoresMinimal rescores only each sequence's previous best
// window and falls back to a full rescan when the top score drops to 0.85
// or below.
func (e *Engine) computeSeqScoresMinimal() {
	ap := e.priorOdds()
	e.scorer.Calc(e.m)
	w := e.scorer.Width()
	for g := 0; g < e.ngenes; g++ {
		j := e.bestPos[g]
		if j < 0 || j+w > e.corpus.Len(g) {
			e.seqScores[g] = 0
			continue
		}
		_, _, e.seqScores[g] = e.siteProb(g, j, ap)
	}
	e.rankSeqs()
	if e.seqRanks[0].score <= 0.85 {
		e.computeSeqScores()
	}
}

func (e *Engine) rankSeqs() { fillRanks(e.seqRanks, e.seqScores) }

func fillRanks(dst []rank, scores []float64) {
	for i, s := range scores {
		dst[i] = rank{id: i, score: s}
	}
	sort.SliceStable(dst, func(a, b int) bool { return dst[a].score > dst[b].score })
}

// shiftBestPos follows a change of the window's left edge.
func (e *Engine) shiftBestPos(d int) {
	if d == 0 {
		return
	}
	for g, j := range e.bestPos {
		if j >= 0 {
			e.bestPos[g] = j + d
		}
	}
}
