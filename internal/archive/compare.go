// internal/archive/compare.go
package archive

import (
	"math"

	"motifsampler/internal/motif"
	"motifsampler/internal/stats"
)

// Compare scores every site of a and of b under both motifs and tests
// the paired scores for correlation. For each site the best log-odds is
// taken over window starts within the other motif's width less overlap
// on either side. It returns the t statistic r*sqrt(df/(1-r^2)) with
// df = n-2 and whether it reaches cutoff.
func Compare(sa, sb *motif.Scorer, a, b *motif.Motif, overlap int, cutoff float64) (bool, float64) {
	sa.Calc(a)
	sb.Calc(b)
	var xs, ys []float64
	pair := func(s motif.Site) {
		x, okx := bestNear(sa, a.Corpus().Len(s.Seq), s, sb.Width()-overlap)
		y, oky := bestNear(sb, b.Corpus().Len(s.Seq), s, sa.Width()-overlap)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	for _, s := range a.Sites() {
		pair(s)
	}
	for _, s := range b.Sites() {
		pair(s)
	}
	n := len(xs)
	if n < 3 {
		return false, 0
	}
	r := stats.Corr(xs, ys)
	if r >= 1 {
		return true, math.Inf(1)
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	return t >= cutoff, t
}

// bestNear is the best log-odds on either strand over window starts
// within win of s.Pos. It reports false when no window fits.
func bestNear(sc *motif.Scorer, seqLen int, s motif.Site, win int) (float64, bool) {
	if win < 0 {
		win = 0
	}
	lo := max(0, s.Pos-win)
	hi := min(seqLen-sc.Width(), s.Pos+win)
	best, ok := math.Inf(-1), false
	for i := lo; i <= hi; i++ {
		w := sc.LogOdds(s.Seq, i, true)
		c := sc.LogOdds(s.Seq, i, false)
		if v := math.Max(w, c); v > best {
			best, ok = v, true
		}
	}
	return best, ok
}
