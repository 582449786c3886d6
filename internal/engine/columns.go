// internal/engine/columns.go
package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"motifsampler/internal/motif"
	"motifsampler/internal/stats"
)

// logWeightCeiling bounds the largest column log-weight before
// exponentiation.
const logWeightCeiling = 100.0

// columnSample weighs every addressable column offset by how far its
// base distribution departs from background, then applies the configured
// policy. It reports whether the active column set changed.
func (e *Engine) columnSample() bool {
	m := e.m
	if m.NumSites() == 0 {
		return false
	}
	w := m.Width()
	half := (m.MaxWidth() - w) / 2
	left, right := m.ColumnsOpen(half, half)
	span := left + w + right
	e.growColumnScratch(span)

	var freq [4]int
	for i := 0; i < span; i++ {
		if !m.ColumnFreq(i-left, &freq) {
			e.valid[i] = false
			continue
		}
		e.valid[i] = true
		lw := 0.0
		for b := 0; b < 4; b++ {
			f := float64(freq[b])
			lw += stats.Gammaln(f+e.p.Pseudo[b]) - f*math.Log(e.p.BackFreq[b])
		}
		e.logw[i] = lw
	}
	stabilizeLogWeights(e.logw, e.valid)

	nc := m.NumCols()
	worst, best := -1, -1
	for i := 0; i < span; i++ {
		if !e.valid[i] {
			continue
		}
		nw := w
		if i < left {
			nw += left - i
		} else if i >= left+w {
			nw += i - (left + w - 1)
		}
		e.weight[i] = math.Exp(e.logw[i]) / stats.Bico(nw-2, nc-2)
		if m.HasColumn(i - left) {
			if worst < 0 || e.weight[i] < e.weight[worst] {
				worst = i
			}
		} else if best < 0 || e.weight[i] > e.weight[best] {
			best = i
		}
	}
	if worst < 0 || best < 0 || e.weight[best] <= e.weight[worst] {
		return false
	}

	shift := 0
	switch e.p.ColumnPolicy {
	case ColumnSwap:
		shift = e.swapColumns(best-left, worst-left)
	case ColumnAdd:
		shift = m.AddColumn(best - left)
	case ColumnRemove:
		if nc <= 2 {
			return false
		}
		shift = m.RemoveColumn(worst - left)
	}
	e.sel.Shift(shift)
	e.shiftBestPos(shift)
	return true
}

// swapColumns activates offset add and deactivates offset drop, keeping
// the column count. It returns the net shift of forward window starts.
func (e *Engine) swapColumns(add, drop int) int {
	m := e.m
	n := m.NumCols()
	shift := m.AddColumn(add)
	if add < 0 {
		drop -= add
	}
	shift += m.RemoveColumn(drop)
	if m.NumCols() != n {
		panic(fmt.Errorf("%w: column swap changed count %d -> %d", motif.ErrInvariant, n, m.NumCols()))
	}
	return shift
}

// stabilizeLogWeights lowers every weight by the same amount when the
// largest valid one exceeds logWeightCeiling. Relative weights are kept.
func stabilizeLogWeights(logw []float64, valid []bool) {
	top := math.Inf(-1)
	for i, v := range logw {
		if valid[i] && v > top {
			top = v
		}
	}
	if top > logWeightCeiling {
		floats.AddConst(-(top - logWeightCeiling), logw)
	}
}

func (e *Engine) growColumnScratch(n int) {
	if cap(e.logw) < n {
		e.logw = make([]float64, n)
		e.weight = make([]float64, n)
		e.valid = make([]bool, n)
	}
	e.logw, e.weight, e.valid = e.logw[:n], e.weight[:n], e.valid[:n]
}
