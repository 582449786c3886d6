// internal/seqset/background.go
package seqset

import "math"

// MaxOrder is the highest supported Markov order.
const MaxOrder = 3

// pseudoWeight is the total pseudocount mass added to every context.
const pseudoWeight = 10.0

// Background is a set of Markov chains of order 0..Order over the corpus.
// Chain k is a table of 4^(k+1) probabilities; entry ctx*4+b is
// P(b | ctx) where ctx is the k preceding bases read as a base-4 number.
type Background struct {
	Order  int
	chains [MaxOrder + 1][]float64
	corpus *Corpus
	wScore []float64 // forward strand log-likelihood per corpus position
	cScore []float64 // reverse strand log-likelihood per corpus position
}

func train(c *Corpus, order int) *Background {
	bg := &Background{Order: order, corpus: c}
	gc := c.gcAll
	bg.chains[0] = []float64{(1 - gc) / 2, gc / 2, gc / 2, (1 - gc) / 2}
	for k := 1; k <= order; k++ {
		bg.chains[k] = trainChain(c, k, gc)
	}
	bg.cache()
	return bg
}

func trainChain(c *Corpus, k int, gc float64) []float64 {
	n := 1 << (2 * (k + 1))
	t := make([]float64, n)
	at := pseudoWeight * (1 - gc) / 2
	cg := pseudoWeight * gc / 2
	for i := 0; i < n; i += 4 {
		t[i], t[i+1], t[i+2], t[i+3] = at, cg, cg, at
	}
	for _, s := range c.seqs {
		for j := k; j < len(s); j++ {
			idx := 0
			for x := j - k; x <= j; x++ {
				idx = idx<<2 | int(s[x])
			}
			t[idx]++
		}
		// Reverse strand: the mirrored k-mer of complements.
		for j := len(s) - 1 - k; j >= 0; j-- {
			idx := 0
			for x := j + k; x >= j; x-- {
				idx = idx<<2 | int(3-s[x])
			}
			t[idx]++
		}
	}
	for i := 0; i < n; i += 4 {
		tot := t[i] + t[i+1] + t[i+2] + t[i+3]
		for b := 0; b < 4; b++ {
			t[i+b] /= tot
		}
	}
	return t
}

// Prob returns P(b | ctx) under the chain of the given order.
func (bg *Background) Prob(order, ctx, b int) float64 {
	return bg.chains[order][ctx<<2|b]
}

// Chain returns a copy of the probability table of the given order.
func (bg *Background) Chain(order int) []float64 {
	return append([]float64(nil), bg.chains[order]...)
}

// OrderAt reports which chain scores (seq, pos) on the given strand:
// the configured order capped by the distance to the strand's start.
func (bg *Background) OrderAt(seq, pos int, watson bool) int {
	d := pos
	if !watson {
		d = bg.corpus.Len(seq) - 1 - pos
	}
	if d < bg.Order {
		return d
	}
	return bg.Order
}

func (bg *Background) logProb(s []uint8, pos int, watson bool, k int) float64 {
	idx := 0
	if watson {
		for x := pos - k; x <= pos; x++ {
			idx = idx<<2 | int(s[x])
		}
	} else {
		for x := pos + k; x >= pos; x-- {
			idx = idx<<2 | int(3-s[x])
		}
	}
	return math.Log(bg.chains[k][idx])
}

func (bg *Background) cache() {
	c := bg.corpus
	bg.wScore = make([]float64, c.total)
	bg.cScore = make([]float64, c.total)
	for i, s := range c.seqs {
		off := c.offset[i]
		for j := range s {
			bg.wScore[off+j] = bg.logProb(s, j, true, bg.OrderAt(i, j, true))
			bg.cScore[off+j] = bg.logProb(s, j, false, bg.OrderAt(i, j, false))
		}
	}
}

// Score is the natural log-probability of the base at (seq, pos) read on
// the given strand (the complement when !watson).
func (bg *Background) Score(seq, pos int, watson bool) float64 {
	if watson {
		return bg.wScore[bg.corpus.offset[seq]+pos]
	}
	return bg.cScore[bg.corpus.offset[seq]+pos]
}

// Freq returns the order-0 base frequencies.
func (bg *Background) Freq() [4]float64 {
	var f [4]float64
	copy(f[:], bg.chains[0])
	return f
}

// Corpus returns the sequences the model was trained on.
func (bg *Background) Corpus() *Corpus { return bg.corpus }
