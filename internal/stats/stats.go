// internal/stats/stats.go
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/combin"
)

// Corr is the Pearson correlation of x and y.
// Two constant vectors are perfectly correlated (same shape); a constant
// vector against a varying one is uncorrelated.
func Corr(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	cx, cy := isConstant(x), isConstant(y)
	switch {
	case cx && cy:
		return 1
	case cx || cy:
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

// Gammaln is the natural log of |Γ(x)|.
func Gammaln(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// LnBico is log(n choose k). Out-of-range arguments yield 0 (one way).
func LnBico(n, k int) float64 {
	if n < 0 || k < 0 || k > n {
		return 0
	}
	return combin.LogGeneralizedBinomial(float64(n), float64(k))
}

// Bico is n choose k as a float, 1 for out-of-range arguments.
func Bico(n, k int) float64 {
	if n < 0 || k < 0 || k > n {
		return 1
	}
	return math.Floor(0.5 + math.Exp(LnBico(n, k)))
}

// ProbOverlap returns the hypergeometric upper tail P(X >= isect) for the
// overlap of a set of size n1 and a set of size n2 drawn from total items.
func ProbOverlap(n1, n2, isect, total int) float64 {
	if total <= 0 || isect <= 0 {
		return 1
	}
	if n1 > total {
		n1 = total
	}
	if n2 > total {
		n2 = total
	}
	hi := n1
	if n2 < hi {
		hi = n2
	}
	if isect > hi {
		return 0
	}
	denom := LnBico(total, n2)
	p := 0.0
	for i := isect; i <= hi; i++ {
		if n2-i > total-n1 {
			continue
		}
		p += math.Exp(LnBico(n1, i) + LnBico(total-n1, n2-i) - denom)
	}
	if p > 1 {
		p = 1
	}
	return p
}
