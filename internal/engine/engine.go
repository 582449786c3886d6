// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"

	"motifsampler/internal/motif"
	"motifsampler/internal/seqset"
)

// Checker vets a candidate against previously found motifs. CheckMotif
// returns false when an equivalent motif that scores at least as well is
// already known.
type Checker interface {
	CheckMotif(m *motif.Motif) bool
}

// Data is the search-space evidence aligned to corpus order. Expression
// mode reads Expr (one profile per sequence); subset mode reads Subset.
type Data struct {
	Expr   [][]float64
	Subset []bool
}

// Result is the outcome of one attempt. Motif is the final motif on
// Success and the last working motif otherwise (nil when seeding failed).
type Result struct {
	Status     Status
	Motif      *motif.Motif
	Seed       uint64
	Iterations int
	Phase      int
	Entropy    float64
}

var ErrData = errors.New("search data does not match corpus")

type rank struct {
	id    int
	score float64
}

// Engine holds per-corpus state reused across attempts. It is not safe for
// concurrent use; run one Engine per goroutine.
type Engine struct {
	p      Params
	corpus *seqset.Corpus
	data   Data
	check  Checker
	log    *log.Logger
	rng    *rand.Rand
	seed   uint64

	ngenes    int
	possible  []bool
	npossible int

	m      *motif.Motif
	sel    motif.SelectSites
	scorer *motif.Scorer

	mean       []float64
	meanSet    bool
	seqScores  []float64
	bestPos    []int
	seqRanks   []rank
	exprScores []float64
	exprRanks  []rank

	// column sampling scratch
	logw   []float64
	weight []float64
	valid  []bool
	freq   []int
}

// New validates p against the corpus and data and returns an engine. A nil
// checker disables archive lookups; a nil logger discards status lines.
func New(c *seqset.Corpus, d Data, check Checker, p Params, logger *log.Logger) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := c.NumSeqs()
	switch p.Mode {
	case ModeExpression:
		if len(d.Expr) != n {
			return nil, fmt.Errorf("%w: %d profiles for %d sequences", ErrData, len(d.Expr), n)
		}
		for i, row := range d.Expr {
			if len(row) == 0 || len(row) != len(d.Expr[0]) {
				return nil, fmt.Errorf("%w: profile %d has %d points", ErrData, i, len(row))
			}
		}
	case ModeSubset:
		if len(d.Subset) != n {
			return nil, fmt.Errorf("%w: %d subset flags for %d sequences", ErrData, len(d.Subset), n)
		}
	}
	p.Finalize(c.GC())
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	seed := uint64(p.Seed)
	if p.Seed < 0 {
		seed = rand.Uint64()
	}
	e := &Engine{
		p:          p,
		corpus:     c,
		data:       d,
		check:      check,
		log:        logger,
		rng:        rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)),
		seed:       seed,
		ngenes:     n,
		possible:   make([]bool, n),
		scorer:     motif.NewScorer(c.Background(), p.Pseudo),
		seqScores:  make([]float64, n),
		bestPos:    make([]int, n),
		seqRanks:   make([]rank, n),
		exprScores: make([]float64, n),
		exprRanks:  make([]rank, n),
	}
	if p.Mode == ModeExpression {
		e.mean = make([]float64, len(d.Expr[0]))
	}
	return e, nil
}

// Params returns the finalized parameters.
func (e *Engine) Params() Params { return e.p }

// Seed is the RNG seed actually used.
func (e *Engine) Seed() uint64 { return e.seed }

// Search runs one attempt. worker and iter are recorded on the motif. The
// only error is ctx's, returned when the attempt is abandoned mid-way.
func (e *Engine) Search(ctx context.Context, worker, iter int) (Result, error) {
	p := &e.p
	e.m = motif.New(e.corpus, p.NumCols, p.MaxWidth())
	e.m.Worker, e.m.Iter, e.m.Seed = worker, iter, e.seed
	e.sel.Clear()
	e.meanSet = false
	res := Result{Seed: e.seed}

	if p.Mode == ModeSubset {
		e.setSubsetSpace()
	} else {
		e.setAllPossible()
	}
	e.seedRandomSite()
	if e.m.SeqsWithSites() < 1 {
		res.Status = BadSeed
		return res, nil
	}
	if st := e.initialSearchSpace(); st != Success {
		res.Status, res.Motif = st, e.m
		return res, nil
	}

	phase := 0
	e.computeSeqScores()
	e.computeExprScores()
	e.setSeqCutoff(phase)
	e.m.Spec = e.specScore()
	e.m.Map = e.mapScore()
	e.printStatus(0, phase)

	best := e.m.Clone()
	final := p.FinalPhase()
	phase = 1
	iWorse := 0
	maxSites := p.MaxSiteFraction * float64(e.ngenes)

	i := 1
	for ; i < p.MaxIterations && phase < final; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e.updateSearchSpace()
		if iWorse > 0 && e.sel.Len() > 0 {
			e.singlePassSelect(e.m.SeqCutoff, false)
		} else {
			e.singlePass(e.m.SeqCutoff, false)
		}
		if e.m.NumSites() > 0 {
			for k := 0; k < 3; k++ {
				if !e.columnSample() {
					break
				}
			}
		}
		e.computeSeqScoresMinimal()
		e.computeExprScores()
		e.m.Spec = e.specScore()
		e.m.Map = e.mapScore()
		e.printStatus(i, phase)

		if float64(e.m.SeqsWithSites()) > maxSites {
			res.Status, res.Motif, res.Iterations, res.Phase = TooManySites, e.m, i, phase
			return res, nil
		}
		// Collapse below two sites: give up as TOO_FEW_SITES once the
		// next phase is the last, else escalate and restart from best.
		if e.m.NumSites() < 2 {
			if phase >= final-1 {
				res.Status, res.Motif, res.Iterations, res.Phase = TooFewSites, e.m, i, phase
				return res, nil
			}
			phase++
			e.reload(best, phase)
			iWorse = 0
			continue
		}
		if improved(e.m, best) {
			if e.check != nil && !e.check.CheckMotif(e.m) {
				res.Status, res.Motif, res.Iterations, res.Phase = TooSimilar, e.m, i, phase
				return res, nil
			}
			best = e.m.Clone()
			iWorse = 0
			continue
		}
		iWorse++
		if iWorse > p.MinPass*phase {
			phase++
			e.reload(best, phase)
			iWorse = 0
		}
	}
	res.Iterations, res.Phase = i, phase

	e.singlePass(e.m.SeqCutoff, true)
	e.m.Orient()
	e.computeSeqScores()
	e.computeExprScores()
	e.m.Spec = e.specScore()
	e.m.Map = e.mapScore()
	res.Entropy = e.entropyScore()
	res.Motif = e.m
	if err := e.m.Validate(); err != nil {
		panic(err)
	}
	e.printStatus(i, phase)

	switch {
	case e.m.SeqsWithSites() < p.MinSize:
		res.Status = TooFewSites
	case float64(e.m.SeqsWithSites()) > maxSites:
		res.Status = TooManySites
	case e.check != nil && !e.check.CheckMotif(e.m):
		res.Status = TooSimilar
	default:
		res.Status = Success
	}
	return res, nil
}

// improved orders candidates by specificity, then by MAP score.
func improved(m, best *motif.Motif) bool {
	if m.Spec != best.Spec {
		return m.Spec > best.Spec
	}
	return m.Map > best.Map
}

// reload restarts from the best motif with the floors of the new phase.
func (e *Engine) reload(best *motif.Motif, phase int) {
	e.m = best.Clone()
	e.sel.Clear()
	e.computeSeqScores()
	e.computeExprScores()
	e.setSeqCutoff(phase)
	e.setExprCutoff()
	e.updateSearchSpace()
}

func (e *Engine) printStatus(i, phase int) {
	m := e.m
	e.log.Printf("%5d %d %5.2f %7.4f %4d %4d %5d %-30s %9.4f %11.4f",
		i, phase, m.ExprCutoff, m.SeqCutoff, m.NumSites(), m.SeqsWithSites(),
		e.npossible, m.Consensus(), m.Spec, m.Map)
}
