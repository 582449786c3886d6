package motif

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"motifsampler/internal/seqset"
)

func mustCorpus(t *testing.T, seqs ...string) *seqset.Corpus {
	t.Helper()
	c, err := seqset.New(nil, seqs, 3)
	if err != nil {
		t.Fatalf("corpus: %v", err)
	}
	return c
}

func randomCorpus(t *testing.T, seed uint64, n, l int) *seqset.Corpus {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, seed^0x9e37))
	seqs := make([]string, n)
	for i := range seqs {
		b := make([]byte, l)
		for j := range b {
			b[j] = "ACGT"[r.IntN(4)]
		}
		seqs[i] = string(b)
	}
	return mustCorpus(t, seqs...)
}

func TestAddSiteRejectsOverlap(t *testing.T) {
	c := mustCorpus(t, "ACGTACGTACGTACGTACGT", "TTTTTTTTTTTTTTTT")
	m := New(c, 4, 12)
	if !m.AddSite(0, 0, true) {
		t.Fatal("first site rejected")
	}
	for _, p := range []int{1, 2, 3} {
		if m.AddSite(0, p, false) {
			t.Fatalf("overlapping site at %d accepted", p)
		}
	}
	if !m.AddSite(0, 4, false) {
		t.Fatal("adjacent site rejected")
	}
	if m.AddSite(0, 17, true) {
		t.Fatal("site past sequence end accepted")
	}
	if !m.AddSite(1, 3, true) {
		t.Fatal("site on other sequence rejected")
	}
	if m.NumSites() != 3 || m.SeqsWithSites() != 2 {
		t.Fatalf("sites=%d seqs=%d", m.NumSites(), m.SeqsWithSites())
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	m.RemoveAllSites()
	if m.NumSites() != 0 || m.SeqsWithSites() != 0 || m.HasSiteOn(0) {
		t.Fatal("RemoveAllSites left state behind")
	}
}

func TestRandomSiteAdditionNeverOverlaps(t *testing.T) {
	c := randomCorpus(t, 7, 5, 80)
	r := rand.New(rand.NewPCG(3, 4))
	m := New(c, 6, 18)
	for i := 0; i < 500; i++ {
		m.AddSite(r.IntN(5), r.IntN(80), r.IntN(2) == 0)
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestFreqMatrixReadsMinusStrandComplement(t *testing.T) {
	c := mustCorpus(t, "AACGTT", "GGGGCA")
	m := New(c, 3, 9)
	m.AddSite(0, 1, true)  // ACG
	m.AddSite(1, 3, false) // GCA on minus: TGC
	got := m.CalcFreqMatrix(nil)
	want := []int{
		1, 0, 0, 1, // A, T
		0, 1, 1, 0, // C, G
		0, 1, 1, 0, // G, C
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("freq %v want %v", got, want)
	}
}

func TestScoreMatrixPseudocounts(t *testing.T) {
	c := mustCorpus(t, "ACGTACGT")
	m := New(c, 2, 4)
	m.AddSite(0, 0, true)
	pseudo := [4]float64{0.25, 0.25, 0.25, 0.25}
	sm := m.CalcScoreMatrix(m.CalcFreqMatrix(nil), nil, pseudo)
	if math.Abs(sm[0]-math.Log(1.25/2)) > 1e-12 || math.Abs(sm[1]-math.Log(0.25/2)) > 1e-12 {
		t.Fatalf("score matrix %v", sm)
	}
	for i := 0; i < len(sm); i += 4 {
		sum := 0.0
		for b := 0; b < 4; b++ {
			sum += math.Exp(sm[i+b])
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Fatalf("column %d probabilities sum to %v", i/4, sum)
		}
	}
}

func TestScorerIsLikelihoodRatio(t *testing.T) {
	c := randomCorpus(t, 11, 3, 40)
	m := New(c, 5, 15)
	m.AddSite(0, 3, true)
	m.AddSite(1, 10, false)
	sc := NewScorer(c.Background(), [4]float64{0.3, 0.2, 0.2, 0.3})
	sc.Calc(m)
	sm := sc.Matrix()
	for _, watson := range []bool{true, false} {
		want := 0.0
		for i := 0; i < 5; i++ {
			p, b := 7+i, int(c.Base(2, 7+i))
			if !watson {
				p = 7 + 4 - i
				b = 3 - int(c.Base(2, p))
			}
			want += sm[4*i+b] - c.BgScore(2, p, watson)
		}
		if got := sc.LogOdds(2, 7, watson); math.Abs(got-want) > 1e-9 {
			t.Fatalf("watson=%v logodds %v want %v", watson, got, want)
		}
		if got := sc.ScoreSite(2, 7, watson); math.Abs(got-math.Exp(want)) > 1e-9*math.Exp(want) {
			t.Fatalf("watson=%v ratio %v want %v", watson, got, math.Exp(want))
		}
	}
}

func TestColumnSwapKeepsCountAndFrequencies(t *testing.T) {
	c := randomCorpus(t, 5, 6, 60)
	m := New(c, 4, 12)
	m.AddSite(0, 20, true)
	m.AddSite(1, 25, false)
	m.AddSite(2, 30, true)
	left, right := m.ColumnsOpen(4, 4)
	if left != 4 || right != 4 {
		t.Fatalf("open window %d,%d", left, right)
	}

	// Content of offset -2 before the swap must equal column 0 after it.
	var before [4]int
	if !m.ColumnFreq(-2, &before) {
		t.Fatal("column -2 unavailable")
	}
	n := m.NumCols()
	shift := m.AddColumn(-2)
	if shift != -2 || m.Width() != 6 {
		t.Fatalf("shift %d width %d", shift, m.Width())
	}
	m.RemoveColumn(3 + 2)
	if m.NumCols() != n {
		t.Fatalf("column count %d -> %d", n, m.NumCols())
	}
	if m.Width() != 5 {
		t.Fatalf("width after dropping right edge = %d", m.Width())
	}
	freq := m.CalcFreqMatrix(nil)
	if !reflect.DeepEqual(freq[0:4], before[:]) {
		t.Fatalf("new first column %v want %v", freq[0:4], before)
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestColumnsOpenClampsToSequenceRoom(t *testing.T) {
	c := mustCorpus(t, "ACGTACGTACGTACGT")
	m := New(c, 4, 20)
	m.AddSite(0, 1, true)
	left, right := m.ColumnsOpen(8, 12)
	if left != 1 || right != 11 {
		t.Fatalf("open %d,%d want 1,11", left, right)
	}
	var f [4]int
	if m.ColumnFreq(-2, &f) {
		t.Fatal("offset -2 should be closed")
	}
	if !m.ColumnFreq(-1, &f) || f[0] != 1 {
		t.Fatalf("offset -1: %v", f)
	}
}

func TestColumnsOpenKeepsSameSequenceSitesApart(t *testing.T) {
	tests := []struct {
		name      string
		sites     []Site
		wantLeft  int
		wantRight int
	}{
		{"adjacent", []Site{{0, 10, true}, {0, 16, true}}, 0, 0},
		{"same strand slack", []Site{{0, 10, true}, {0, 20, true}}, 3, 3},
		{"opposite strands", []Site{{0, 10, true}, {0, 20, false}}, 2, 2},
		{"other sequence", []Site{{0, 10, true}, {1, 16, true}}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := randomCorpus(t, 11, 2, 60)
			m := New(c, 6, 18)
			for _, s := range tt.sites {
				if !m.AddSite(s.Seq, s.Pos, s.Watson) {
					t.Fatalf("site %+v rejected", s)
				}
			}
			left, right := m.ColumnsOpen(3, 3)
			if left != tt.wantLeft || right != tt.wantRight {
				t.Fatalf("open %d,%d want %d,%d", left, right, tt.wantLeft, tt.wantRight)
			}
			var f [4]int
			for off := -left; off < m.Width()+right; off++ {
				if off >= 0 && off < m.Width() {
					continue
				}
				if !m.ColumnFreq(off, &f) {
					t.Fatalf("offset %d unavailable", off)
				}
				w := m.Clone()
				w.AddColumn(off)
				w.RemoveColumn(w.Columns()[2])
				if err := w.Validate(); err != nil {
					t.Fatalf("swap %d: %v", off, err)
				}
			}
			if m.ColumnFreq(m.Width()+right, &f) {
				t.Fatalf("offset %d should be closed", m.Width()+right)
			}
		})
	}
}

func TestRemoveFirstColumnShiftsForwardSites(t *testing.T) {
	c := mustCorpus(t, "ACGTACGTACGT", "ACGTACGTACGT")
	m := New(c, 4, 8)
	m.AddSite(0, 2, true)
	m.AddSite(1, 2, false)
	m.ColumnsOpen(2, 2)
	m.AddColumn(5) // width 6, reverse site moves left by 2
	if s := m.Sites()[1]; s.Pos != 0 {
		t.Fatalf("reverse site at %d want 0", s.Pos)
	}
	if d := m.RemoveColumn(0); d != 1 {
		t.Fatalf("shift %d want 1", d)
	}
	if s := m.Sites()[0]; s.Pos != 3 {
		t.Fatalf("forward site at %d want 3", s.Pos)
	}
	if !reflect.DeepEqual(m.Columns(), []int{0, 1, 2, 4}) {
		t.Fatalf("columns %v", m.Columns())
	}
}

func TestInvariantPanics(t *testing.T) {
	c := mustCorpus(t, "ACGTACGT")
	m := New(c, 2, 4)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvariant) {
			t.Fatalf("want ErrInvariant panic, got %v", r)
		}
	}()
	m.AddColumn(1)
}

func TestOrientIsDeterministic(t *testing.T) {
	c := randomCorpus(t, 9, 6, 50)
	m := New(c, 5, 15)
	m.AddSite(0, 5, false)
	m.AddSite(1, 9, false)
	m.AddSite(2, 12, true)
	want := m.Consensus()

	m.Orient()
	plus := 0
	for _, s := range m.Sites() {
		if s.Watson {
			plus++
		}
	}
	if plus != 2 {
		t.Fatalf("orient left %d plus sites", plus)
	}
	if got := m.Consensus(); len(got) != len(want) {
		t.Fatalf("consensus width changed: %s vs %s", got, want)
	}
	again := m.Clone()
	again.Orient()
	if !reflect.DeepEqual(again.Sites(), m.Sites()) {
		t.Fatal("orient is not idempotent")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	c := randomCorpus(t, 13, 8, 70)
	m := New(c, 6, 18)
	m.AddSite(0, 3, true)
	m.AddSite(2, 40, false)
	m.AddSite(5, 11, true)
	m.ColumnsOpen(3, 3)
	m.AddColumn(7)
	m.RemoveColumn(2)
	m.Spec, m.Map, m.SeqCutoff, m.ExprCutoff = 3.5, -12.25, 0.2, 0.65

	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf, c)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.CalcFreqMatrix(nil), m.CalcFreqMatrix(nil)) {
		t.Fatal("frequency matrix differs after round trip")
	}
	if !reflect.DeepEqual(got.Columns(), m.Columns()) || got.Width() != m.Width() {
		t.Fatalf("columns %v/%d want %v/%d", got.Columns(), got.Width(), m.Columns(), m.Width())
	}
	if got.Spec != m.Spec || got.Map != m.Map {
		t.Fatal("scores lost")
	}
}

func TestFromRecordRejectsForeignSites(t *testing.T) {
	c := mustCorpus(t, "ACGTACGT")
	m := New(c, 3, 9)
	m.AddSite(0, 0, true)
	rec := ToRecord(m)
	rec.Sites[0].Name = "nope"
	if _, err := FromRecord(c, rec); !errors.Is(err, ErrBadRecord) {
		t.Fatalf("want ErrBadRecord, got %v", err)
	}
}

func TestSelectSitesShift(t *testing.T) {
	var ss SelectSites
	ss.Add(0, 10)
	ss.Add(1, 4)
	ss.Shift(-2)
	if ss.At(0).Pos != 8 || ss.At(1).Pos != 2 || ss.Len() != 2 {
		t.Fatalf("shifted %+v %+v", ss.At(0), ss.At(1))
	}
	ss.Clear()
	if ss.Len() != 0 {
		t.Fatal("clear")
	}
}
