package archive

import (
	"bytes"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"motifsampler/internal/motif"
	"motifsampler/internal/seqset"
)

const planted = "TGACGCAGTC"

func plantedCorpus(t *testing.T) *seqset.Corpus {
	t.Helper()
	r := rand.New(rand.NewPCG(42, 43))
	seqs := make([]string, 20)
	for i := range seqs {
		b := make([]byte, 60)
		for j := range b {
			b[j] = "ACGT"[r.IntN(4)]
		}
		if i < 15 {
			copy(b[plantedAt(i):], planted)
		}
		seqs[i] = string(b)
	}
	c, err := seqset.New(nil, seqs, 3)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func plantedAt(i int) int { return 5 + (i*7)%40 }

func plantedMotif(c *seqset.Corpus, n int) *motif.Motif {
	m := motif.New(c, len(planted), 3*len(planted))
	for i := 0; i < n; i++ {
		m.AddSite(i, plantedAt(i), true)
	}
	return m
}

func testConfig() Config {
	return Config{
		Pseudo:    [4]float64{0.25, 0.25, 0.25, 0.25},
		SimCutoff: 6,
		Overlap:   2,
	}
}

func TestCompareIsSymmetric(t *testing.T) {
	c := plantedCorpus(t)
	a := plantedMotif(c, 12)
	b := motif.New(c, 8, 24)
	r := rand.New(rand.NewPCG(7, 8))
	for g := 0; g < 20; g++ {
		b.AddSite(g, r.IntN(50), r.IntN(2) == 0)
	}
	sa := motif.NewScorer(c.Background(), testConfig().Pseudo)
	sb := motif.NewScorer(c.Background(), testConfig().Pseudo)
	s1, t1 := Compare(sa, sb, a, b, 2, 6)
	s2, t2 := Compare(sa, sb, b, a, 2, 6)
	if s1 != s2 || math.Abs(t1-t2) > 1e-9 {
		t.Fatalf("asymmetric: %v/%v vs %v/%v", s1, t1, s2, t2)
	}
}

func TestCompareIdenticalIsSimilar(t *testing.T) {
	c := plantedCorpus(t)
	a := plantedMotif(c, 12)
	sa := motif.NewScorer(c.Background(), testConfig().Pseudo)
	sb := motif.NewScorer(c.Background(), testConfig().Pseudo)
	if ok, tt := Compare(sa, sb, a, a.Clone(), 2, 6); !ok {
		t.Fatalf("identical motifs not similar (t=%v)", tt)
	}
}

func TestCompareTooFewPairs(t *testing.T) {
	c := plantedCorpus(t)
	a := plantedMotif(c, 1)
	b := motif.New(c, 6, 18)
	b.AddSite(19, 30, true)
	sa := motif.NewScorer(c.Background(), testConfig().Pseudo)
	sb := motif.NewScorer(c.Background(), testConfig().Pseudo)
	if ok, tt := Compare(sa, sb, a, b, 2, 6); ok || tt != 0 {
		t.Fatalf("two pairs judged similar: t=%v", tt)
	}
}

func TestDuplicateIsRejected(t *testing.T) {
	c := plantedCorpus(t)
	a := New(c, testConfig())
	m := plantedMotif(c, 12)
	m.Spec, m.Map = 4, -100
	if !a.ConsiderMotif(m) {
		t.Fatal("first motif rejected")
	}
	dup := m.Clone()
	if a.CheckMotif(dup) {
		t.Fatal("CheckMotif accepted an equal-scoring duplicate")
	}
	if a.ConsiderMotif(dup) {
		t.Fatal("duplicate stored")
	}
	if a.Len() != 1 || a.Entries()[0].Visits != 2 {
		t.Fatalf("len %d visits %d", a.Len(), a.Entries()[0].Visits)
	}

	better := m.Clone()
	better.Map = -50
	if !a.CheckMotif(better) {
		t.Fatal("better-scoring duplicate blocked")
	}
	if !a.ConsiderMotif(better) || a.Len() != 1 {
		t.Fatalf("better motif did not replace: len %d", a.Len())
	}
	if got := a.Best(0); got.Map != -50 || a.Entries()[0].Visits != 3 {
		t.Fatalf("best map %v visits %d", got.Map, a.Entries()[0].Visits)
	}
	if a.Best(1) != nil {
		t.Fatal("Best past the end")
	}
}

func TestDissimilarIsAppended(t *testing.T) {
	c := plantedCorpus(t)
	a := New(c, testConfig())
	x := plantedMotif(c, 1)
	y := motif.New(c, 6, 18)
	y.AddSite(19, 30, true)
	y.Spec = 1
	if !a.ConsiderMotif(x) || !a.ConsiderMotif(y) || a.Len() != 2 {
		t.Fatalf("len %d", a.Len())
	}
	if a.Best(0).Spec != 1 {
		t.Fatal("entries not ordered best-first")
	}
	a.Clear()
	if a.Len() != 0 {
		t.Fatal("clear")
	}
}

func TestReportedHonorsMinVisits(t *testing.T) {
	c := plantedCorpus(t)
	cfg := testConfig()
	cfg.MinVisits = 2
	a := New(c, cfg)
	m := plantedMotif(c, 12)
	m.Spec = 3
	a.ConsiderMotif(m)
	if len(a.Reported()) != 0 {
		t.Fatal("single visit reported")
	}
	a.ConsiderMotif(m.Clone())
	if len(a.Reported()) != 1 {
		t.Fatal("second visit not reported")
	}
}

func TestReportedHonorsMinSpec(t *testing.T) {
	tests := []struct {
		spec float64
		want int
	}{
		{0, 0},
		{0.5, 0},
		{1, 0},
		{1.01, 1},
		{4, 1},
	}
	for _, tt := range tests {
		c := plantedCorpus(t)
		cfg := testConfig()
		cfg.MinSpec = 1
		a := New(c, cfg)
		m := plantedMotif(c, 12)
		m.Spec = tt.spec
		if !a.ConsiderMotif(m) {
			t.Fatalf("spec %v: motif not stored", tt.spec)
		}
		if got := len(a.Reported()); got != tt.want {
			t.Fatalf("spec %v: %d reported, want %d", tt.spec, got, tt.want)
		}
		if a.Len() != 1 {
			t.Fatalf("spec %v: archive holds %d", tt.spec, a.Len())
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	c := plantedCorpus(t)
	a := New(c, testConfig())
	m := plantedMotif(c, 12)
	m.Spec = 2.5
	a.ConsiderMotif(m)
	a.ConsiderMotif(m.Clone())

	var buf bytes.Buffer
	if err := a.Write(&buf, "run-1"); err != nil {
		t.Fatal(err)
	}
	b := New(c, testConfig())
	if err := b.Read(&buf); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 1 {
		t.Fatalf("len %d", b.Len())
	}
	e := b.Entries()[0]
	if e.Visits != 2 || e.Motif.Spec != 2.5 || e.Motif.NumSites() != 12 {
		t.Fatalf("entry %+v", e)
	}
}

func TestConsiderFile(t *testing.T) {
	c := plantedCorpus(t)
	m := plantedMotif(c, 12)
	path := filepath.Join(t.TempDir(), "0.1.mot")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := motif.Write(f, m); err != nil {
		t.Fatal(err)
	}
	f.Close()

	a := New(c, testConfig())
	ok, err := a.ConsiderFile(path)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if _, err := a.ConsiderFile(filepath.Join(t.TempDir(), "missing.mot")); err == nil {
		t.Fatal("missing file accepted")
	}
}
