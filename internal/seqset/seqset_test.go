package seqset

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func randomSeqs(r *rand.Rand, n, l int) []string {
	out := make([]string, n)
	for i := range out {
		b := make([]byte, l)
		for j := range b {
			b[j] = "ACGT"[r.IntN(4)]
		}
		out[i] = string(b)
	}
	return out
}

func TestNewEncodesAndCountsGC(t *testing.T) {
	c, err := New([]string{"a", "b"}, []string{"ACGT", "ggcc"}, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.NumSeqs() != 2 || c.Len(1) != 4 || c.TotalLen() != 8 {
		t.Fatalf("unexpected shape: n=%d len1=%d total=%d", c.NumSeqs(), c.Len(1), c.TotalLen())
	}
	if got := Decode(c.Seq(1)); got != "GGCC" {
		t.Errorf("lowercase not encoded: %s", got)
	}
	if c.SeqGC(0) != 0.5 || c.SeqGC(1) != 1 || c.GC() != 0.75 {
		t.Errorf("gc: %v %v %v", c.SeqGC(0), c.SeqGC(1), c.GC())
	}
	if c.Offset(1) != 4 || c.Index("b") != 1 || c.Index("zz") != -1 {
		t.Errorf("index/offset mismatch")
	}
}

func TestNewRejectsAmbiguousBases(t *testing.T) {
	_, err := New(nil, []string{"ACGNT"}, 3)
	if !errors.Is(err, ErrBadBase) {
		t.Fatalf("want ErrBadBase, got %v", err)
	}
	if _, err := New(nil, nil, 3); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
	if _, err := New(nil, []string{"ACGT"}, 4); err == nil {
		t.Fatalf("order 4 accepted")
	}
}

func TestChainsNormalized(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	c, err := New(nil, randomSeqs(r, 12, 150), 3)
	if err != nil {
		t.Fatal(err)
	}
	bg := c.Background()
	for k := 0; k <= 3; k++ {
		ch := bg.Chain(k)
		if len(ch) != 1<<(2*(k+1)) {
			t.Fatalf("order %d: table size %d", k, len(ch))
		}
		for i := 0; i < len(ch); i += 4 {
			sum := ch[i] + ch[i+1] + ch[i+2] + ch[i+3]
			if math.Abs(sum-1) > 1e-6 {
				t.Fatalf("order %d ctx %d sums to %v", k, i/4, sum)
			}
		}
	}
}

func TestOrderChosenByDistanceToStrandStart(t *testing.T) {
	c, err := New(nil, []string{"ACGTTGCAAC", "GATTACA"}, 3)
	if err != nil {
		t.Fatal(err)
	}
	bg := c.Background()
	for s := 0; s < c.NumSeqs(); s++ {
		n := c.Len(s)
		for p := 0; p < n; p++ {
			wantW := min(p, 3)
			wantC := min(n-1-p, 3)
			if got := bg.OrderAt(s, p, true); got != wantW {
				t.Errorf("seq %d pos %d watson order %d want %d", s, p, got, wantW)
			}
			if got := bg.OrderAt(s, p, false); got != wantC {
				t.Errorf("seq %d pos %d crick order %d want %d", s, p, got, wantC)
			}
		}
	}
}

func TestScoreMatchesChains(t *testing.T) {
	c, err := New(nil, []string{"ACGTTGCAAC"}, 3)
	if err != nil {
		t.Fatal(err)
	}
	bg := c.Background()
	s := c.Seq(0)
	// pos 5, forward, order 3: context s[2..4]
	ctx := int(s[2])<<4 | int(s[3])<<2 | int(s[4])
	if got, want := bg.Score(0, 5, true), math.Log(bg.Prob(3, ctx, int(s[5]))); math.Abs(got-want) > 1e-12 {
		t.Errorf("watson score %v want %v", got, want)
	}
	// pos 8 on the reverse strand has one base after it: order 1.
	ctx = int(3 - s[9])
	if got, want := bg.Score(0, 8, false), math.Log(bg.Prob(1, ctx, int(3-s[8]))); math.Abs(got-want) > 1e-12 {
		t.Errorf("crick score %v want %v", got, want)
	}
	// first base uses order 0.
	if got, want := bg.Score(0, 0, true), math.Log(bg.Freq()[s[0]]); math.Abs(got-want) > 1e-12 {
		t.Errorf("order-0 score %v want %v", got, want)
	}
}

func TestLowerOrderBackground(t *testing.T) {
	c, err := New(nil, []string{"ACGTTGCAAC"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Background().OrderAt(0, 6, true); got != 1 {
		t.Fatalf("order capped at 1, got %d", got)
	}
}
