// internal/seqset/corpus.go
package seqset

import (
	"errors"
	"fmt"
)

// ErrBadBase is returned for any symbol outside A/C/G/T (either case).
var ErrBadBase = errors.New("invalid nucleotide")

// ErrEmpty is returned when the corpus has no sequences.
var ErrEmpty = errors.New("empty sequence corpus")

// Corpus owns the encoded sequences (A=0 C=1 G=2 T=3) and the background
// model trained on them. It is immutable after New.
type Corpus struct {
	names  []string
	seqs   [][]uint8
	gc     []float64
	offset []int // start of each sequence in the concatenated index
	total  int
	gcAll  float64
	bg     *Background
}

var code = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i, c := range "ACGT" {
		t[c] = int8(i)
		t[c+'a'-'A'] = int8(i)
	}
	return t
}()

// New encodes raw sequences and trains a background model of the given
// order (0..3). names may be nil, in which case sequences are numbered.
func New(names []string, raw []string, order int) (*Corpus, error) {
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	if names != nil && len(names) != len(raw) {
		return nil, fmt.Errorf("seqset: %d names for %d sequences", len(names), len(raw))
	}
	if order < 0 || order > MaxOrder {
		return nil, fmt.Errorf("seqset: background order %d outside 0..%d", order, MaxOrder)
	}
	c := &Corpus{
		names:  make([]string, len(raw)),
		seqs:   make([][]uint8, len(raw)),
		gc:     make([]float64, len(raw)),
		offset: make([]int, len(raw)),
	}
	gcCount := 0
	for i, s := range raw {
		name := fmt.Sprintf("seq%d", i)
		if names != nil {
			name = names[i]
		}
		c.names[i] = name
		if len(s) == 0 {
			return nil, fmt.Errorf("seqset: %s: empty sequence", name)
		}
		enc := make([]uint8, len(s))
		n := 0
		for j := 0; j < len(s); j++ {
			b := code[s[j]]
			if b < 0 {
				return nil, fmt.Errorf("seqset: %s position %d %q: %w", name, j+1, s[j], ErrBadBase)
			}
			enc[j] = uint8(b)
			if b == 1 || b == 2 {
				n++
			}
		}
		c.seqs[i] = enc
		c.gc[i] = float64(n) / float64(len(s))
		c.offset[i] = c.total
		c.total += len(s)
		gcCount += n
	}
	c.gcAll = float64(gcCount) / float64(c.total)
	c.bg = train(c, order)
	return c, nil
}

// NumSeqs is the number of sequences.
func (c *Corpus) NumSeqs() int { return len(c.seqs) }

// Len is the length of sequence i.
func (c *Corpus) Len(i int) int { return len(c.seqs[i]) }

// Seq returns the encoded sequence i. Callers must not modify it.
func (c *Corpus) Seq(i int) []uint8 { return c.seqs[i] }

// Base returns the encoded base at (seq, pos).
func (c *Corpus) Base(seq, pos int) uint8 { return c.seqs[seq][pos] }

// Name returns the identifier of sequence i.
func (c *Corpus) Name(i int) string { return c.names[i] }

// Names returns all identifiers in corpus order.
func (c *Corpus) Names() []string { return append([]string(nil), c.names...) }

// Index returns the position of name in the corpus or -1.
func (c *Corpus) Index(name string) int {
	for i, n := range c.names {
		if n == name {
			return i
		}
	}
	return -1
}

// GC is the genome-wide G+C fraction.
func (c *Corpus) GC() float64 { return c.gcAll }

// SeqGC is the G+C fraction of sequence i.
func (c *Corpus) SeqGC(i int) float64 { return c.gc[i] }

// TotalLen is the summed length of all sequences.
func (c *Corpus) TotalLen() int { return c.total }

// Offset is the start of sequence i in the concatenated score index.
func (c *Corpus) Offset(i int) int { return c.offset[i] }

// Background returns the model trained at construction.
func (c *Corpus) Background() *Background { return c.bg }

// BgScore is shorthand for Background().Score.
func (c *Corpus) BgScore(seq, pos int, watson bool) float64 {
	return c.bg.Score(seq, pos, watson)
}

// Decode renders encoded bases back to A/C/G/T.
func Decode(enc []uint8) string {
	out := make([]byte, len(enc))
	for i, b := range enc {
		out[i] = "ACGT"[b&3]
	}
	return string(out)
}
