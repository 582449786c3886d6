// internal/motif/record.go
package motif

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"motifsampler/internal/jsonutil"
	"motifsampler/internal/seqset"
	"motifsampler/pkg/api"
)

// ErrBadRecord is returned when a record does not fit the corpus.
var ErrBadRecord = errors.New("bad motif record")

// ToRecord serializes m.
func ToRecord(m *Motif) api.MotifV1 {
	freq := m.CalcFreqMatrix(nil)
	rec := api.MotifV1{
		ID:         m.ID,
		Worker:     m.Worker,
		Iter:       m.Iter,
		Seed:       m.Seed,
		Width:      m.width,
		MaxWidth:   m.maxWidth,
		Columns:    m.Columns(),
		Consensus:  m.Consensus(),
		Sites:      make([]api.SiteV1, 0, len(m.sites)),
		Freq:       make([][4]int, len(m.columns)),
		Spec:       m.Spec,
		Map:        m.Map,
		SeqCutoff:  m.SeqCutoff,
		ExprCutoff: m.ExprCutoff,
	}
	for i := range rec.Freq {
		copy(rec.Freq[i][:], freq[4*i:4*i+4])
	}
	for _, s := range m.sites {
		strand := "+"
		if !s.Watson {
			strand = "-"
		}
		rec.Sites = append(rec.Sites, api.SiteV1{
			Seq:    s.Seq,
			Name:   m.corpus.Name(s.Seq),
			Pos:    s.Pos,
			Strand: strand,
			Text:   m.SiteString(s),
		})
	}
	return rec
}

// FromRecord rebuilds a motif over c. Site names, when present, take
// precedence over indices so records survive corpus reordering.
func FromRecord(c *seqset.Corpus, rec api.MotifV1) (*Motif, error) {
	if len(rec.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrBadRecord)
	}
	cols := append([]int(nil), rec.Columns...)
	sort.Ints(cols)
	if cols[0] != 0 || cols[len(cols)-1] != rec.Width-1 {
		return nil, fmt.Errorf("%w: columns %v do not span width %d", ErrBadRecord, rec.Columns, rec.Width)
	}
	for i := 1; i < len(cols); i++ {
		if cols[i] == cols[i-1] {
			return nil, fmt.Errorf("%w: duplicate column %d", ErrBadRecord, cols[i])
		}
	}
	m := New(c, len(cols), rec.MaxWidth)
	m.columns = cols
	m.width = rec.Width
	if m.maxWidth < m.width {
		m.maxWidth = m.width
	}
	for _, s := range rec.Sites {
		seq := s.Seq
		if s.Name != "" {
			if seq = c.Index(s.Name); seq < 0 {
				return nil, fmt.Errorf("%w: unknown sequence %q", ErrBadRecord, s.Name)
			}
		}
		if !m.AddSite(seq, s.Pos, s.Strand != "-") {
			return nil, fmt.Errorf("%w: site %d/%d%s does not fit", ErrBadRecord, seq, s.Pos, s.Strand)
		}
	}
	m.ID, m.Worker, m.Iter, m.Seed = rec.ID, rec.Worker, rec.Iter, rec.Seed
	m.Spec, m.Map = rec.Spec, rec.Map
	m.SeqCutoff, m.ExprCutoff = rec.SeqCutoff, rec.ExprCutoff
	return m, nil
}

// Write encodes m as indented JSON.
func Write(w io.Writer, m *Motif) error {
	return jsonutil.EncodePretty(w, ToRecord(m))
}

// Read decodes one record from r and rebuilds it over c.
func Read(r io.Reader, c *seqset.Corpus) (*Motif, error) {
	var rec api.MotifV1
	if err := jsonutil.DecodeStrict(r, &rec, "motif"); err != nil {
		return nil, err
	}
	return FromRecord(c, rec)
}
