// internal/motif/motif.go
package motif

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"motifsampler/internal/seqset"
)

// ErrInvariant marks an internal consistency failure. It is raised with
// panic: it signals a logic defect, never a data condition.
var ErrInvariant = errors.New("motif invariant violated")

// Site is one occurrence of a motif: the window starts at Pos on sequence
// Seq and is read on the forward strand when Watson is set.
type Site struct {
	Seq    int
	Pos    int
	Watson bool
}

// Motif is a set of sites plus the subset of columns (offsets inside the
// window) that are scored. Column 0 is always active and the window width
// is the last active column + 1.
type Motif struct {
	corpus   *seqset.Corpus
	columns  []int
	width    int
	maxWidth int
	sites    []Site
	perSeq   []int
	nseqs    int

	openLeft, openRight int

	SeqCutoff  float64
	ExprCutoff float64
	Map        float64
	Spec       float64

	// Attempt bookkeeping carried into the serialized record.
	ID     string
	Worker int
	Iter   int
	Seed   uint64
}

// New returns an empty motif with ncols contiguous columns that may grow
// to maxWidth positions through column sampling.
func New(c *seqset.Corpus, ncols, maxWidth int) *Motif {
	if maxWidth < ncols {
		maxWidth = ncols
	}
	m := &Motif{
		corpus:   c,
		columns:  make([]int, ncols),
		width:    ncols,
		maxWidth: maxWidth,
		perSeq:   make([]int, c.NumSeqs()),
	}
	for i := range m.columns {
		m.columns[i] = i
	}
	return m
}

// Corpus returns the corpus the sites index into.
func (m *Motif) Corpus() *seqset.Corpus { return m.corpus }

// NumCols is the number of active columns.
func (m *Motif) NumCols() int { return len(m.columns) }

// Width is the span of the window, active or not.
func (m *Motif) Width() int { return m.width }

// MaxWidth bounds how far column sampling may extend the window.
func (m *Motif) MaxWidth() int { return m.maxWidth }

// Columns returns a copy of the active column offsets.
func (m *Motif) Columns() []int { return append([]int(nil), m.columns...) }

// HasColumn reports whether offset c is an active column.
func (m *Motif) HasColumn(c int) bool {
	i := sort.SearchInts(m.columns, c)
	return i < len(m.columns) && m.columns[i] == c
}

// Sites returns the current sites. The slice must not be modified.
func (m *Motif) Sites() []Site { return m.sites }

// NumSites is the total number of sites.
func (m *Motif) NumSites() int { return len(m.sites) }

// SeqsWithSites is the number of distinct sequences carrying a site.
func (m *Motif) SeqsWithSites() int { return m.nseqs }

// HasSiteOn reports whether sequence seq carries at least one site.
func (m *Motif) HasSiteOn(seq int) bool { return m.perSeq[seq] > 0 }

// IsOpenSite reports whether a site at (seq, pos) would keep every pair of
// sites on seq at least one width apart.
func (m *Motif) IsOpenSite(seq, pos int) bool {
	if m.perSeq[seq] == 0 {
		return true
	}
	for _, s := range m.sites {
		if s.Seq != seq {
			continue
		}
		d := s.Pos - pos
		if d < 0 {
			d = -d
		}
		if d < m.width {
			return false
		}
	}
	return true
}

// AddSite adds a site unless it falls outside the sequence or overlaps an
// existing site on the same sequence.
func (m *Motif) AddSite(seq, pos int, watson bool) bool {
	if seq < 0 || seq >= m.corpus.NumSeqs() {
		return false
	}
	if pos < 0 || pos+m.width > m.corpus.Len(seq) {
		return false
	}
	if !m.IsOpenSite(seq, pos) {
		return false
	}
	m.sites = append(m.sites, Site{Seq: seq, Pos: pos, Watson: watson})
	if m.perSeq[seq] == 0 {
		m.nseqs++
	}
	m.perSeq[seq]++
	return true
}

// RemoveAllSites drops every site but keeps columns and scores.
func (m *Motif) RemoveAllSites() {
	m.sites = m.sites[:0]
	for i := range m.perSeq {
		m.perSeq[i] = 0
	}
	m.nseqs = 0
}

// PositionsAvailable counts candidate window starts over the sequences
// flagged in possible (all sequences when possible is nil).
func (m *Motif) PositionsAvailable(possible []bool) int {
	n := 0
	for g := 0; g < m.corpus.NumSeqs(); g++ {
		if possible != nil && !possible[g] {
			continue
		}
		if p := m.corpus.Len(g) - m.width; p > 0 {
			n += p
		}
	}
	return n
}

// index maps column offset c of site s to a corpus coordinate and the base
// read there on the site's strand.
func (m *Motif) index(s Site, c int) (pos int, base int, ok bool) {
	if s.Watson {
		pos = s.Pos + c
	} else {
		pos = s.Pos + m.width - 1 - c
	}
	if pos < 0 || pos >= m.corpus.Len(s.Seq) {
		return pos, 0, false
	}
	b := int(m.corpus.Base(s.Seq, pos))
	if !s.Watson {
		b = 3 - b
	}
	return pos, b, true
}

// CalcFreqMatrix fills dst (resized to 4*NumCols) with per-column base
// counts over all sites, each read on its own strand.
func (m *Motif) CalcFreqMatrix(dst []int) []int {
	n := 4 * len(m.columns)
	if cap(dst) < n {
		dst = make([]int, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = 0
	}
	for _, s := range m.sites {
		for i, c := range m.columns {
			_, b, ok := m.index(s, c)
			if !ok {
				panic(fmt.Errorf("%w: site %+v column %d outside sequence", ErrInvariant, s, c))
			}
			dst[4*i+b]++
		}
	}
	return dst
}

// CalcScoreMatrix fills dst (resized to 4*NumCols) with the log-likelihood
// log((count+pseudo[b]) / (nsites+sum(pseudo))) of every base per column.
func (m *Motif) CalcScoreMatrix(freq []int, dst []float64, pseudo [4]float64) []float64 {
	n := 4 * len(m.columns)
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	tot := float64(len(m.sites)) + pseudo[0] + pseudo[1] + pseudo[2] + pseudo[3]
	for i := 0; i < n; i += 4 {
		for b := 0; b < 4; b++ {
			dst[i+b] = math.Log((float64(freq[i+b]) + pseudo[b]) / tot)
		}
	}
	return dst
}

// ColumnsOpen makes offsets in [-left, width+right) addressable by
// ColumnFreq, clamping both sides so that every site keeps room on its
// strand and no widening can make two sites on one sequence overlap.
// The clamped values are returned.
func (m *Motif) ColumnsOpen(maxLeft, maxRight int) (int, int) {
	left, right := maxLeft, maxRight
	if room := m.maxWidth - m.width; left > room {
		left = room
	}
	if room := m.maxWidth - m.width; right > room {
		right = room
	}
	for _, s := range m.sites {
		l := m.corpus.Len(s.Seq)
		var roomL, roomR int
		if s.Watson {
			roomL, roomR = s.Pos, l-(s.Pos+m.width)
		} else {
			roomL, roomR = l-(s.Pos+m.width), s.Pos
		}
		if roomL < left {
			left = roomL
		}
		if roomR < right {
			right = roomR
		}
	}
	if slack, ok := m.siteSlack(); ok {
		left, right = min(left, slack), min(right, slack)
	}
	m.openLeft, m.openRight = max(left, 0), max(right, 0)
	return m.openLeft, m.openRight
}

// siteSlack is how far the window may grow on one side before two sites
// on the same sequence overlap. Opposite-strand pairs move toward each
// other on a one-sided widening, so their slack is halved. It reports
// false when no sequence carries two sites.
func (m *Motif) siteSlack() (int, bool) {
	slack, found := 0, false
	for i, a := range m.sites {
		if m.perSeq[a.Seq] < 2 {
			continue
		}
		for _, b := range m.sites[i+1:] {
			if b.Seq != a.Seq {
				continue
			}
			d := a.Pos - b.Pos
			if d < 0 {
				d = -d
			}
			d -= m.width
			if a.Watson != b.Watson {
				d /= 2
			}
			if !found || d < slack {
				slack, found = d, true
			}
		}
	}
	return slack, found
}

// ColumnFreq counts bases at offset c across all sites. It reports false
// when c is outside the open window or off the end of some sequence.
func (m *Motif) ColumnFreq(c int, freq *[4]int) bool {
	*freq = [4]int{}
	if c < -m.openLeft || c >= m.width+m.openRight {
		return false
	}
	for _, s := range m.sites {
		_, b, ok := m.index(s, c)
		if !ok {
			return false
		}
		freq[b]++
	}
	return true
}

// AddColumn activates offset c. Offsets left of the window (c < 0) extend
// it and renumber every column. The return value is the shift applied to
// forward-strand window starts.
func (m *Motif) AddColumn(c int) int {
	if m.HasColumn(c) {
		panic(fmt.Errorf("%w: column %d already active", ErrInvariant, c))
	}
	switch {
	case c < 0:
		d := -c
		for i := range m.columns {
			m.columns[i] += d
		}
		m.columns = append([]int{0}, m.columns...)
		m.width += d
		for i := range m.sites {
			if m.sites[i].Watson {
				m.sites[i].Pos -= d
			}
		}
		m.openLeft -= d
		return -d
	case c >= m.width:
		d := c - m.width + 1
		m.columns = append(m.columns, c)
		m.width = c + 1
		for i := range m.sites {
			if !m.sites[i].Watson {
				m.sites[i].Pos -= d
			}
		}
		m.openRight -= d
		return 0
	default:
		i := sort.SearchInts(m.columns, c)
		m.columns = append(m.columns, 0)
		copy(m.columns[i+1:], m.columns[i:])
		m.columns[i] = c
		return 0
	}
}

// RemoveColumn deactivates offset c. Dropping an edge column shrinks the
// window to the next active column. The return value is the shift applied
// to forward-strand window starts.
func (m *Motif) RemoveColumn(c int) int {
	i := sort.SearchInts(m.columns, c)
	if i == len(m.columns) || m.columns[i] != c {
		panic(fmt.Errorf("%w: column %d not active", ErrInvariant, c))
	}
	if len(m.columns) == 1 {
		panic(fmt.Errorf("%w: cannot remove the last column", ErrInvariant))
	}
	m.columns = append(m.columns[:i], m.columns[i+1:]...)
	switch {
	case i == 0:
		d := m.columns[0]
		for j := range m.columns {
			m.columns[j] -= d
		}
		m.width -= d
		for j := range m.sites {
			if m.sites[j].Watson {
				m.sites[j].Pos += d
			}
		}
		m.openLeft += d
		return d
	case i == len(m.columns):
		nw := m.columns[len(m.columns)-1] + 1
		d := m.width - nw
		m.width = nw
		for j := range m.sites {
			if !m.sites[j].Watson {
				m.sites[j].Pos += d
			}
		}
		m.openRight += d
		return 0
	}
	return 0
}

// Orient puts the motif in a canonical orientation: it is mirrored when
// minus-strand sites outnumber plus-strand ones, and on a tie when the
// mirrored consensus sorts first.
func (m *Motif) Orient() {
	plus := 0
	for _, s := range m.sites {
		if s.Watson {
			plus++
		}
	}
	minus := len(m.sites) - plus
	flip := minus > plus
	if minus == plus && len(m.sites) > 0 {
		fwd := m.Consensus()
		m.flip()
		rev := m.Consensus()
		m.flip()
		flip = rev < fwd
	}
	if flip {
		m.flip()
	}
}

func (m *Motif) flip() {
	n := len(m.columns)
	cols := make([]int, n)
	for i, c := range m.columns {
		cols[n-1-i] = m.width - 1 - c
	}
	m.columns = cols
	for i := range m.sites {
		m.sites[i].Watson = !m.sites[i].Watson
	}
	m.openLeft, m.openRight = m.openRight, m.openLeft
}

// Consensus renders the window: the majority base per active column
// (upper case when it covers at least half of the sites, 'n' otherwise)
// and '-' for inactive columns.
func (m *Motif) Consensus() string {
	if len(m.sites) == 0 {
		return ""
	}
	var sb strings.Builder
	freq := m.CalcFreqMatrix(nil)
	ci := 0
	for off := 0; off < m.width; off++ {
		if ci >= len(m.columns) || m.columns[ci] != off {
			sb.WriteByte('-')
			continue
		}
		best, bi := -1, 0
		for b := 0; b < 4; b++ {
			if f := freq[4*ci+b]; f > best {
				best, bi = f, b
			}
		}
		if 2*best >= len(m.sites) {
			sb.WriteByte("ACGT"[bi])
		} else {
			sb.WriteByte('n')
		}
		ci++
	}
	return sb.String()
}

// SiteString returns the window of site s on its own strand, upper case
// for active columns and lower case for inactive ones.
func (m *Motif) SiteString(s Site) string {
	out := make([]byte, m.width)
	ci := 0
	for off := 0; off < m.width; off++ {
		_, b, ok := m.index(s, off)
		ch := byte('N')
		if ok {
			ch = "ACGT"[b]
		}
		if ci < len(m.columns) && m.columns[ci] == off {
			ci++
		} else {
			ch += 'a' - 'A'
		}
		out[off] = ch
	}
	return string(out)
}

// Validate checks site bounds and self-overlap.
func (m *Motif) Validate() error {
	last := make(map[int][]int)
	for _, s := range m.sites {
		if s.Pos < 0 || s.Pos+m.width > m.corpus.Len(s.Seq) {
			return fmt.Errorf("%w: site %+v outside sequence of length %d (width %d)", ErrInvariant, s, m.corpus.Len(s.Seq), m.width)
		}
		for _, p := range last[s.Seq] {
			d := p - s.Pos
			if d < 0 {
				d = -d
			}
			if d < m.width {
				return fmt.Errorf("%w: sites at %d and %d on sequence %d overlap", ErrInvariant, p, s.Pos, s.Seq)
			}
		}
		last[s.Seq] = append(last[s.Seq], s.Pos)
	}
	return nil
}

// Clone returns a deep copy sharing only the corpus.
func (m *Motif) Clone() *Motif {
	c := *m
	c.columns = append([]int(nil), m.columns...)
	c.sites = append([]Site(nil), m.sites...)
	c.perSeq = append([]int(nil), m.perSeq...)
	return &c
}
