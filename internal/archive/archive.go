// internal/archive/archive.go
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"motifsampler/internal/jsonutil"
	"motifsampler/internal/motif"
	"motifsampler/internal/seqset"
	"motifsampler/pkg/api"
)

// Config holds the similarity settings.
type Config struct {
	Pseudo    [4]float64 // per-base pseudocounts of the score matrices
	SimCutoff float64
	Overlap   int
	MinVisits int     // entries seen fewer times are left out of Reported
	MinSpec   float64 // Reported keeps only motifs with Spec above this
}

// Entry is an archived motif and how many attempts converged on it.
type Entry struct {
	Motif  *motif.Motif
	Visits int
}

// Archive is the set of accepted motifs, at most one per similarity
// class. It is safe for concurrent use.
type Archive struct {
	cfg    Config
	corpus *seqset.Corpus

	mu      sync.Mutex
	entries []Entry
	sa, sb  *motif.Scorer
}

// New returns an empty archive over c.
func New(c *seqset.Corpus, cfg Config) *Archive {
	return &Archive{
		cfg:    cfg,
		corpus: c,
		sa:     motif.NewScorer(c.Background(), cfg.Pseudo),
		sb:     motif.NewScorer(c.Background(), cfg.Pseudo),
	}
}

// outranks reports whether a scores strictly better than b.
func outranks(a, b *motif.Motif) bool {
	if a.Spec != b.Spec {
		return a.Spec > b.Spec
	}
	return a.Map > b.Map
}

func (a *Archive) similar(x, y *motif.Motif) bool {
	ok, _ := Compare(a.sa, a.sb, x, y, a.cfg.Overlap, a.cfg.SimCutoff)
	return ok
}

// CheckMotif reports whether m may still be pursued: false when some
// archived motif is similar and scores at least as well.
func (a *Archive) CheckMotif(m *motif.Motif) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		if a.similar(m, e.Motif) && !outranks(m, e.Motif) {
			return false
		}
	}
	return true
}

// ConsiderMotif offers m to the archive. A similar archived motif that
// scores at least as well absorbs m as a visit and m is rejected; a
// similar weaker one is replaced; otherwise m is appended. It reports
// whether m was stored.
func (a *Archive) ConsiderMotif(m *motif.Motif) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.considerLocked(m)
}

func (a *Archive) considerLocked(m *motif.Motif) bool {
	for i, e := range a.entries {
		if !a.similar(m, e.Motif) {
			continue
		}
		if !outranks(m, e.Motif) {
			a.entries[i].Visits++
			return false
		}
		a.entries[i] = Entry{Motif: m.Clone(), Visits: e.Visits + 1}
		return true
	}
	a.entries = append(a.entries, Entry{Motif: m.Clone(), Visits: 1})
	return true
}

// ConsiderFile reads a motif record from path and offers it.
func (a *Archive) ConsiderFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	m, err := motif.Read(f, a.corpus)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return a.ConsiderMotif(m), nil
}

// Len is the number of archived motifs.
func (a *Archive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Entries returns a best-first snapshot of the archive.
func (a *Archive) Entries() []Entry {
	a.mu.Lock()
	out := make([]Entry, len(a.entries))
	for i, e := range a.entries {
		out[i] = Entry{Motif: e.Motif.Clone(), Visits: e.Visits}
	}
	a.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return outranks(out[i].Motif, out[j].Motif) })
	return out
}

// Reported is Entries restricted to motifs visited at least MinVisits
// times whose specificity score exceeds MinSpec.
func (a *Archive) Reported() []Entry {
	all := a.Entries()
	out := all[:0]
	for _, e := range all {
		if e.Visits >= a.cfg.MinVisits && e.Motif.Spec > a.cfg.MinSpec {
			out = append(out, e)
		}
	}
	return out
}

// Best returns the i-th best motif, or nil when i is out of range.
func (a *Archive) Best(i int) *motif.Motif {
	all := a.Entries()
	if i < 0 || i >= len(all) {
		return nil
	}
	return all[i].Motif
}

// Clear empties the archive.
func (a *Archive) Clear() {
	a.mu.Lock()
	a.entries = nil
	a.mu.Unlock()
}

// Write saves the archive best-first.
func (a *Archive) Write(w io.Writer, runID string) error {
	rec := api.ArchiveV1{
		RunID:     runID,
		SimCutoff: a.cfg.SimCutoff,
		MinVisits: a.cfg.MinVisits,
		MinSpec:   a.cfg.MinSpec,
		Motifs:    []api.MotifV1{},
	}
	for _, e := range a.Entries() {
		m := motif.ToRecord(e.Motif)
		m.RunID = runID
		m.Visits = e.Visits
		rec.Motifs = append(rec.Motifs, m)
	}
	return jsonutil.EncodePretty(w, rec)
}

// ErrCorpus is returned when a saved archive does not fit the corpus.
var ErrCorpus = errors.New("archive does not match corpus")

// Read appends the motifs of a saved archive as-is, keeping their visit
// counts. It does not re-run the similarity test.
func (a *Archive) Read(r io.Reader) error {
	var rec api.ArchiveV1
	if err := jsonutil.DecodeStrict(r, &rec, "archive"); err != nil {
		return err
	}
	loaded := make([]Entry, 0, len(rec.Motifs))
	for i, mr := range rec.Motifs {
		m, err := motif.FromRecord(a.corpus, mr)
		if err != nil {
			return fmt.Errorf("%w: motif %d: %v", ErrCorpus, i, err)
		}
		v := mr.Visits
		if v < 1 {
			v = 1
		}
		loaded = append(loaded, Entry{Motif: m, Visits: v})
	}
	a.mu.Lock()
	a.entries = append(a.entries, loaded...)
	a.mu.Unlock()
	return nil
}
