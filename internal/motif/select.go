package motif

// SelectSites caches forward-coordinate window starts that scored above a
// relaxed threshold so later passes can skip a full rescan.
type SelectSites struct {
	sites []Site
}

// Add records a candidate window start.
func (ss *SelectSites) Add(seq, pos int) {
	ss.sites = append(ss.sites, Site{Seq: seq, Pos: pos, Watson: true})
}

// Len is the number of cached candidates.
func (ss *SelectSites) Len() int { return len(ss.sites) }

// At returns candidate i.
func (ss *SelectSites) At(i int) Site { return ss.sites[i] }

// Clear drops every candidate.
func (ss *SelectSites) Clear() { ss.sites = ss.sites[:0] }

// Shift moves every candidate by d, following a change of the motif
// window's left edge (see Motif.AddColumn and Motif.RemoveColumn).
func (ss *SelectSites) Shift(d int) {
	if d == 0 {
		return
	}
	for i := range ss.sites {
		ss.sites[i].Pos += d
	}
}
