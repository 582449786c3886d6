// pkg/api/motif_v1.go
package api

// SiteV1 is one motif site. Strand is "+" or "-".
type SiteV1 struct {
	Seq    int    `json:"seq"`
	Name   string `json:"name,omitempty"`
	Pos    int    `json:"pos"`
	Strand string `json:"strand"`
	Text   string `json:"text,omitempty"`
}

// MotifV1 is the stable on-disk schema for an accepted motif.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type MotifV1 struct {
	ID         string   `json:"id,omitempty"`
	RunID      string   `json:"run_id,omitempty"`
	Worker     int      `json:"worker"`
	Iter       int      `json:"iter"`
	Seed       uint64   `json:"seed"`
	Width      int      `json:"width"`
	MaxWidth   int      `json:"max_width"`
	Columns    []int    `json:"columns"`
	Consensus  string   `json:"consensus,omitempty"`
	Sites      []SiteV1 `json:"sites"`
	Freq       [][4]int `json:"freq"`
	Spec       float64  `json:"spec"`
	Map        float64  `json:"map"`
	SeqCutoff  float64  `json:"seq_cutoff"`
	ExprCutoff float64  `json:"expr_cutoff"`
	Visits     int      `json:"visits,omitempty"`
}

// ArchiveV1 is the schema of a saved archive.
type ArchiveV1 struct {
	RunID     string    `json:"run_id,omitempty"`
	SimCutoff float64   `json:"sim_cutoff"`
	MinVisits int       `json:"min_visits"`
	MinSpec   float64   `json:"min_spec"`
	Motifs    []MotifV1 `json:"motifs"`
}
