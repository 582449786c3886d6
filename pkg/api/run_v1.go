// pkg/api/run_v1.go
package api

// AttemptV1 is one search attempt as streamed by --output jsonl.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type AttemptV1 struct {
	RunID      string  `json:"run_id"`
	Worker     int     `json:"worker"`
	Iter       int     `json:"iter"`
	Seed       uint64  `json:"seed"`
	Status     string  `json:"status"`
	Iterations int     `json:"iterations"`
	Phase      int     `json:"phase"`
	Stored     bool    `json:"stored"`
	Consensus  string  `json:"consensus,omitempty"`
	NumSites   int     `json:"num_sites,omitempty"`
	Spec       float64 `json:"spec,omitempty"`
	Map        float64 `json:"map,omitempty"`
	Entropy    float64 `json:"entropy,omitempty"`
	File       string  `json:"file,omitempty"`
}

// RunSummaryV1 is the end-of-run report.
type RunSummaryV1 struct {
	RunID     string         `json:"run_id"`
	Version   string         `json:"version"`
	Mode      string         `json:"mode"`
	Sequences int            `json:"sequences"`
	Attempts  int            `json:"attempts"`
	Statuses  map[string]int `json:"statuses"`
	Stored    int            `json:"stored"`
	Archive   string         `json:"archive,omitempty"`
	Motifs    []MotifV1      `json:"motifs"`
}
