// internal/writers/summary.go
package writers

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"motifsampler/internal/jsonutil"
	"motifsampler/pkg/api"
)

func init() {
	RegisterSummary("json", func(w io.Writer, s api.RunSummaryV1) error {
		return jsonutil.EncodePretty(w, s)
	})
	RegisterSummary("text", writeSummaryText)
	// jsonl streams attempts as they finish; its summary is the one JSON line.
	RegisterSummary("jsonl", func(w io.Writer, s api.RunSummaryV1) error {
		return jsonutil.EncodeLine(w, s)
	})
}

func writeSummaryText(w io.Writer, s api.RunSummaryV1) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# run %s (version %s, %s mode)\n", s.RunID, s.Version, s.Mode)
	fmt.Fprintf(tw, "# %d sequences, %d attempts, %d motifs stored\n", s.Sequences, s.Attempts, s.Stored)
	codes := make([]string, 0, len(s.Statuses))
	for k := range s.Statuses {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	for _, k := range codes {
		fmt.Fprintf(tw, "# %s\t%d\n", k, s.Statuses[k])
	}
	fmt.Fprintln(tw, "rank\tconsensus\tsites\tseqs\tspec\tmap\tvisits\tworker.iter")
	for i, m := range s.Motifs {
		seqs := make(map[int]bool)
		for _, st := range m.Sites {
			seqs[st.Seq] = true
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.3f\t%.3f\t%d\t%d.%d\n",
			i+1, m.Consensus, len(m.Sites), len(seqs), m.Spec, m.Map, m.Visits, m.Worker, m.Iter)
	}
	return tw.Flush()
}
