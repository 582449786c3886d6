// internal/app/common.go
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"motifsampler/internal/archive"
	"motifsampler/internal/fasta"
	"motifsampler/internal/motif"
	"motifsampler/internal/seqset"
	"motifsampler/internal/writers"
	"motifsampler/pkg/api"
)

// Exit codes shared by the commands.
const (
	exitOK       = 0
	exitNoMotif  = 1
	exitUsage    = 2
	exitIO       = 3
	exitCanceled = 130
)

// flushOut flushes outw and maps the result to an exit code.
func flushOut(outw *bufio.Writer, stderr io.Writer, code int) int {
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return code
	} else if e != nil {
		fmt.Fprintln(stderr, e)
		return exitIO
	}
	return code
}

// loadCorpus reads the FASTA at path and encodes it with a background of
// the given order.
func loadCorpus(ctx context.Context, path string, order int) (*seqset.Corpus, error) {
	recs, err := fasta.ReadAll(ctx, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(recs))
	seqs := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.ID
		seqs[i] = string(r.Seq)
	}
	c, err := seqset.New(names, seqs, order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// entryRecords converts archive entries to wire records.
func entryRecords(runID string, es []archive.Entry) []api.MotifV1 {
	out := make([]api.MotifV1, 0, len(es))
	for _, e := range es {
		rec := motif.ToRecord(e.Motif)
		rec.RunID = runID
		rec.Visits = e.Visits
		out = append(out, rec)
	}
	return out
}
