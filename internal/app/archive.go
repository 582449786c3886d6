// internal/app/archive.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"motifsampler/internal/archive"
	"motifsampler/internal/cli"
	"motifsampler/internal/cmdutil"
	"motifsampler/internal/version"
	"motifsampler/internal/writers"
	"motifsampler/pkg/api"
)

// RunArchiveContext rebuilds an archive from motif record files written by
// earlier runs over the same sequences. Exit codes follow RunContext; 1
// means no record could be archived.
func RunArchiveContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	app := cli.NewApp("motifarchive", "Merge motif records into one archive of distinct motifs.", outw)
	if len(argv) == 0 {
		argv = []string{"--help"}
	}
	opts, err := cli.ParseArchiveArgs(app, argv)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return flushOut(outw, stderr, exitOK)
		}
		fmt.Fprintf(stderr, "error: %v (try --help)\n", err)
		return exitUsage
	}
	if opts.Version {
		fmt.Fprintf(outw, "motifarchive version %s\n", version.Version)
		return flushOut(outw, stderr, exitOK)
	}

	p := opts.Params
	c, err := loadCorpus(ctx, opts.Sequences, p.BgOrder)
	if err != nil {
		return inputError(stderr, err)
	}
	p.Finalize(c.GC())
	arc := archive.New(c, archive.Config{
		Pseudo:    p.Pseudo,
		SimCutoff: p.SimCutoff,
		Overlap:   p.Overlap,
		MinVisits: opts.MinVisits,
		MinSpec:   opts.MinSpec,
	})

	stored, skipped := 0, 0
	for _, path := range opts.Records {
		if err := ctx.Err(); err != nil {
			return exitCanceled
		}
		ok, err := arc.ConsiderFile(path)
		if err != nil {
			cmdutil.Warnf(stderr, opts.Quiet, "skipping %v", err)
			skipped++
			continue
		}
		if ok {
			stored++
		}
	}

	runID := uuid.NewString()
	if opts.Out != "" {
		var werr error
		if opts.Out == "-" {
			werr = arc.Write(outw, runID)
		} else {
			werr = writers.WriteFileAtomic(opts.Out, func(w io.Writer) error { return arc.Write(w, runID) })
		}
		if werr != nil && !writers.IsBrokenPipe(werr) {
			fmt.Fprintln(stderr, werr)
			return exitIO
		}
	}
	if opts.Out != "-" {
		summary := api.RunSummaryV1{
			RunID:     runID,
			Version:   version.Version,
			Mode:      "archive",
			Sequences: c.NumSeqs(),
			Attempts:  len(opts.Records),
			Statuses: map[string]int{
				"STORED":     stored,
				"REJECTED":   len(opts.Records) - stored - skipped,
				"UNREADABLE": skipped,
			},
			Stored:  arc.Len(),
			Archive: opts.Out,
			Motifs:  entryRecords(runID, arc.Reported()),
		}
		if err := writers.DropBrokenPipe(writers.WriteSummary(opts.Output, outw, summary)); err != nil {
			fmt.Fprintln(stderr, err)
			return exitIO
		}
	}
	if arc.Len() == 0 {
		return flushOut(outw, stderr, exitNoMotif)
	}
	return flushOut(outw, stderr, exitOK)
}

// RunArchive is RunArchiveContext without cancellation.
func RunArchive(argv []string, stdout, stderr io.Writer) int {
	return RunArchiveContext(context.Background(), argv, stdout, stderr)
}
