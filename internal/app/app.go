// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"gopkg.in/cheggaaa/pb.v1"

	"motifsampler/internal/archive"
	"motifsampler/internal/cli"
	"motifsampler/internal/cmdutil"
	"motifsampler/internal/config"
	"motifsampler/internal/engine"
	"motifsampler/internal/expr"
	"motifsampler/internal/pipeline"
	"motifsampler/internal/seqset"
	"motifsampler/internal/store"
	"motifsampler/internal/version"
	"motifsampler/internal/writers"
	"motifsampler/pkg/api"
)

// ArchiveFile is the name of the archive written into --outdir.
const ArchiveFile = "archive.json"

// RunContext runs motifsampler over argv and returns the process exit code:
// 0 when at least one motif was stored, 1 when none was, 2 on usage or
// input errors, 3 on output errors and 130 when ctx was canceled.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	app := cli.NewApp("motifsampler", "Expression-guided Gibbs sampler for regulatory motifs.", outw)
	if len(argv) == 0 {
		argv = []string{"--help"}
	}
	opts, err := cli.ParseArgs(app, argv)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return flushOut(outw, stderr, exitOK)
		}
		fmt.Fprintf(stderr, "error: %v (try --help)\n", err)
		return exitUsage
	}
	if opts.Version {
		fmt.Fprintf(outw, "motifsampler version %s\n", version.Version)
		return flushOut(outw, stderr, exitOK)
	}
	logs := cmdutil.NewLoggers(stderr, opts.Quiet, opts.Verbose)

	if opts.Profile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(opts.Profile), profile.Quiet, profile.NoShutdownHook).Stop()
	}

	p := engine.Defaults()
	if err := config.Load(opts.Config, &p); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitUsage
	}
	opts.ApplyParams(&p)
	if err := p.Validate(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitUsage
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	c, err := loadCorpus(ctx, opts.Sequences, p.BgOrder)
	if err != nil {
		return inputError(stderr, err)
	}
	data, err := loadData(ctx, opts, p.Mode, c)
	if err != nil {
		return inputError(stderr, err)
	}

	fp := p
	fp.Finalize(c.GC())
	arc := archive.New(c, archive.Config{
		Pseudo:    fp.Pseudo,
		SimCutoff: p.SimCutoff,
		Overlap:   p.Overlap,
		MinVisits: 1,
		MinSpec:   1,
	})
	if opts.ArchiveIn != "" {
		if err := readArchive(arc, opts.ArchiveIn); err != nil {
			return inputError(stderr, err)
		}
		logs.Info.Printf("archive seeded with %d motifs from %s", arc.Len(), opts.ArchiveIn)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		fmt.Fprintln(stderr, err)
		return exitIO
	}

	runID := uuid.NewString()
	attempts := opts.Attempts
	if attempts == 0 {
		attempts = p.NumRuns(c.TotalLen())
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logs.Info.Printf("run %s: %d sequences (%d bp, GC %.3f), %d attempts on %d workers, %s mode",
		runID, c.NumSeqs(), c.TotalLen(), c.GC(), attempts, workers, p.Mode)

	summary := api.RunSummaryV1{
		RunID:     runID,
		Version:   version.Version,
		Mode:      string(p.Mode),
		Sequences: c.NumSeqs(),
		Attempts:  attempts,
		Statuses:  map[string]int{},
		Motifs:    []api.MotifV1{},
	}

	var db *store.Store
	if opts.DB != "" {
		db, err = store.Open(ctx, opts.DB)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitIO
		}
		defer db.Close()
		if err := db.BeginRun(ctx, summary); err != nil {
			fmt.Fprintln(stderr, err)
			return exitIO
		}
	}

	var (
		attCh  chan<- api.AttemptV1
		attErr <-chan error
	)
	if opts.Output == cli.OutputJSONL {
		attCh, attErr = writers.StartAttemptJSONLWriter(outw, workers*4)
	}

	var bar *pb.ProgressBar
	if f, ok := stderr.(*os.File); ok && !opts.Quiet && !opts.Verbose {
		bar = pb.New(attempts).Prefix("attempts ")
		bar.Output = f
		bar.ShowSpeed = false
		bar.Start()
	}

	newSearcher := func(worker, iter int) (pipeline.Searcher, error) {
		pp := p
		if p.Seed >= 0 {
			pp.Seed = p.Seed + int64(iter)
		}
		e, err := engine.New(c, data, arc, pp, logs.Status)
		if err != nil {
			return nil, err
		}
		return e, nil
	}

	visit := func(o pipeline.Outcome) error {
		res := o.Result
		att := api.AttemptV1{
			RunID:      runID,
			Worker:     o.Worker,
			Iter:       o.Iter,
			Seed:       res.Seed,
			Status:     res.Status.String(),
			Iterations: res.Iterations,
			Phase:      res.Phase,
		}
		summary.Statuses[att.Status]++
		if m := res.Motif; m != nil {
			att.Consensus, att.NumSites = m.Consensus(), m.NumSites()
			att.Spec, att.Map, att.Entropy = m.Spec, m.Map, res.Entropy
		}
		if res.Status == engine.Success {
			m := res.Motif
			m.ID = fmt.Sprintf("%d.%d", o.Worker, o.Iter)
			if arc.ConsiderMotif(m) {
				path, err := writers.WriteMotifFile(opts.OutDir, runID, m)
				if err != nil {
					return err
				}
				att.Stored, att.File = true, filepath.Base(path)
				summary.Stored++
				logs.Info.Printf("attempt %d: stored %s (spec %.3f, %d sites on %d sequences)",
					o.Iter, att.Consensus, m.Spec, m.NumSites(), m.SeqsWithSites())
			}
		}
		if db != nil {
			if err := db.AddAttempt(ctx, att); err != nil {
				return err
			}
		}
		if attCh != nil {
			attCh <- att
		}
		if bar != nil {
			bar.Increment()
		}
		return nil
	}

	perr := pipeline.ForEachAttempt(ctx, pipeline.Config{Workers: workers, Attempts: attempts}, newSearcher, visit)
	if bar != nil {
		bar.Finish()
	}
	if attCh != nil {
		close(attCh)
		if werr := <-attErr; werr != nil {
			fmt.Fprintln(stderr, werr)
			return exitIO
		}
	}
	canceled := errors.Is(perr, context.Canceled)
	if perr != nil && !canceled {
		fmt.Fprintln(stderr, "error:", perr)
		return exitIO
	}

	// Keep what was found so far even when interrupted.
	archivePath := filepath.Join(opts.OutDir, ArchiveFile)
	if err := writers.WriteFileAtomic(archivePath, func(w io.Writer) error { return arc.Write(w, runID) }); err != nil {
		fmt.Fprintln(stderr, err)
		return exitIO
	}
	summary.Archive = archivePath
	summary.Motifs = entryRecords(runID, arc.Reported())
	if db != nil {
		if err := db.FinishRun(context.WithoutCancel(ctx), summary); err != nil {
			fmt.Fprintln(stderr, err)
			return exitIO
		}
	}
	if err := writers.DropBrokenPipe(writers.WriteSummary(opts.Output, outw, summary)); err != nil {
		fmt.Fprintln(stderr, err)
		return exitIO
	}

	switch {
	case canceled:
		logs.Warn.Printf("interrupted; archive of %d motifs saved to %s", arc.Len(), archivePath)
		return flushOut(outw, stderr, exitCanceled)
	case summary.Stored == 0:
		logs.Warn.Printf("no motif found in %d attempts", attempts)
		return flushOut(outw, stderr, exitNoMotif)
	}
	return flushOut(outw, stderr, exitOK)
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func loadData(ctx context.Context, opts cli.Options, mode engine.Mode, c *seqset.Corpus) (engine.Data, error) {
	var d engine.Data
	if mode == engine.ModeSubset {
		sub, err := expr.ReadSubset(opts.Subset)
		if err != nil {
			return d, err
		}
		d.Subset, err = expr.Membership(sub, c.Names())
		if err != nil {
			return d, fmt.Errorf("%s: %w", opts.Subset, err)
		}
		return d, nil
	}
	mx, err := expr.ReadMatrix(ctx, opts.Expression)
	if err != nil {
		return d, err
	}
	d.Expr, err = mx.Align(c.Names())
	if err != nil {
		return d, fmt.Errorf("%s: %w", opts.Expression, err)
	}
	return d, nil
}

func readArchive(arc *archive.Archive, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := arc.Read(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// inputError reports a failure to load inputs.
func inputError(stderr io.Writer, err error) int {
	if errors.Is(err, context.Canceled) {
		return exitCanceled
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitUsage
}
