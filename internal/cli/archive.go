// internal/cli/archive.go
package cli

import (
	"errors"

	"gopkg.in/alecthomas/kingpin.v2"

	"motifsampler/internal/engine"
)

// ArchiveOptions holds motifarchive flags.
type ArchiveOptions struct {
	Sequences string
	Records   []string
	Out       string
	Params    engine.Params
	MinVisits int
	MinSpec   float64
	Output    string
	Quiet     bool
	Version   bool
}

// ParseArchiveArgs registers motifarchive flags on app and parses argv.
func ParseArchiveArgs(app *kingpin.Application, argv []string) (ArchiveOptions, error) {
	opt := ArchiveOptions{Params: engine.Defaults()}
	p := &opt.Params

	app.Flag("sequences", "the FASTA the records were found in").Short('s').StringVar(&opt.Sequences)
	app.Flag("out", "write the rebuilt archive here ('-' = stdout)").Short('o').StringVar(&opt.Out)
	app.Flag("expect", "expected sites (sets the pseudocounts)").Default("10").IntVar(&p.Expect)
	app.Flag("psfact", "pseudocount factor").Default("0.1").Float64Var(&p.PsFact)
	app.Flag("bgorder", "background Markov order (0-3)").Default("3").IntVar(&p.BgOrder)
	app.Flag("simcutoff", "similarity t-statistic cutoff").Default("6").Float64Var(&p.SimCutoff)
	app.Flag("overlap", "window overlap when aligning two motifs").Default("2").IntVar(&p.Overlap)
	app.Flag("min-visits", "only report motifs found at least this often").Default("1").IntVar(&opt.MinVisits)
	app.Flag("min-spec", "only report motifs whose specificity score exceeds this").Default("1").Float64Var(&opt.MinSpec)
	app.Flag("output", "summary format: text | json").Default(OutputText).EnumVar(&opt.Output, OutputText, OutputJSON)
	app.Flag("quiet", "suppress WARN messages").Short('q').BoolVar(&opt.Quiet)
	app.Flag("version", "print version and exit").Short('v').BoolVar(&opt.Version)
	app.Arg("records", "motif record files (.mot)").StringsVar(&opt.Records)

	if err := parse(app, argv); err != nil {
		return opt, err
	}
	if opt.Version {
		return opt, nil
	}
	switch {
	case opt.Sequences == "":
		return opt, errors.New("--sequences is required")
	case len(opt.Records) == 0:
		return opt, errors.New("at least one record file is required")
	case opt.MinVisits < 0:
		return opt, errors.New("--min-visits must be >= 0")
	}
	return opt, p.Validate()
}
