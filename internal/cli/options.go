// internal/cli/options.go
package cli

import (
	"errors"
	"fmt"

	"gopkg.in/alecthomas/kingpin.v2"

	"motifsampler/internal/engine"
)

// Output formats of the run summary.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputJSONL = "jsonl"
)

// Options holds all motifsampler flags.
type Options struct {
	// Input
	Sequences  string
	Expression string
	Subset     string
	Config     string
	ArchiveIn  string

	// Search parameters; only the ones in Set override the config file.
	Params engine.Params
	Set    map[string]bool

	// Run
	Attempts int
	Workers  int
	OutDir   string
	DB       string
	Profile  string

	// Output
	Output  string
	Quiet   bool
	Verbose bool

	Version bool
}

// ParseArgs registers all flags on app, parses argv and validates.
func ParseArgs(app *kingpin.Application, argv []string) (Options, error) {
	opt := Options{Params: engine.Defaults(), Set: make(map[string]bool)}
	p := &opt.Params

	app.Flag("sequences", "upstream sequences, FASTA (gzip or '-' for stdin)").Short('s').StringVar(&opt.Sequences)
	app.Flag("expr", "expression matrix, tab-separated with a header row").Short('e').StringVar(&opt.Expression)
	app.Flag("subset", "gene subset, one name per line (subset mode)").StringVar(&opt.Subset)
	app.Flag("config", "parameter file (yaml, json or toml)").StringVar(&opt.Config)
	app.Flag("archive-in", "seed the archive from a previous archive.json").StringVar(&opt.ArchiveIn)

	param := func(name, help string) *kingpin.FlagClause {
		return app.Flag(name, help).Action(func(*kingpin.ParseContext) error {
			opt.Set[name] = true
			return nil
		})
	}
	param("expect", "expected number of sites").Default("10").IntVar(&p.Expect)
	param("minpass", "non-improving iterations per phase").Default("50").IntVar(&p.MinPass)
	param("seed", "RNG seed (-1 = random)").Default("-1").Int64Var(&p.Seed)
	param("psfact", "pseudocount factor").Default("0.1").Float64Var(&p.PsFact)
	param("weight", "search space vs site weighting of the prior").Default("0.5").Float64Var(&p.Weight)
	param("minsize", "minimum sequences carrying a motif").Default("5").IntVar(&p.MinSize)
	param("mincorr", "lowest correlation for the initial search space").Default("0.4").Float64Var(&p.MinCorr)
	param("undersample", "attempt count divisor").Default("1").Float64Var(&p.Undersample)
	param("oversample", "attempt count multiplier").Default("1").Float64Var(&p.Oversample)
	param("numcols", "active motif columns").Short('n').Default("10").IntVar(&p.NumCols)
	param("bgorder", "background Markov order (0-3)").Default("3").IntVar(&p.BgOrder)
	param("simcutoff", "similarity t-statistic cutoff").Default("6").Float64Var(&p.SimCutoff)
	param("maxiterations", "iteration bound per attempt").Default("10000").IntVar(&p.MaxIterations)
	param("maxsitefraction", "restart when more genes than this fraction carry sites").Default("0.3333333333").Float64Var(&p.MaxSiteFraction)
	param("columnpolicy", "column move: swap | add | remove").Default(string(engine.ColumnSwap)).
		EnumVar((*string)(&p.ColumnPolicy), string(engine.ColumnSwap), string(engine.ColumnAdd), string(engine.ColumnRemove))

	app.Flag("attempts", "search attempts (0 = derived from corpus size)").Short('a').Default("0").IntVar(&opt.Attempts)
	app.Flag("workers", "concurrent attempts (0 = all CPUs)").Short('j').Default("0").IntVar(&opt.Workers)
	app.Flag("outdir", "directory for motif records and archive.json").Short('o').Default(".").StringVar(&opt.OutDir)
	app.Flag("db", "also record the run in this SQLite database").StringVar(&opt.DB)
	app.Flag("profile", "write a CPU profile into this directory").StringVar(&opt.Profile)

	app.Flag("output", "summary format: text | json | jsonl").Default(OutputText).
		EnumVar(&opt.Output, OutputText, OutputJSON, OutputJSONL)
	app.Flag("quiet", "suppress INFO and WARN messages").Short('q').BoolVar(&opt.Quiet)
	app.Flag("verbose", "print per-iteration status lines").BoolVar(&opt.Verbose)
	app.Flag("version", "print version and exit").Short('v').BoolVar(&opt.Version)

	if err := parse(app, argv); err != nil {
		return opt, err
	}
	if opt.Version {
		return opt, nil
	}

	// Validation
	switch {
	case opt.Sequences == "":
		return opt, errors.New("--sequences is required")
	case opt.Expression != "" && opt.Subset != "":
		return opt, errors.New("--expr conflicts with --subset")
	case opt.Expression == "" && opt.Subset == "":
		return opt, errors.New("provide --expr or --subset")
	case opt.Attempts < 0:
		return opt, errors.New("--attempts must be >= 0")
	case opt.Workers < 0:
		return opt, errors.New("--workers must be >= 0")
	}
	p.Mode = engine.ModeExpression
	if opt.Subset != "" {
		p.Mode = engine.ModeSubset
	}
	if err := p.Validate(); err != nil {
		return opt, fmt.Errorf("flags: %w", err)
	}
	return opt, nil
}

// ApplyParams copies the explicitly given parameter flags onto dst.
func (o *Options) ApplyParams(dst *engine.Params) {
	src := &o.Params
	for name := range o.Set {
		switch name {
		case "expect":
			dst.Expect = src.Expect
		case "minpass":
			dst.MinPass = src.MinPass
		case "seed":
			dst.Seed = src.Seed
		case "psfact":
			dst.PsFact = src.PsFact
		case "weight":
			dst.Weight = src.Weight
		case "minsize":
			dst.MinSize = src.MinSize
		case "mincorr":
			dst.MinCorr = src.MinCorr
		case "undersample":
			dst.Undersample = src.Undersample
		case "oversample":
			dst.Oversample = src.Oversample
		case "numcols":
			dst.NumCols = src.NumCols
		case "bgorder":
			dst.BgOrder = src.BgOrder
		case "simcutoff":
			dst.SimCutoff = src.SimCutoff
		case "maxiterations":
			dst.MaxIterations = src.MaxIterations
		case "maxsitefraction":
			dst.MaxSiteFraction = src.MaxSiteFraction
		case "columnpolicy":
			dst.ColumnPolicy = src.ColumnPolicy
		}
	}
	dst.Mode = src.Mode
}
