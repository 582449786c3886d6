// Package config applies an optional parameter file on top of the search
// defaults. Explicit command-line flags are applied afterwards by the app.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"motifsampler/internal/engine"
)

// EnvPrefix names environment overrides, e.g. MOTIFSAMPLER_NUMCOLS=12.
const EnvPrefix = "MOTIFSAMPLER"

// Keys lists every recognized parameter key.
var Keys = []string{
	"expect", "minpass", "seed", "psfact", "weight", "minsize", "mincorr",
	"undersample", "oversample", "numcols", "maxwidthfactor", "bgorder",
	"minprob", "simcutoff", "overlap", "maxiterations", "seedtries",
	"maxsitefraction", "columnpolicy", "mode",
}

// New returns a viper instance reading path (format chosen by extension;
// empty path means environment only).
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, k := range Keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	for _, k := range v.AllKeys() {
		if !known(k) {
			return nil, fmt.Errorf("config %s: unknown key %q", path, k)
		}
	}
	return v, nil
}

func known(k string) bool {
	for _, x := range Keys {
		if x == k {
			return true
		}
	}
	return false
}

// Apply overwrites the fields of p whose keys are set in v.
func Apply(v *viper.Viper, p *engine.Params) error {
	ints := map[string]*int{
		"expect":         &p.Expect,
		"minpass":        &p.MinPass,
		"minsize":        &p.MinSize,
		"numcols":        &p.NumCols,
		"maxwidthfactor": &p.MaxWidthFactor,
		"bgorder":        &p.BgOrder,
		"overlap":        &p.Overlap,
		"maxiterations":  &p.MaxIterations,
		"seedtries":      &p.SeedTries,
	}
	for k, dst := range ints {
		if v.IsSet(k) {
			*dst = v.GetInt(k)
		}
	}
	floats := map[string]*float64{
		"psfact":          &p.PsFact,
		"weight":          &p.Weight,
		"mincorr":         &p.MinCorr,
		"undersample":     &p.Undersample,
		"oversample":      &p.Oversample,
		"simcutoff":       &p.SimCutoff,
		"maxsitefraction": &p.MaxSiteFraction,
	}
	for k, dst := range floats {
		if v.IsSet(k) {
			*dst = v.GetFloat64(k)
		}
	}
	if v.IsSet("seed") {
		p.Seed = v.GetInt64("seed")
	}
	if v.IsSet("columnpolicy") {
		p.ColumnPolicy = engine.ColumnPolicy(v.GetString("columnpolicy"))
	}
	if v.IsSet("mode") {
		p.Mode = engine.Mode(v.GetString("mode"))
	}
	if v.IsSet("minprob") {
		var mp []float64
		if err := v.UnmarshalKey("minprob", &mp); err != nil {
			return fmt.Errorf("config minprob: %w", err)
		}
		p.MinProb = mp
	}
	return p.Validate()
}

// Load is New followed by Apply.
func Load(path string, p *engine.Params) error {
	v, err := New(path)
	if err != nil {
		return err
	}
	return Apply(v, p)
}
