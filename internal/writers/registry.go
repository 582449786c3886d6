// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"

	"motifsampler/pkg/api"
)

// SummaryWriters maps an output format to its run-summary renderer.
// Register in init() blocks of the format files.
var SummaryWriters = map[string]func(io.Writer, api.RunSummaryV1) error{}

// RegisterSummary is idempotent last-wins.
func RegisterSummary(format string, fn func(io.Writer, api.RunSummaryV1) error) {
	SummaryWriters[format] = fn
}

// WriteSummary dispatches on format.
func WriteSummary(format string, w io.Writer, s api.RunSummaryV1) error {
	fn, ok := SummaryWriters[format]
	if !ok {
		return fmt.Errorf("unknown summary format %q (no writer registered)", format)
	}
	return fn(w, s)
}

// Formats lists the registered summary formats.
func Formats() []string {
	out := make([]string, 0, len(SummaryWriters))
	for f := range SummaryWriters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
