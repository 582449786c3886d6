// Package expr loads expression matrices and gene subsets and aligns them
// to corpus order.
package expr

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"motifsampler/internal/fasta"
)

var (
	ErrGeneMismatch = errors.New("expression genes do not match sequence names")
	ErrUnknownGene  = errors.New("unknown gene")
	ErrBadValue     = errors.New("bad expression value")
	ErrShape        = errors.New("ragged expression matrix")
)

// Matrix is a gene-by-condition expression table.
type Matrix struct {
	Conditions []string
	Genes      []string
	Rows       [][]float64
	index      map[string]int
}

// ReadMatrix parses a tab-separated matrix: a header row of condition
// labels (its first cell is ignored), then one row per gene with the gene
// name in the first column.
func ReadMatrix(ctx context.Context, path string) (*Matrix, error) {
	rc, err := fasta.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	m, err := parseMatrix(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func parseMatrix(ctx context.Context, r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if len(head) < 2 {
		return nil, fmt.Errorf("%w: header has no conditions", ErrShape)
	}
	m := &Matrix{
		Conditions: append([]string(nil), head[1:]...),
		index:      make(map[string]int),
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != len(head) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrShape, line, len(rec), len(head))
		}
		name := strings.TrimSpace(rec[0])
		if _, dup := m.index[name]; dup {
			return nil, fmt.Errorf("line %d: duplicate gene %q", line, name)
		}
		row := make([]float64, len(rec)-1)
		for i, f := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %q", ErrBadValue, line, i+2, f)
			}
			row[i] = v
		}
		m.index[name] = len(m.Genes)
		m.Genes = append(m.Genes, name)
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// Row returns the profile of gene, or nil.
func (m *Matrix) Row(gene string) []float64 {
	i, ok := m.index[gene]
	if !ok {
		return nil
	}
	return m.Rows[i]
}

// Align returns the profiles in the order of names. The gene set must
// equal the name set exactly.
func (m *Matrix) Align(names []string) ([][]float64, error) {
	if len(names) != len(m.Genes) {
		return nil, fmt.Errorf("%w: %d genes, %d sequences", ErrGeneMismatch, len(m.Genes), len(names))
	}
	out := make([][]float64, len(names))
	for i, n := range names {
		row := m.Row(n)
		if row == nil {
			return nil, fmt.Errorf("%w: no profile for %q", ErrGeneMismatch, n)
		}
		out[i] = row
	}
	return out, nil
}

// ReadSubset reads one gene name per line (blank lines and '#' comments
// skipped) and returns them sorted and de-duplicated.
func ReadSubset(path string) ([]string, error) {
	rc, err := fasta.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	seen := make(map[string]bool)
	var out []string
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sort.Strings(out)
	return out, nil
}

// Membership flags, in the order of names, which names are in subset.
// Every subset entry must name a sequence.
func Membership(subset, names []string) ([]bool, error) {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	out := make([]bool, len(names))
	for _, s := range subset {
		i, ok := idx[s]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGene, s)
		}
		out[i] = true
	}
	return out, nil
}
