// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// Record is one FASTA entry.
type Record struct {
	ID  string
	Seq []byte
}

var (
	ErrNoRecords   = errors.New("fasta: no records")
	ErrDuplicateID = errors.New("fasta: duplicate record id")
	ErrNoHeader    = errors.New("fasta: sequence before first header")
)

// maxLine allows very long single-line sequences (64 MiB).
const maxLine = 64 * 1024 * 1024

// Scan reads FASTA from r and calls emit once per record. Cancellation via
// ctx is checked between lines. Return a non-nil error from emit to stop.
func Scan(ctx context.Context, r io.Reader, emit func(Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		id   string
		seq  []byte
		line int
	)
	flush := func() error {
		if id == "" {
			return nil
		}
		return emit(Record{ID: id, Seq: append([]byte(nil), seq...)})
	}
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		if b[0] == '>' {
			if err := flush(); err != nil {
				return err
			}
			seq = seq[:0]
			id = parseHeaderID(b[1:])
			if id == "" {
				return fmt.Errorf("fasta: line %d: empty header", line)
			}
			continue
		}
		if id == "" {
			return fmt.Errorf("%w (line %d)", ErrNoHeader, line)
		}
		seq = append(seq, bytes.TrimSpace(b)...)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta scan: %w", err)
	}
	return flush()
}

// ReadAll loads every record of path in file order and rejects duplicate
// IDs.
func ReadAll(ctx context.Context, path string) ([]Record, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []Record
	seen := make(map[string]bool)
	err = Scan(ctx, rc, func(r Record) error {
		if seen[r.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRecords)
	}
	return out, nil
}

// parseHeaderID returns the first whitespace-delimited token of a header.
func parseHeaderID(h []byte) string {
	f := bytes.Fields(h)
	if len(f) == 0 {
		return ""
	}
	return string(f[0])
}
