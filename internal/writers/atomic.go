// internal/writers/atomic.go
package writers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"motifsampler/internal/jsonutil"
	"motifsampler/internal/motif"
)

// WriteFileAtomic writes path through a temporary file in the same
// directory and renames it into place once fill and fsync succeed.
func WriteFileAtomic(path string, fill func(io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	bw := bufio.NewWriter(tmp)
	if err = fill(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// MotifFileName is "<worker>.<iter>.mot".
func MotifFileName(worker, iter int) string {
	return fmt.Sprintf("%d.%d.mot", worker, iter)
}

// WriteMotifFile stores m as a record under dir and returns its path.
func WriteMotifFile(dir, runID string, m *motif.Motif) (string, error) {
	path := filepath.Join(dir, MotifFileName(m.Worker, m.Iter))
	rec := motif.ToRecord(m)
	rec.RunID = runID
	err := WriteFileAtomic(path, func(w io.Writer) error { return jsonutil.EncodePretty(w, rec) })
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
