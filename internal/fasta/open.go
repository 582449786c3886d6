// internal/fasta/open.go
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

var gzipMagic = []byte{0x1f, 0x8b}

// source is an opened sequence file, unpacked when it was gzipped.
type source struct {
	io.Reader
	zr   *gzip.Reader
	file io.Closer
}

func (s *source) Close() error {
	var err error
	if s.zr != nil {
		err = s.zr.Close()
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open opens a sequence file; "-" is standard input. Gzipped input is
// recognised from its leading bytes, so a .gz suffix is not required.
func Open(path string) (io.ReadCloser, error) {
	var file io.ReadCloser = io.NopCloser(os.Stdin)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		file = f
	}
	br := bufio.NewReader(file)
	head, _ := br.Peek(len(gzipMagic))
	if !bytes.Equal(head, gzipMagic) && !strings.HasSuffix(path, ".gz") {
		return &source{Reader: br, file: file}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &source{Reader: zr, zr: zr, file: file}, nil
}
