// Package jsonlutil streams values as JSON lines from a dedicated goroutine.
package jsonlutil

import (
	"bufio"
	"encoding/json"
	"io"
)

// Start spins up a JSONL encoder goroutine for values of type T.
//   - encode: fn to encode one value (convert to wire type & enc.Encode)
//   - isBroken: recognizer for broken/closed pipe errors to suppress them
//
// Close the returned channel when done; the error channel then yields
// exactly one value. After the first failure the goroutine keeps draining
// the channel so senders never block.
func Start[T any](out io.Writer, bufSize int, encode func(*json.Encoder, T) error, isBroken func(error) bool) (chan<- T, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan T, bufSize)
	done := make(chan error, 1)

	go func() {
		bw := bufio.NewWriterSize(out, 64<<10)
		enc := json.NewEncoder(bw)

		var failed error
		broken := false
		for v := range in {
			if failed != nil || broken {
				continue
			}
			if err := encode(enc, v); err != nil {
				if isBroken(err) {
					broken = true
				} else {
					failed = err
				}
			}
		}
		if failed == nil && !broken {
			if err := bw.Flush(); err != nil && !isBroken(err) {
				failed = err
			}
		}
		done <- failed
	}()

	return in, done
}
