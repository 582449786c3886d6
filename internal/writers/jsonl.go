// internal/writers/jsonl.go
package writers

import (
	"encoding/json"
	"io"

	"motifsampler/internal/jsonlutil"
	"motifsampler/pkg/api"
)

// StartAttemptJSONLWriter streams each attempt as one JSON line (v1).
func StartAttemptJSONLWriter(out io.Writer, bufSize int) (chan<- api.AttemptV1, <-chan error) {
	return jsonlutil.Start[api.AttemptV1](out, bufSize,
		func(enc *json.Encoder, a api.AttemptV1) error {
			return enc.Encode(a)
		},
		IsBrokenPipe,
	)
}
