package integration

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeCorpus writes n genes of length l with a shared site in the first
// 3n/4 of them, plus the matching subset file.
func writeCorpus(t *testing.T, n, l int) (fa, sub string) {
	t.Helper()
	dir := t.TempDir()
	r := rand.New(rand.NewPCG(11, 12))
	var fb, sb strings.Builder
	for i := 0; i < n; i++ {
		b := make([]byte, l)
		for j := range b {
			b[j] = "ACGT"[r.IntN(4)]
		}
		name := fmt.Sprintf("gene%03d", i)
		if i < 3*n/4 {
			copy(b[r.IntN(l-10):], "TGACGCAGTC")
			fmt.Fprintln(&sb, name)
		}
		fmt.Fprintf(&fb, ">%s\n%s\n", name, b)
	}
	fa = filepath.Join(dir, "up.fa")
	sub = filepath.Join(dir, "subset.txt")
	if err := os.WriteFile(fa, []byte(fb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sub, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return fa, sub
}
