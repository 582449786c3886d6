package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"motifsampler/internal/motif"
	"motifsampler/internal/store"
	"motifsampler/pkg/api"
)

const planted = "TGACGCAGTC"

func plantedAt(i int) int { return 5 + (i*7)%40 }

// writeInputs writes a 20-gene corpus with the planted site in the first
// 15 genes, a matching expression table and a subset file of the carriers.
func writeInputs(t *testing.T) (dir, fa, ex, sub string) {
	t.Helper()
	dir = t.TempDir()
	r := rand.New(rand.NewPCG(42, 43))
	var fb, eb, sb strings.Builder
	eb.WriteString("gene\tc0\tc1\tc2\tc3\n")
	for i := 0; i < 20; i++ {
		b := make([]byte, 60)
		for j := range b {
			b[j] = "ACGT"[r.IntN(4)]
		}
		name := fmt.Sprintf("g%02d", i)
		if i < 15 {
			copy(b[plantedAt(i):], planted)
			fmt.Fprintf(&sb, "%s\n", name)
			fmt.Fprintf(&eb, "%s\t1\t2\t3\t%.2f\n", name, 4+r.Float64()/10)
		} else {
			fmt.Fprintf(&eb, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n", name, r.Float64(), r.Float64(), r.Float64(), r.Float64())
		}
		fmt.Fprintf(&fb, ">%s some description\n%s\n", name, b)
	}
	write := func(name, data string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	return dir, write("up.fa", fb.String()), write("expr.tsv", eb.String()), write("subset.txt", sb.String())
}

func TestHelpAndVersion(t *testing.T) {
	var out, errb bytes.Buffer
	if code := Run(nil, &out, &errb); code != 0 {
		t.Fatalf("help exit %d: %s", code, errb.String())
	}
	if !strings.Contains(out.String(), "usage: motifsampler") || !strings.Contains(out.String(), "--sequences") {
		t.Fatalf("usage missing: %q", out.String())
	}
	out.Reset()
	if code := Run([]string{"--version"}, &out, &errb); code != 0 {
		t.Fatalf("version exit %d", code)
	}
	if !strings.HasPrefix(out.String(), "motifsampler version ") {
		t.Fatalf("version output %q", out.String())
	}
}

func TestUsageAndInputErrors(t *testing.T) {
	dir, fa, ex, sub := writeInputs(t)
	bad := filepath.Join(dir, "bad.tsv")
	if err := os.WriteFile(bad, []byte("gene\tc0\nnobody\t1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		argv []string
	}{
		{"no sequences", []string{"--expr", ex}},
		{"both modes", []string{"-s", fa, "--expr", ex, "--subset", sub}},
		{"no mode", []string{"-s", fa}},
		{"bad policy", []string{"-s", fa, "--subset", sub, "--columnpolicy", "shuffle"}},
		{"bad numcols", []string{"-s", fa, "--subset", sub, "--numcols", "1"}},
		{"missing fasta", []string{"-s", filepath.Join(dir, "none.fa"), "--subset", sub}},
		{"gene mismatch", []string{"-s", fa, "--expr", bad}},
		{"missing config", []string{"-s", fa, "--subset", sub, "--config", filepath.Join(dir, "none.yaml")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out, errb bytes.Buffer
			argv := append(tc.argv, "-q", "--outdir", t.TempDir())
			if code := Run(argv, &out, &errb); code != exitUsage {
				t.Fatalf("exit %d, stderr %q", code, errb.String())
			}
			if errb.Len() == 0 {
				t.Fatal("no error message")
			}
		})
	}
}

func TestCanceledBeforeStart(t *testing.T) {
	_, fa, _, sub := writeInputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out, errb bytes.Buffer
	code := RunContext(ctx, []string{"-s", fa, "--subset", sub, "-q", "--outdir", t.TempDir()}, &out, &errb)
	if code != exitCanceled {
		t.Fatalf("exit %d, stderr %q", code, errb.String())
	}
}

func runSampler(t *testing.T, extra ...string) (code int, outDir string, stdout string) {
	t.Helper()
	_, fa, _, sub := writeInputs(t)
	outDir = t.TempDir()
	argv := append([]string{
		"-s", fa, "--subset", sub,
		"--attempts", "4", "--workers", "2", "--seed", "1",
		"--maxsitefraction", "1", "--minpass", "10", "--maxiterations", "500",
		"-q", "--outdir", outDir,
	}, extra...)
	var out, errb bytes.Buffer
	code = Run(argv, &out, &errb)
	if code != exitOK && code != exitNoMotif {
		t.Fatalf("exit %d, stderr %q", code, errb.String())
	}
	return code, outDir, out.String()
}

func TestRunWritesSummaryArchiveAndStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.sqlite3")
	code, outDir, stdout := runSampler(t, "--output", "json", "--db", db)

	var sum api.RunSummaryV1
	if err := json.Unmarshal([]byte(stdout), &sum); err != nil {
		t.Fatalf("summary: %v\n%s", err, stdout)
	}
	if sum.Attempts != 4 || sum.Mode != "subset" || sum.Sequences != 20 || sum.RunID == "" {
		t.Fatalf("summary %+v", sum)
	}
	n := 0
	for _, v := range sum.Statuses {
		n += v
	}
	if n != 4 {
		t.Fatalf("statuses %v", sum.Statuses)
	}
	if (code == exitOK) != (sum.Stored > 0) {
		t.Fatalf("exit %d with %d stored", code, sum.Stored)
	}

	mots, _ := filepath.Glob(filepath.Join(outDir, "*.mot"))
	if len(mots) != sum.Stored {
		t.Fatalf("%d record files for %d stored", len(mots), sum.Stored)
	}
	f, err := os.Open(filepath.Join(outDir, ArchiveFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var arc api.ArchiveV1
	if err := json.NewDecoder(f).Decode(&arc); err != nil {
		t.Fatal(err)
	}
	if arc.RunID != sum.RunID || len(sum.Motifs) > len(arc.Motifs) {
		t.Fatalf("archive %s with %d motifs, summary %s with %d", arc.RunID, len(arc.Motifs), sum.RunID, len(sum.Motifs))
	}
	for _, m := range sum.Motifs {
		if m.Spec <= 1 {
			t.Fatalf("summary reports %s with spec %v", m.Consensus, m.Spec)
		}
	}

	s, err := store.Open(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	atts, err := s.Attempts(context.Background(), sum.RunID)
	if err != nil || len(atts) != 4 {
		t.Fatalf("stored attempts %d err %v", len(atts), err)
	}
	for i, a := range atts {
		if a.Iter != i || a.Seed != uint64(1+i) {
			t.Fatalf("attempt %d: %+v", i, a)
		}
	}
}

func TestRunJSONLStreamsAttempts(t *testing.T) {
	_, _, stdout := runSampler(t, "--output", "jsonl")
	sc := bufio.NewScanner(strings.NewReader(stdout))
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 5 {
		t.Fatalf("want 4 attempts + summary, got %d lines:\n%s", len(lines), stdout)
	}
	seen := map[int]bool{}
	for _, l := range lines[:4] {
		var a api.AttemptV1
		if err := json.Unmarshal([]byte(l), &a); err != nil {
			t.Fatal(err)
		}
		seen[a.Iter] = true
	}
	if len(seen) != 4 {
		t.Fatalf("attempt lines %v", seen)
	}
	var sum api.RunSummaryV1
	if err := json.Unmarshal([]byte(lines[4]), &sum); err != nil || sum.Attempts != 4 {
		t.Fatalf("summary line %q: %v", lines[4], err)
	}
}

func TestArchiveRebuildsFromRecords(t *testing.T) {
	dir, fa, _, _ := writeInputs(t)
	c, err := loadCorpus(context.Background(), fa, 3)
	if err != nil {
		t.Fatal(err)
	}
	m := motif.New(c, len(planted), 3*len(planted))
	for i := 0; i < 12; i++ {
		m.AddSite(i, plantedAt(i), true)
	}
	m.Spec = 3
	rec := func(name string, m *motif.Motif) string {
		p := filepath.Join(dir, name)
		f, err := os.Create(p)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if err := motif.Write(f, m); err != nil {
			t.Fatal(err)
		}
		return p
	}
	a := rec("0.1.mot", m)
	b := rec("1.2.mot", m.Clone())
	junk := filepath.Join(dir, "junk.mot")
	if err := os.WriteFile(junk, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "merged.json")

	var stdout, errb bytes.Buffer
	code := RunArchive([]string{"-s", fa, "--out", out, "--output", "json", a, b, junk}, &stdout, &errb)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errb.String())
	}
	if !strings.Contains(errb.String(), "WARN: skipping") {
		t.Fatalf("junk not reported: %q", errb.String())
	}
	var sum api.RunSummaryV1
	if err := json.Unmarshal(stdout.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Stored != 1 || sum.Statuses["STORED"] != 1 || sum.Statuses["REJECTED"] != 1 || sum.Statuses["UNREADABLE"] != 1 {
		t.Fatalf("summary %+v", sum)
	}
	if len(sum.Motifs) != 1 || sum.Motifs[0].Visits != 2 {
		t.Fatalf("motifs %+v", sum.Motifs)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("archive not written: %v", err)
	}
}

func TestRunExpressionMode(t *testing.T) {
	_, fa, ex, _ := writeInputs(t)
	var out, errb bytes.Buffer
	code := Run([]string{
		"-s", fa, "--expr", ex, "--attempts", "3", "--workers", "3", "--seed", "9",
		"--maxsitefraction", "1", "--minpass", "10", "--maxiterations", "300",
		"--output", "text", "-q", "--outdir", t.TempDir(),
	}, &out, &errb)
	if code != exitOK && code != exitNoMotif {
		t.Fatalf("exit %d, stderr %q", code, errb.String())
	}
	if !strings.Contains(out.String(), "expression mode") || !strings.Contains(out.String(), "3 attempts") {
		t.Fatalf("summary %q", out.String())
	}
}
