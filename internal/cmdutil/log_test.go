package cmdutil

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggersQuiet(t *testing.T) {
	var b bytes.Buffer
	l := NewLoggers(&b, true, false)
	l.Info.Print("hello")
	l.Warn.Print("careful")
	l.Status.Print("iter 1")
	Warnf(&b, true, "x %d", 1)
	if b.Len() != 0 {
		t.Fatalf("quiet loggers wrote %q", b.String())
	}
}

func TestNewLoggersVerbose(t *testing.T) {
	var b bytes.Buffer
	l := NewLoggers(&b, false, true)
	l.Warn.Print("careful")
	l.Status.Print("iter 1")
	Warnf(&b, false, "x %d", 1)
	out := b.String()
	for _, want := range []string{"WARN: ", "careful", "iter 1\n", "WARN: x 1\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}
