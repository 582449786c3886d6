// internal/cmdutil/log.go
package cmdutil

import (
	"fmt"
	"io"
	"log"
)

// Loggers are the stderr channels of a command.
type Loggers struct {
	Info   *log.Logger // progress notes; silenced by --quiet
	Warn   *log.Logger // recoverable problems; silenced by --quiet
	Status *log.Logger // per-iteration engine status; only with --verbose
}

// NewLoggers builds the INFO/WARN/STATUS loggers on dst.
func NewLoggers(dst io.Writer, quiet, verbose bool) Loggers {
	info := dst
	if quiet {
		info = io.Discard
	}
	status := io.Discard
	if verbose {
		status = dst
	}
	return Loggers{
		Info:   log.New(info, "INFO: ", log.Ltime),
		Warn:   log.New(info, "WARN: ", log.Ltime),
		Status: log.New(status, "", 0),
	}
}

func Warnf(dst io.Writer, quiet bool, format string, a ...any) {
	if quiet {
		return
	}
	_, _ = fmt.Fprintf(dst, "WARN: "+format+"\n", a...)
}
