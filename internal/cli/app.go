// internal/cli/app.go
package cli

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/alecthomas/kingpin.v2"

	"motifsampler/internal/version"
)

// ErrHelp is returned by the parsers when --help was requested; usage has
// already been written.
var ErrHelp = errors.New("help requested")

// NewApp returns a kingpin application that never exits the process and
// writes usage and errors to w.
func NewApp(name, help string, w io.Writer) *kingpin.Application {
	app := kingpin.New(name, fmt.Sprintf("%s (version %s)", help, version.Version))
	app.UsageWriter(w)
	app.ErrorWriter(w)
	app.HelpFlag.Short('h')
	return app
}

// parse runs app over argv and turns a help request into ErrHelp.
func parse(app *kingpin.Application, argv []string) error {
	helped := false
	app.Terminate(func(int) { helped = true })
	_, err := app.Parse(argv)
	if helped {
		return ErrHelp
	}
	return err
}
