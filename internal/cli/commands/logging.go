package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the console logger used for diagnostics. Quiet raises
// the level to error regardless of level.
func newLogger(w io.Writer, level string, quiet bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q (use debug, info, warn, or error)", level)
	}
	if quiet {
		lvl = zerolog.ErrorLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
