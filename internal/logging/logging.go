// Package logging builds the zerolog logger each binary starts with.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger tagged with the binary name. Unknown levels fall
// back to info.
func New(cmd, level string) zerolog.Logger {
	return newLogger(os.Stdout, cmd, level)
}

func newLogger(w io.Writer, cmd, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("cmd", cmd).Logger()
}
