package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger writing to stdout.
// APP_ENV=dev (or development) uses a human-friendly console writer.
// An unknown level falls back to info; ok reports whether level parsed.
func NewLogger(env, level string) (l zerolog.Logger, ok bool) {
	return newLogger(os.Stdout, env, level)
}

func newLogger(out io.Writer, env, level string) (zerolog.Logger, bool) {
	w := out
	if env == "dev" || env == "development" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	ok := err == nil && lvl != zerolog.NoLevel
	if !ok {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), ok
}
