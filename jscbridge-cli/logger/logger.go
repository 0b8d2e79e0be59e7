package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// L is the CLI logger
var L = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
	With().Timestamp().Logger().
	Level(zerolog.InfoLevel)

// SetVerbose switches L to debug level
func SetVerbose(v bool) {
	if v {
		L = L.Level(zerolog.DebugLevel)
	} else {
		L = L.Level(zerolog.InfoLevel)
	}
}
