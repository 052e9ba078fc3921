package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultOptions = &Options{
	Environment: "development",
	Level:       "debug",
	Format:      "console",
}

type Options struct {
	Environment string
	Level       string
	Format      string
	Output      io.Writer
}

func safe(opts ...Options) *Options {
	if len(opts) == 0 {
		return DefaultOptions
	}
	return &opts[0]
}

// Init configures the global logger. Production defaults to JSON at info level,
// everything else to a console writer at debug level.
func Init(opts ...Options) {
	o := safe(opts...)

	out := o.Output
	if out == nil {
		out = os.Stdout
	}

	level := ParseLevel(o.Level)
	if o.Environment == "production" {
		if o.Level == "" {
			level = zerolog.InfoLevel
		}
		log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(level)
		return
	}

	if o.Level == "" {
		level = zerolog.DebugLevel
	}
	if o.Format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger().Level(level)
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Caller().Logger().Level(level)
}

// ParseLevel maps a level name to a zerolog level, falling back to info
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
