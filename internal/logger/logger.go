// Package logger provides a zerolog wrapper with opinionated defaults
package logger

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the logger
type Options struct {
	Level      string
	Format     string
	Component  string
	Writer     io.Writer
	WithCaller bool
}

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// FromEnv builds Options from BLASTFASTA_LOG_* variables. It reads the
// environment directly so config can depend on logger without a cycle.
func FromEnv() Options {
	get := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv("BLASTFASTA_LOG_" + k)); v != "" {
			return v
		}
		return def
	}
	return Options{
		Level:      strings.ToLower(get("LEVEL", "info")),
		Format:     strings.ToLower(get("FORMAT", "console")),
		WithCaller: get("CALLER", "") == "1" || strings.EqualFold(get("CALLER", ""), "true"),
	}
}

// New builds a root logger. Console format writes human-readable lines; any
// other format writes JSON.
func New(opt Options) Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		ctx = ctx.Str("go_version", bi.GoVersion)
	}
	if opt.Component != "" {
		ctx = ctx.Str("component", opt.Component)
	}
	log := ctx.Logger()
	if opt.WithCaller {
		log = log.With().Caller().Logger()
	}
	return log
}

// Nop returns a disabled logger, handy as a zero value in tests
func Nop() Logger { return zerolog.Nop() }

// Named returns a child logger with a component field
func Named(l Logger, component string) Logger {
	if component == "" {
		return l
	}
	return l.With().Str("component", component).Logger()
}

// ParseLevel supports string-only levels; unknown values fall back to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
