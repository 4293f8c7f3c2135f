// Package logger holds the process-wide zerolog logger for store-api.
// cmd/api and cmd/migrate call Init once; packages that are not handed a
// logger take a tagged child from Component.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level   string // trace|debug|info|warn|error, anything else means info
	Pretty  bool   // console output for local runs; JSON otherwise
	Output  io.Writer
	Service string // added to every line as "service"
}

var (
	mu    sync.Mutex
	base  zerolog.Logger
	ready bool
)

// Init builds the logger on first use and returns it. Later calls return the
// same logger and ignore opts.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if ready {
		return base
	}

	var w io.Writer = os.Stdout
	if opts.Output != nil {
		w = opts.Output
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level := parseLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(level)

	fields := zerolog.New(w).Level(level).With().Timestamp().Caller()
	if opts.Service != "" {
		fields = fields.Str("service", opts.Service)
	}
	base = fields.Logger()
	ready = true
	return base
}

// Get panics until Init has run: a silent default would hide wiring mistakes.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		panic("logger: Get() called before Init()")
	}
	return base
}

// Component tags lines with the emitting part of the service, for example
// "dispatcher" or "purchases".
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset lets tests call Init again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	base = zerolog.Logger{}
	ready = false
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}
