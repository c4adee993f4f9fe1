// Package monitoring routes the log output of the simulation packages.
package monitoring

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/banshee-data/micromag/internal/autosave"
	"github.com/banshee-data/micromag/internal/engine"
	"github.com/banshee-data/micromag/internal/region"
	"github.com/banshee-data/micromag/internal/storage/sqlite"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Level selects how many of the three log streams are written.
type Level int

const (
	LevelOff Level = iota
	// LevelOps writes actionable warnings: failed saves, unknown colours,
	// aborted steps.
	LevelOps
	// LevelDiag adds per-call diagnostics such as region reports and saves.
	LevelDiag
	// LevelTrace adds a line per step and per region.
	LevelTrace
)

// ParseLevel maps "off", "ops", "diag" or "trace" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LevelOff, nil
	case "", "ops":
		return LevelOps, nil
	case "diag", "debug":
		return LevelDiag, nil
	case "trace":
		return LevelTrace, nil
	default:
		return LevelOff, fmt.Errorf("unknown log level %q (want off, ops, diag or trace)", s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelOps:
		return "ops"
	case LevelDiag:
		return "diag"
	case LevelTrace:
		return "trace"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// setters lists the stream configuration of every package that logs.
var setters = []func(ops, diag, trace io.Writer){
	engine.SetLogWriters,
	region.SetLogWriters,
	autosave.SetLogWriters,
	sqlite.SetLogWriters,
}

// Configure points the streams enabled by level at w and disables the rest.
// A nil w disables every stream.
func Configure(level Level, w io.Writer) {
	var ops, diag, trace io.Writer
	if w != nil {
		if level >= LevelOps {
			ops = w
		}
		if level >= LevelDiag {
			diag = w
		}
		if level >= LevelTrace {
			trace = w
		}
	}
	for _, set := range setters {
		set(ops, diag, trace)
	}
	Logf("log level %s", level)
}
