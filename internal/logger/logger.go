// Package logger builds the zerolog loggers used by the geoviz tools.
package logger

import (
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, format and sampling for a logger.
type Config struct {
	Level     string `yaml:"level"`
	Console   bool   `yaml:"console"`
	SampleN   int    `yaml:"sample_n"`
	Component string `yaml:"component"`
}

// ParseLevel maps a level name to a zerolog level. Unknown names are info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func safeUint32(n int) uint32 {
	if n <= 0 {
		return 0
	}
	if n > int(math.MaxUint32) {
		return math.MaxUint32
	}
	return uint32(n)
}

// Build returns a logger writing to out (stderr when nil).
//
// The level is applied to the returned logger rather than globally so
// several loggers with different levels can coexist in one process.
func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "msg"

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}

	base := zerolog.New(out).Level(ParseLevel(cfg.Level))
	if n := safeUint32(cfg.SampleN); n > 1 {
		base = base.Sample(&zerolog.BasicSampler{N: n})
	}

	ctx := base.With().Timestamp()
	if cfg.Component != "" {
		ctx = ctx.Str("component", cfg.Component)
	}
	return ctx.Logger()
}
