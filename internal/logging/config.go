// Package logging configures the process-wide zerolog logger. Levels come
// from the embedded build configuration; nothing is read from the
// environment.
package logging

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrUnknownLevel = errors.New("logging: unknown level")

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureOnce sync.Once

func ConfigureRuntime(level zerolog.Level) {
	Configure(ProfileRuntime, level, os.Stderr)
}

func ConfigureTests() {
	Configure(ProfileTest, zerolog.DebugLevel, os.Stderr)
}

// Configure installs the global logger once per process. Later calls are
// no-ops so tests and the CLI can both call it unconditionally.
func Configure(profile Profile, level zerolog.Level, out io.Writer) {
	configureOnce.Do(func() {
		log.Logger = newLogger(profile, level, out)
		zerolog.SetGlobalLevel(level)
	})
}

func newLogger(profile Profile, level zerolog.Level, out io.Writer) zerolog.Logger {
	switch profile {
	case ProfileTest:
		output := zerolog.ConsoleWriter{Out: out, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
		return zerolog.New(output).Level(level)
	default:
		output := zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(level).With().Timestamp().Str("app", "slime").Logger()
	}
}

// Component returns a child of the global logger tagged with name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

func ParseLevel(raw string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, ErrUnknownLevel
	}
}
