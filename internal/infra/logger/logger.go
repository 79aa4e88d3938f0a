// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Output string // "stdout", "stderr", or file path
	Level  string // "debug", "info", "warn", "error"
	Format string // "console" or "json"; files are always json
}

// Init initializes the global zerolog logger with the given configuration.
func Init(cfg Config) error {
	writer, console, err := openOutput(cfg)
	if err != nil {
		return err
	}

	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.CallerMarshalFunc = shortCaller

	logger := New(writer, level, console)
	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger

	return nil
}

// New builds a logger writing to w. Console output is colored; caller
// information is attached at DEBUG level only.
func New(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
			FormatCaller: func(i interface{}) string {
				if s, ok := i.(string); ok && s != "" {
					return "(" + s + ")"
				}
				return ""
			},
		}
	}
	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// openOutput resolves the writer and whether console formatting applies.
func openOutput(cfg Config) (io.Writer, bool, error) {
	json := strings.EqualFold(cfg.Format, "json")
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return os.Stdout, !json, nil
	case "stderr":
		return os.Stderr, !json, nil
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, false, errors.Wrapf(err, "failed to open log file %s", cfg.Output)
		}
		return f, false, nil
	}
}

// shortCaller trims the caller to "dir/file.go:line".
func shortCaller(pc uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// ParseLevel parses the log level string. Unknown values mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
