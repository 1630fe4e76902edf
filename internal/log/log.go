// Package log provides structured, colored logging for the block tools.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the system.
var (
	Block    zerolog.Logger
	Store    zerolog.Logger
	Keys     zerolog.Logger
	Protocol zerolog.Logger
	CLI      zerolog.Logger
)

// Output is where console logs go. Command output owns stdout, so logs
// default to stderr.
var Output io.Writer = os.Stderr

func init() {
	// Default to colored console output
	Logger = NewConsoleLogger(Output, "info")
	initComponentLoggers()
}

// Init initializes the logger with the given configuration.
// When file is non-empty, logs are written to both the console (colored or
// JSON depending on jsonOutput) and the file (always JSON for machine parsing).
func Init(level string, jsonOutput bool, file string) error {
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}

		// Console writer: colored or JSON per flag.
		var consoleWriter io.Writer
		if jsonOutput {
			consoleWriter = Output
		} else {
			consoleWriter = zerolog.ConsoleWriter{
				Out:        Output,
				TimeFormat: "15:04:05",
			}
		}

		// File writer: always JSON (no ANSI codes, structured for parsing).
		multi := zerolog.MultiLevelWriter(consoleWriter, f)
		Logger = zerolog.New(multi).
			Level(parseLevel(level)).
			With().
			Timestamp().
			Logger()
	} else if jsonOutput {
		Logger = NewJSONLogger(Output, level)
	} else {
		Logger = NewConsoleLogger(Output, level)
	}

	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// parseLevel converts a string level to zerolog.Level, defaulting to info.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// initComponentLoggers initializes loggers for each component.
func initComponentLoggers() {
	Block = WithComponent("block")
	Store = WithComponent("store")
	Keys = WithComponent("keys")
	Protocol = WithComponent("protocol")
	CLI = WithComponent("cli")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithBlock returns a component logger annotated with a block's id and number.
func WithBlock(l zerolog.Logger, id string, number int64) zerolog.Logger {
	return l.With().Str("block_id", id).Int64("number", number).Logger()
}

// Benchmark helper for timing operations.
func Benchmark(name string) func() {
	start := time.Now()
	return func() {
		Logger.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
