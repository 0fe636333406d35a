package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides functionality for logging.
type Logger struct {
	*zerolog.Logger
}

func newFileWriter(filename string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    50,
		MaxBackups: 3,
	}
}

// Options represents options for logger.
type Options struct {
	LogLevel        string
	LogFile         string
	PrettyLogOutput bool
}

// New returns a new instance of logger.
func New(opts Options) (*Logger, error) {
	// By default create console writer
	writers := []io.Writer{os.Stdout}

	if opts.PrettyLogOutput {
		writers[0] = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Stamp}
	}

	if opts.LogFile != "" {
		writers = append(writers, newFileWriter(opts.LogFile))
	}

	level := zerolog.DebugLevel
	if opts.LogLevel != "" {
		parsed, err := zerolog.ParseLevel(opts.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}

		level = parsed
	}

	multiWriters := io.MultiWriter(writers...)

	zeroLogger := zerolog.New(multiWriters).Level(level).With().Caller().Timestamp().Logger()

	return &Logger{&zeroLogger}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	zeroLogger := zerolog.Nop()

	return &Logger{&zeroLogger}
}

// Named returns a child logger tagged with the name of the component that uses it.
func (l *Logger) Named(name string) *Logger {
	child := l.With().Str("name", name).Logger()

	return &Logger{&child}
}
