package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options controls how a diagnostics logger is built
type Options struct {
	Verbose bool
	Quiet   bool

	// Level overrides Verbose and Quiet when set (trace, debug, info, warn, error)
	Level string

	// Format is text or json
	Format string

	Output io.Writer
}

// New builds the logger handed to decoders as their diagnostics sink
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	logger.SetOutput(os.Stderr)
	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	}

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", opts.Format)
	}

	level := logrus.WarnLevel
	switch {
	case opts.Level != "":
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	case opts.Quiet:
		level = logrus.ErrorLevel
	case opts.Verbose:
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	return logger, nil
}

// Discard returns a logger that drops everything
func Discard() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// OrDiscard returns log, or a discarding logger when log is nil
func OrDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return Discard()
	}
	return log
}
