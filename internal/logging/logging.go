package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// Options configures Setup
type Options struct {
	Debug  bool
	Quiet  bool      // only warnings and errors on Output
	File   string    // also write every entry here when set
	Output io.Writer // defaults to os.Stderr; io.Discard while a TUI owns the screen
}

// Setup builds the process logger. The returned closer releases the log
// file, if any.
func Setup(opts Options) (*log.Logger, io.Closer, error) {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:  true,
		DisableSorting: true,
	})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	logger.SetLevel(consoleLevel(opts))

	if opts.File == "" {
		return logger, nopCloser{}, nil
	}

	if dir := filepath.Dir(opts.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	logFile, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", opts.File, err)
	}

	// Console and file get their own levels, so route both through hooks
	logger.SetOutput(io.Discard)
	logger.SetLevel(log.DebugLevel)
	logger.AddHook(&writer.Hook{
		Writer:    out,
		LogLevels: levelsUpTo(consoleLevel(opts)),
	})

	// Write everything to log file too
	logger.AddHook(&writer.Hook{
		Writer: logFile,
		LogLevels: []log.Level{
			log.PanicLevel,
			log.FatalLevel,
			log.ErrorLevel,
			log.WarnLevel,
			log.InfoLevel,
			log.DebugLevel,
		},
	})
	return logger, logFile, nil
}

func levelsUpTo(max log.Level) []log.Level {
	var out []log.Level
	for _, l := range log.AllLevels {
		if l <= max {
			out = append(out, l)
		}
	}
	return out
}

func consoleLevel(opts Options) log.Level {
	switch {
	case opts.Debug:
		return log.DebugLevel
	case opts.Quiet:
		return log.WarnLevel
	}
	return log.InfoLevel
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
