package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger with the specified level.
// Diagnostics go to out (stderr in production; stdout carries log payload).
// If logFile is not empty, records are also appended to that file as JSON.
func InitLogger(out io.Writer, level string, logFile string) {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    !isTerminal(out),
	}

	var w io.Writer = consoleWriter
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			// Logger is not ready yet
			fmt.Fprintf(out, "Failed to open log file %s: %v, logging to stderr only\n", logFile, err)
		} else {
			w = zerolog.MultiLevelWriter(consoleWriter, file)
		}
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(effectiveLevel(level))

	log.Debug().
		Str("level", zerolog.GlobalLevel().String()).
		Str("file", logFile).
		Msg("Logger initialized")
}

// ParseLogLevel parses a string log level to zerolog.Level.
// Unknown values fall back to warn so a normal run stays quiet.
func ParseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
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
	default:
		return zerolog.WarnLevel
	}
}

// effectiveLevel caps the configured level at warn: the truncation warning
// must always reach the diagnostic stream.
func effectiveLevel(level string) zerolog.Level {
	lvl := ParseLogLevel(level)
	if lvl > zerolog.WarnLevel {
		return zerolog.WarnLevel
	}
	return lvl
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
