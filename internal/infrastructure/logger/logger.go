package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Over the stdio transport the
// sink must be stderr: stdout carries the line-oriented MCP protocol and any
// diagnostic output written there corrupts it.
func Init(level, format string, sink io.Writer) {
	if sink == nil {
		sink = os.Stdout
	}

	var logger zerolog.Logger
	switch strings.ToLower(format) {
	case "console":
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        sink,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	default:
		logger = zerolog.New(sink).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log.Logger = logger.Level(lvl)
}
