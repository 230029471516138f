package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"statusdeck/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const envProduction = "production"

// Init builds the process logger. Production writes plain JSON lines,
// everything else gets the console writer with caller info and debug
// level.
func Init(cfg *config.Config) *zerolog.Logger {
	level := zerolog.DebugLevel
	if cfg.Env == envProduction {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	base := zerolog.New(writerFor(cfg.Env)).With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("env", cfg.Env).
		Logger()

	if cfg.Env != envProduction {
		base = base.With().Caller().Logger()
	}

	log.Logger = base
	return &base
}

func writerFor(env string) io.Writer {
	if env == envProduction {
		return os.Stdout
	}

	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		PartsOrder: []string{
			"time", "level", "caller", "service", "env", "message", "err",
		},
		FormatLevel: func(i any) string {
			return strings.ToUpper(fmt.Sprintf("[%s]", i))
		},
		FormatCaller: func(caller any) string {
			return fmt.Sprintf("(%s)", caller)
		},
	}
}
