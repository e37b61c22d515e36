package logx

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/inboundiq/server/internal/core"
)

// LoggerOpts tunes the process-wide logger.
type LoggerOpts struct {
	Environment core.Environment
}

// Init configures the global zerolog logger. Production stays on compact
// JSON at info level; everything else gets the console writer with caller
// info at debug level.
func Init(opts ...LoggerOpts) {
	env := core.Development
	if len(opts) > 0 {
		env = opts[0].Environment
	}

	if env.IsProduction() {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
		return
	}
	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).
		With().Timestamp().Caller().Logger().
		Level(zerolog.DebugLevel)
}

func Debug() *zerolog.Event { return log.Debug() }

func Info() *zerolog.Event { return log.Info() }

func Warn() *zerolog.Event { return log.Warn() }

func Error() *zerolog.Event { return log.Error() }

func Panic() *zerolog.Event { return log.Panic() }

func Fatal() *zerolog.Event { return log.Fatal() }
