package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger derives a logger tagged with app from the process logger.
// Call it after logging.Apply so output settings carry over.
func InitLogger(app string, level zerolog.Level) zerolog.Logger {
	return log.Logger.With().Str("app", app).Logger().Level(level)
}
