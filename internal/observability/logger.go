package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger tags the process logger with app and installs it globally.
// Call it after logging.Configure so level and output are already set.
func InitLogger(app string) zerolog.Logger {
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ConnLogger scopes a logger to one client connection.
func ConnLogger(base zerolog.Logger, connID, network, remote string) zerolog.Logger {
	return base.With().
		Str("conn", connID).
		Str("network", network).
		Str("remote", remote).
		Logger()
}
