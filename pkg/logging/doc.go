// Package logging provides the process-wide structured logger for tierswap.
//
// The package wraps [log/slog] and exposes a single global logger that is
// initialised once and retrieved via GetLogger. Every subsystem obtains its
// logger here so level, format and destination are controlled in one place.
//
// # Initialisation
//
// Call Init (or InitDefault) once at program start:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level text logs to stderr. If GetLogger is called
// before Init, the default logger is created lazily.
//
// # Context helpers
//
// Helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithOperation(op.ID.String()) // adds op_id
//	log := logging.WithState("cache")            // adds state
//	log := logging.WithPage("cache", 17)         // adds state and page
package logging
