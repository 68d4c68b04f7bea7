package logging

import (
	"log/slog"

	"tierswap/pkg/primitives"
)

// WithOperation creates a logger tagged with a swap operation ID.
//
// Example:
//
//	log := logging.WithOperation(op.ID.String())
//	log.Info("executing", "steps", op.Len())
func WithOperation(opID string) *slog.Logger {
	return GetLogger().With("op_id", opID)
}

// WithState creates a logger tagged with a swap state name.
func WithState(state string) *slog.Logger {
	return GetLogger().With("state", state)
}

// WithPage creates a logger tagged with a state and page number.
// Useful for store and swapper I/O.
//
// Example:
//
//	log := logging.WithPage("cache", 17)
//	log.Debug("page written", "bytes", len(data))
func WithPage(state string, page primitives.PageNumber) *slog.Logger {
	return GetLogger().With("state", state, "page", uint64(page))
}

// WithSwapper creates a logger tagged with the two states a swapper joins.
func WithSwapper(out, in string) *slog.Logger {
	return GetLogger().With("swapped_out", out, "swapped_in", in)
}

// WithComponent creates a logger tagged with a subsystem name.
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger carrying the error text.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
