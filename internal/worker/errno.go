package worker

import (
	"errors"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/wire"
)

// errnoFor maps a cache engine or wire-framing error to the protocol's
// errno-like field. Errors not recognized here (there should be none in
// practice) map to ErrnoUnknown rather than panicking.
func errnoFor(err error) int {
	switch {
	case errors.Is(err, cache.ErrInvalidArgument):
		return wire.ErrnoInvalidArgument
	case errors.Is(err, cache.ErrNoSuchEntry):
		return wire.ErrnoNoSuchEntry
	case errors.Is(err, cache.ErrAlreadyExists):
		return wire.ErrnoAlreadyExists
	case errors.Is(err, cache.ErrAlreadyOpen):
		return wire.ErrnoAlreadyOpen
	case errors.Is(err, cache.ErrAccessDenied):
		return wire.ErrnoAccessDenied
	case errors.Is(err, cache.ErrPermissionDenied):
		return wire.ErrnoPermissionDenied
	case errors.Is(err, cache.ErrNoSpace):
		return wire.ErrnoNoSpace
	case errors.Is(err, cache.ErrFileTooBig):
		return wire.ErrnoFileTooBig
	case errors.Is(err, cache.ErrEvicted):
		return wire.ErrnoEvicted
	case errors.Is(err, cache.ErrOutOfMemory):
		return wire.ErrnoOutOfMemory
	case errors.Is(err, wire.ErrBadProtocolSize):
		return wire.ErrnoBadProtocolSize
	case errors.Is(err, wire.ErrMalformedRequest), errors.Is(err, wire.ErrFieldTooLarge):
		return wire.ErrnoBadMessage
	default:
		return wire.ErrnoUnknown
	}
}

// isFatal reports whether err represents the engine's FATAL outcome
// (spec §4.2.5, §4.3): currently only out-of-memory during append growth.
func isFatal(err error) bool {
	return errors.Is(err, cache.ErrOutOfMemory)
}
