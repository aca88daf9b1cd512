package cache

import "errors"

// Sentinel errors returned by cache engine operations. Every FAILURE and
// FATAL outcome the protocol can carry is one of these, so callers can
// classify a reported error with errors.Is.
var (
	// ErrInvalidArgument covers a null or oversize input (e.g. a path
	// longer than MaxPathLen).
	ErrInvalidArgument = errors.New("cache: invalid argument")

	// ErrNoSuchEntry is returned when an operation names a file that does
	// not exist in the cache.
	ErrNoSuchEntry = errors.New("cache: no such entry")

	// ErrAlreadyExists is returned by OpenFile with CREATE set when the
	// file already exists.
	ErrAlreadyExists = errors.New("cache: already exists")

	// ErrAlreadyOpen is returned by OpenFile when the calling client has
	// already opened the file.
	ErrAlreadyOpen = errors.New("cache: already open")

	// ErrAccessDenied is returned when the calling client has not opened
	// the file it is operating on.
	ErrAccessDenied = errors.New("cache: access denied")

	// ErrPermissionDenied is returned when another client holds the
	// file's lock.
	ErrPermissionDenied = errors.New("cache: permission denied")

	// ErrNoSpace is returned by OpenFile with CREATE set when the cache
	// is already at its file-count limit.
	ErrNoSpace = errors.New("cache: no space")

	// ErrFileTooBig is returned by WriteFile when the content alone
	// exceeds the cache's byte-total limit.
	ErrFileTooBig = errors.New("cache: file too big")

	// ErrEvicted is returned by WriteFile/AppendToFile when the target
	// file itself was chosen as an eviction victim before the write
	// could complete.
	ErrEvicted = errors.New("cache: evicted")

	// ErrOutOfMemory is a FATAL condition: allocation failed while
	// growing a file's content.
	ErrOutOfMemory = errors.New("cache: out of memory")
)
