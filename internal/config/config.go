// Package config parses fcached's server configuration file: a
// line-oriented `KEY = value` grammar with six required keys, matching
// the protocol's config grammar bit-for-bit.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/wire"
)

// Config is the parsed contents of a server configuration file.
type Config struct {
	WorkerThreads int
	MaxFiles      int
	MaxBytes      int
	SocketPath    string
	LogPath       string
	Policy        cache.Policy
}

// Errors returned while parsing a configuration file.
var (
	ErrDuplicateKey = errors.New("config: duplicate key")
	ErrMissingKey   = errors.New("config: missing required key")
	ErrUnknownKey   = errors.New("config: unknown key")
	ErrZeroValue    = errors.New("config: value must not be zero")
	ErrBadValue     = errors.New("config: malformed value")
)

// keys, in the order spec §6.3 lists them. The grammar allows them in
// any order in the file; this slice is only used to check completeness.
var keys = []string{
	"NUMBER OF WORKER THREADS",
	"MAX NUMBER OF FILES ACCEPTED",
	"MAX CACHE SIZE",
	"SOCKET FILE PATH",
	"LOG FILE PATH",
	"REPLACEMENT POLICY",
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse parses the configuration grammar from r.
func Parse(r io.Reader) (Config, error) {
	values := make(map[string]string, len(keys))

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Config{}, fmt.Errorf("%w: %q", ErrBadValue, line)
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if !validKey(key) {
			return Config{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}

		if _, dup := values[key]; dup {
			return Config{}, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}

		values[key] = value
	}

	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: read: %w", err)
	}

	for _, key := range keys {
		if _, ok := values[key]; !ok {
			return Config{}, fmt.Errorf("%w: %q", ErrMissingKey, key)
		}
	}

	var cfg Config

	var err error

	if cfg.WorkerThreads, err = positiveInt(values["NUMBER OF WORKER THREADS"]); err != nil {
		return Config{}, err
	}
	if cfg.MaxFiles, err = positiveInt(values["MAX NUMBER OF FILES ACCEPTED"]); err != nil {
		return Config{}, err
	}
	if cfg.MaxBytes, err = positiveInt(values["MAX CACHE SIZE"]); err != nil {
		return Config{}, err
	}

	cfg.SocketPath = values["SOCKET FILE PATH"]
	if len(cfg.SocketPath) == 0 || len(cfg.SocketPath) > wire.MaxPathLen {
		return Config{}, fmt.Errorf("%w: SOCKET FILE PATH length", ErrBadValue)
	}

	cfg.LogPath = values["LOG FILE PATH"]
	if len(cfg.LogPath) == 0 {
		return Config{}, fmt.Errorf("%w: LOG FILE PATH empty", ErrBadValue)
	}

	policyN, err := strconv.Atoi(values["REPLACEMENT POLICY"])
	if err != nil {
		return Config{}, fmt.Errorf("%w: REPLACEMENT POLICY %q: %w", ErrBadValue, values["REPLACEMENT POLICY"], err)
	}

	// FIFO=0, LRU=1, LFU=2: the worker-facing mapping, resolving the two
	// disagreeing header copies noted in the protocol's design notes.
	cfg.Policy = cache.Policy(policyN)
	if !cache.ValidPolicy(cfg.Policy) {
		return Config{}, fmt.Errorf("%w: REPLACEMENT POLICY %d out of range", ErrBadValue, policyN)
	}

	return cfg, nil
}

func validKey(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}

	return false
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrBadValue, s, err)
	}

	if n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrZeroValue, s)
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrBadValue, s)
	}

	return n, nil
}
