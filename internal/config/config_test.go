package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/config"
)

const validConfig = `
NUMBER OF WORKER THREADS = 4
MAX NUMBER OF FILES ACCEPTED = 100
MAX CACHE SIZE = 1048576
SOCKET FILE PATH = /tmp/fcached.sock
LOG FILE PATH = /tmp/fcached.log
REPLACEMENT POLICY = 1
`

func TestParseValid(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(validConfig))
	require.NoError(t, err)
	require.Equal(t, 4, cfg.WorkerThreads)
	require.Equal(t, 100, cfg.MaxFiles)
	require.Equal(t, 1048576, cfg.MaxBytes)
	require.Equal(t, "/tmp/fcached.sock", cfg.SocketPath)
	require.Equal(t, "/tmp/fcached.log", cfg.LogPath)
	require.Equal(t, cache.LRU, cfg.Policy)
}

func TestParseMissingKey(t *testing.T) {
	missing := strings.Replace(validConfig, "REPLACEMENT POLICY = 1\n", "", 1)

	_, err := config.Parse(strings.NewReader(missing))
	require.ErrorIs(t, err, config.ErrMissingKey)
}

func TestParseDuplicateKey(t *testing.T) {
	dup := validConfig + "\nNUMBER OF WORKER THREADS = 8\n"

	_, err := config.Parse(strings.NewReader(dup))
	require.ErrorIs(t, err, config.ErrDuplicateKey)
}

func TestParseZeroValue(t *testing.T) {
	zero := strings.Replace(validConfig, "NUMBER OF WORKER THREADS = 4", "NUMBER OF WORKER THREADS = 0", 1)

	_, err := config.Parse(strings.NewReader(zero))
	require.ErrorIs(t, err, config.ErrZeroValue)
}

func TestParsePolicyOutOfRange(t *testing.T) {
	bad := strings.Replace(validConfig, "REPLACEMENT POLICY = 1", "REPLACEMENT POLICY = 7", 1)

	_, err := config.Parse(strings.NewReader(bad))
	require.ErrorIs(t, err, config.ErrBadValue)
}

func TestParseUnknownKey(t *testing.T) {
	bad := validConfig + "\nBOGUS KEY = 1\n"

	_, err := config.Parse(strings.NewReader(bad))
	require.ErrorIs(t, err, config.ErrUnknownKey)
}
