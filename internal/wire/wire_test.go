package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkroeger/fcached/internal/wire"
)

func TestEncodeDecodeOpen(t *testing.T) {
	frame, err := wire.EncodeOpen("foo/bar", wire.FlagCreate|wire.FlagLock)
	require.NoError(t, err)
	require.Len(t, frame, wire.RequestFrameSize)

	req, err := wire.DecodeRequest(frame)
	require.NoError(t, err)
	require.Equal(t, wire.OpOpen, req.Op)
	require.Equal(t, "foo/bar", req.Path)
	require.True(t, req.Flags.Has(wire.FlagCreate))
	require.True(t, req.Flags.Has(wire.FlagLock))
}

func TestEncodeDecodeReadN(t *testing.T) {
	frame, err := wire.EncodeReadN(5)
	require.NoError(t, err)

	req, err := wire.DecodeRequest(frame)
	require.NoError(t, err)
	require.Equal(t, wire.OpReadN, req.Op)
	require.Equal(t, 5, req.N)
}

func TestEncodeDecodeWrite(t *testing.T) {
	frame, err := wire.EncodeWriteHeader("x", 1234)
	require.NoError(t, err)

	req, err := wire.DecodeRequest(frame)
	require.NoError(t, err)
	require.Equal(t, wire.OpWrite, req.Op)
	require.Equal(t, "x", req.Path)
	require.Equal(t, 1234, req.Length)
}

func TestEncodeDecodeShutdown(t *testing.T) {
	frame, err := wire.EncodeShutdown()
	require.NoError(t, err)

	req, err := wire.DecodeRequest(frame)
	require.NoError(t, err)
	require.Equal(t, wire.OpShutdown, req.Op)
}

func TestDecodeMalformed(t *testing.T) {
	frame := make([]byte, wire.RequestFrameSize)
	copy(frame, "not a number")

	_, err := wire.DecodeRequest(frame)
	require.ErrorIs(t, err, wire.ErrMalformedRequest)
}

func TestPathTooLong(t *testing.T) {
	long := bytes.Repeat([]byte("a"), wire.MaxPathLen+1)
	frame := make([]byte, wire.RequestFrameSize)
	copy(frame, "1 "+string(long)) // CLOSE op

	_, err := wire.DecodeRequest(frame)
	require.ErrorIs(t, err, wire.ErrFieldTooLarge)
}

func TestOutcomeRoundTrip(t *testing.T) {
	for _, outcome := range []wire.Outcome{wire.Success, wire.Failure, wire.Fatal} {
		var buf bytes.Buffer
		require.NoError(t, wire.WriteOutcome(&buf, outcome))
		require.Equal(t, wire.OutcomeFieldSize, buf.Len())

		got, err := wire.ReadOutcome(&buf)
		require.NoError(t, err)
		require.Equal(t, outcome, got)
	}
}

func TestSizeFieldRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteSizeField(&buf, 0))
	require.NoError(t, wire.WriteSizeField(&buf, 424242))

	n, err := wire.ReadSizeField(&buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = wire.ReadSizeField(&buf)
	require.NoError(t, err)
	require.Equal(t, 424242, n)
}

func TestPathFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WritePathFrame(&buf, "some/path"))
	require.Equal(t, wire.PathFrameSize, buf.Len())

	got, err := wire.ReadPathFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, "some/path", got)
}

func TestPayloadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	content := []byte("hello world")
	require.NoError(t, wire.WritePayload(&buf, content))

	got, err := wire.ReadPayload(&buf, len(content))
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestReadPayloadShortReadIsBadProtocolSize(t *testing.T) {
	buf := bytes.NewBufferString("short")
	_, err := wire.ReadPayload(buf, 100)
	require.ErrorIs(t, err, wire.ErrBadProtocolSize)
}

func TestZeroLengthPayloadProducesNoBytesOnWire(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WritePayload(&buf, nil))
	require.Equal(t, 0, buf.Len())

	got, err := wire.ReadPayload(&buf, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}
