package worker

import (
	"io"

	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/wire"
)

// writeReply writes the full reply for op: the outcome frame, an errno
// frame on non-success, then whatever operation-specific payload §6.2
// mandates. Size/count frames are always sent, with K=0 or S=0 on
// failure, so the client's parser never needs to special-case an error
// path (spec §9, "Payload symmetry on error").
func writeReply(w io.Writer, op wire.Op, outcome wire.Outcome, err error, result any) error {
	if werr := wire.WriteOutcome(w, outcome); werr != nil {
		return werr
	}

	if outcome != wire.Success {
		if werr := wire.WriteErrno(w, errnoFor(err)); werr != nil {
			return werr
		}
	}

	switch op {
	case wire.OpRead:
		return writeReadReply(w, result)
	case wire.OpReadN:
		return writeReadNReply(w, result)
	case wire.OpWrite, wire.OpAppend:
		return writeVictimsReply(w, result)
	default:
		return nil
	}
}

func writeReadReply(w io.Writer, result any) error {
	content, _ := result.([]byte)

	if err := wire.WriteSizeField(w, len(content)); err != nil {
		return err
	}

	return wire.WritePayload(w, content)
}

func writeReadNReply(w io.Writer, result any) error {
	items, _ := result.([]cache.NamedContent)

	if err := wire.WriteSizeField(w, len(items)); err != nil {
		return err
	}

	for _, item := range items {
		if err := wire.WritePathFrame(w, item.Name); err != nil {
			return err
		}
		if err := wire.WriteSizeField(w, len(item.Content)); err != nil {
			return err
		}
		if err := wire.WritePayload(w, item.Content); err != nil {
			return err
		}
	}

	return nil
}

func writeVictimsReply(w io.Writer, result any) error {
	victims, _ := result.([]cache.Victim)

	if err := wire.WriteSizeField(w, len(victims)); err != nil {
		return err
	}

	for _, v := range victims {
		if err := wire.WritePathFrame(w, v.Name); err != nil {
			return err
		}
		if err := wire.WriteSizeField(w, len(v.Content)); err != nil {
			return err
		}
		if err := wire.WritePayload(w, v.Content); err != nil {
			return err
		}
	}

	return nil
}
