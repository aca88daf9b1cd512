package worker

import (
	"github.com/dkroeger/fcached/internal/cache"
	"github.com/dkroeger/fcached/internal/wire"
)

// dispatch invokes the cache engine for req and classifies the result
// into a wire.Outcome. result carries whatever operation-specific payload
// writeReply needs: []byte for READ, []cache.NamedContent for READ_N, or
// []cache.Victim for WRITE/APPEND; nil for every other operation.
func (p *Pool) dispatch(req wire.Request, body []byte, client cache.ClientID) (wire.Outcome, any, error) {
	var (
		result any
		err    error
	)

	switch req.Op {
	case wire.OpOpen:
		err = p.Cache.OpenFile(req.Path, cache.Flags(req.Flags), client)

	case wire.OpClose:
		err = p.Cache.CloseFile(req.Path, client)

	case wire.OpRead:
		result, err = p.Cache.ReadFile(req.Path, client)

	case wire.OpReadN:
		result = p.Cache.ReadNFiles(req.N, client)

	case wire.OpWrite:
		result, err = p.Cache.WriteFile(req.Path, body, client)

	case wire.OpAppend:
		result, err = p.Cache.AppendToFile(req.Path, body, client)

	case wire.OpLock:
		err = p.Cache.LockFile(req.Path, client)

	case wire.OpUnlock:
		err = p.Cache.UnlockFile(req.Path, client)

	case wire.OpRemove:
		err = p.Cache.RemoveFile(req.Path, client)
	}

	return outcomeFor(err), result, err
}

func outcomeFor(err error) wire.Outcome {
	switch {
	case err == nil:
		return wire.Success
	case isFatal(err):
		return wire.Fatal
	default:
		return wire.Failure
	}
}
