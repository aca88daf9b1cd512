//go:build !unix

package dispatcher

import (
	"net"
	"sync/atomic"
)

// nextID assigns sequential synthetic descriptor numbers on platforms
// without an fd-based connection identity (spec §3's "equal to the
// connection descriptor" is a Unix-specific convenience the original
// implementation relied on; this fallback keeps the same invariant —
// positive, unique, stable for the life of the connection — without it).
var nextID atomic.Int64

func connID(_ net.Conn) (int, error) {
	return int(nextID.Add(1)), nil
}
