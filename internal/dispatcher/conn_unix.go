//go:build unix

package dispatcher

import (
	"fmt"
	"net"
	"syscall"
)

// connID extracts the connection's underlying file descriptor number,
// which spec §3 defines as the client identity: "a positive integer equal
// to the connection descriptor on the server side".
func connID(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0, fmt.Errorf("%w: %T has no SyscallConn", errConnIDUnavailable, conn)
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errConnIDUnavailable, err)
	}

	var fd int

	ctrlErr := raw.Control(func(rawFD uintptr) {
		fd = int(rawFD)
	})
	if ctrlErr != nil {
		return 0, fmt.Errorf("%w: %w", errConnIDUnavailable, ctrlErr)
	}

	if fd <= 0 {
		return 0, fmt.Errorf("%w: fd %d", errConnIDUnavailable, fd)
	}

	return fd, nil
}
