package worker

import "net"

// ConnRegistry resolves a connection descriptor ID to its live net.Conn.
// internal/dispatcher.Dispatcher implements this; worker depends only on
// the interface, so the two packages don't import each other.
type ConnRegistry interface {
	Conn(id int) (net.Conn, bool)
}
