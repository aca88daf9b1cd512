// Package worker implements the fixed worker pool that sits between the
// bounded task queue and the cache engine: each worker dequeues one ready
// connection descriptor, reads exactly one request frame from it, invokes
// the cache engine, writes the reply frame(s), and reports the outcome
// back to the dispatcher so it can re-arm (or retire) the connection.
package worker

// Notification is what a worker reports back to the dispatcher after
// handling one request on a connection. It is the in-process equivalent
// of the protocol's 10-byte notification-pipe frame (spec §6.5): Departed
// plays the role of the wire value 0 ("client left"); otherwise ID names
// the connection to re-arm.
type Notification struct {
	ID       int
	Departed bool
}
