package cache

import "fmt"

// Policy selects which file is chosen as an eviction victim when the
// cache is over capacity. The numeric values match the REPLACEMENT
// POLICY values accepted by the server's configuration file: this is the
// worker-facing mapping noted in the protocol's design notes, resolving
// the ambiguity between the two header copies the original implementation
// shipped.
type Policy int

const (
	// FIFO evicts the oldest file by insertion order.
	FIFO Policy = 0
	// LRU evicts the file with the oldest last access time.
	LRU Policy = 1
	// LFU evicts the file with the fewest accesses.
	LFU Policy = 2
)

func (p Policy) String() string {
	switch p {
	case FIFO:
		return "FIFO"
	case LRU:
		return "LRU"
	case LFU:
		return "LFU"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ValidPolicy reports whether p is one of FIFO, LRU, or LFU.
func ValidPolicy(p Policy) bool {
	switch p {
	case FIFO, LRU, LFU:
		return true
	default:
		return false
	}
}
