// Package scheduler implements the engine's deterministic discrete-event
// queue: a min-heap keyed by (timestamp, sequence number), so that events
// with identical timestamps always dispatch in insertion (FIFO) order.
// Cancellation marks an entry dead rather than removing it from the heap,
// avoiding an O(log n) heap deletion on the hot path.
package scheduler

import "github.com/loraflexsim/core/internal/phy"

// Kind enumerates the event kinds the engine dispatches.
type Kind uint8

const (
	KindTxStart Kind = iota
	KindTxEnd
	KindRxWindowOpen
	KindRxWindowClose
	KindBeacon
	KindPingSlot
	KindClassCPoll
	KindNodeWake
	KindDownlinkStart
	KindDownlinkEnd
)

func (k Kind) String() string {
	switch k {
	case KindTxStart:
		return "TX_START"
	case KindTxEnd:
		return "TX_END"
	case KindRxWindowOpen:
		return "RX_WINDOW_OPEN"
	case KindRxWindowClose:
		return "RX_WINDOW_CLOSE"
	case KindBeacon:
		return "BEACON"
	case KindPingSlot:
		return "PING_SLOT"
	case KindClassCPoll:
		return "CLASS_C_POLL"
	case KindNodeWake:
		return "NODE_WAKE"
	case KindDownlinkStart:
		return "DOWNLINK_START"
	case KindDownlinkEnd:
		return "DOWNLINK_END"
	default:
		return "UNKNOWN"
	}
}

// Handle identifies a scheduled event for later cancellation.
type Handle uint64

// Event is a single entry in the scheduler's heap.
type Event struct {
	Time    phy.Time
	Seq     uint64 // tie-breaker: insertion order
	Kind    Kind
	Payload interface{}

	handle Handle
	dead   bool
	index  int // heap index, maintained by container/heap
}

// Handle returns the event's cancellation handle.
func (e *Event) Handle() Handle { return e.handle }
