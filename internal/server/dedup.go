// Package server implements the network server: cross-gateway
// deduplication, per-gateway SNIR history, ADR decisions, and downlink
// scheduling for class A/B/C (spec.md §4.6). The bounded-LRU dedup cache
// is the one component in this package built on the standard library
// (container/list) rather than a pack dependency — no LRU cache library
// appears anywhere in the retrieved corpus, so this is a documented
// stdlib exception (see DESIGN.md) rather than an invented abstraction.
package server

import (
	"container/list"

	"github.com/loraflexsim/core/internal/types"
)

// UplinkKey identifies one uplink "event" for deduplication across
// gateways: (node, FCntUp, frame hash), per spec.
type UplinkKey struct {
	Node    types.NodeID
	FCntUp  uint32
	FrameID uint64 // hash of the frame payload/MIC
}

// Dedup is a bounded LRU of recently seen uplink events. Every gateway
// copy of an event is retained elsewhere for SNIR accounting (callers
// keep that list); Dedup only decides whether THIS copy is the first one
// the server has seen, i.e. the one that should actually be acted on.
type Dedup struct {
	capacity int
	ll       *list.List
	index    map[UplinkKey]*list.Element
}

// NewDedup returns a Dedup bounded to capacity entries; the least
// recently seen event is evicted once capacity is exceeded.
func NewDedup(capacity int) *Dedup {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Dedup{capacity: capacity, ll: list.New(), index: map[UplinkKey]*list.Element{}}
}

// Observe reports whether key has been seen before (and refreshes its
// recency), and records it as seen for future calls. The boolean return
// is true exactly for the FIRST gateway copy of a given uplink event.
func (d *Dedup) Observe(key UplinkKey) (firstSeen bool) {
	if el, ok := d.index[key]; ok {
		d.ll.MoveToFront(el)
		return false
	}
	el := d.ll.PushFront(key)
	d.index[key] = el
	if d.ll.Len() > d.capacity {
		oldest := d.ll.Back()
		if oldest != nil {
			d.ll.Remove(oldest)
			delete(d.index, oldest.Value.(UplinkKey))
		}
	}
	return true
}

// Len reports the number of events currently tracked.
func (d *Dedup) Len() int { return d.ll.Len() }
