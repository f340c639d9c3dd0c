package server

import (
	"math"

	"github.com/loraflexsim/core/internal/types"
)

// maxSNIRWindow bounds every per-(node, gateway) sliding SNIR window to
// 20 samples, per spec's ADR sliding-window invariant.
const maxSNIRWindow = 20

// Sample is one SNIR/RSSI observation reported by a gateway for a node.
type Sample struct {
	RSSI float64
	SNIR float64
}

// SNIRHistory holds, per node, a per-gateway sliding window of SNIR
// samples (spec.md §4.6): the server never recomputes ADR input from a
// global noise floor, only from gateway-reported per-packet SNIR, which
// is the corrected design spec.md §9 calls out against the source's own
// defect.
type SNIRHistory struct {
	byNode map[types.NodeID]map[types.GatewayID][]Sample
}

// NewSNIRHistory returns an empty history.
func NewSNIRHistory() *SNIRHistory {
	return &SNIRHistory{byNode: map[types.NodeID]map[types.GatewayID][]Sample{}}
}

// Append records one sample for (node, gateway), evicting the oldest
// sample once the window exceeds maxSNIRWindow.
func (h *SNIRHistory) Append(node types.NodeID, gw types.GatewayID, s Sample) {
	perGW, ok := h.byNode[node]
	if !ok {
		perGW = map[types.GatewayID][]Sample{}
		h.byNode[node] = perGW
	}
	window := append(perGW[gw], s)
	if len(window) > maxSNIRWindow {
		window = window[len(window)-maxSNIRWindow:]
	}
	perGW[gw] = window
}

// Window returns the current sliding window for (node, gateway).
func (h *SNIRHistory) Window(node types.NodeID, gw types.GatewayID) []Sample {
	return h.byNode[node][gw]
}

// Gateways returns the set of gateways that have ever reported a sample
// for node.
func (h *SNIRHistory) Gateways(node types.NodeID) []types.GatewayID {
	var out []types.GatewayID
	for gw := range h.byNode[node] {
		out = append(out, gw)
	}
	return out
}

// AvgMargin implements adr_method="avg": average the SNIR across each
// gateway's window, then return the BEST gateway's average as the node's
// SNR margin input, per spec.
func (h *SNIRHistory) AvgMargin(node types.NodeID) (float64, bool) {
	perGW, ok := h.byNode[node]
	if !ok || len(perGW) == 0 {
		return 0, false
	}
	best := math.Inf(-1)
	found := false
	for _, window := range perGW {
		if len(window) == 0 {
			continue
		}
		var sum float64
		for _, s := range window {
			sum += s.SNIR
		}
		avg := sum / float64(len(window))
		if avg > best {
			best = avg
		}
		found = true
	}
	return best, found
}

// MaxMargin implements adr_method="max": the maximum SNIR observed across
// the entire window, across all gateways.
func (h *SNIRHistory) MaxMargin(node types.NodeID) (float64, bool) {
	perGW, ok := h.byNode[node]
	if !ok || len(perGW) == 0 {
		return 0, false
	}
	best := math.Inf(-1)
	found := false
	for _, window := range perGW {
		for _, s := range window {
			if s.SNIR > best {
				best = s.SNIR
				found = true
			}
		}
	}
	return best, found
}

