package server

import (
	"github.com/loraflexsim/core/internal/node"
	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/types"
)

// DefaultNetworkLatency and DefaultProcessingDelay are the fixed network
// latency and server processing delay spec.md §4.6 inserts between
// TX_END at the gateway and the scheduled downlink, tuned to match the
// reference's own timings; both are overridable per NetworkServer.
var (
	DefaultNetworkLatency    = phy.FromSeconds(0.010)
	DefaultProcessingDelay   = phy.FromSeconds(1.2)
	DefaultRXDelay           = phy.FromSeconds(1.0)
	DefaultRX2Offset         = phy.FromSeconds(1.0)
)

// UplinkResult is what RecordUplink reports about one gateway's copy of
// an uplink.
type UplinkResult struct {
	FirstSeen bool // true only for the first gateway copy of this event
}

// NetworkServer binds deduplication, per-gateway SNIR history, ADR
// decisions, and class A/B/C downlink scheduling into the single
// component spec.md §4.6 names. It holds no direct reference to the
// Scheduler or Gateway/Node maps -- those stay owned by the engine loop
// (internal/simulator), which calls into NetworkServer as a stateless-ish
// collaborator per uplink/downlink decision point.
type NetworkServer struct {
	Dedup   *Dedup
	History *SNIRHistory
	Downlink *DownlinkScheduler

	ADRMethod      ADRMethod
	DeviceMarginDB float64

	NetworkLatency  phy.Time
	ProcessingDelay phy.Time
	RXDelay         phy.Time
	RX2Offset       phy.Time
}

// New returns a NetworkServer with the spec's default timings and a
// dedup cache bounded to capacity entries (<=0 uses the package default).
func New(method ADRMethod, capacity int) *NetworkServer {
	return &NetworkServer{
		Dedup:           NewDedup(capacity),
		History:         NewSNIRHistory(),
		Downlink:        NewDownlinkScheduler(),
		ADRMethod:       method,
		DeviceMarginDB:  defaultDeviceMarginDB,
		NetworkLatency:  DefaultNetworkLatency,
		ProcessingDelay: DefaultProcessingDelay,
		RXDelay:         DefaultRXDelay,
		RX2Offset:       DefaultRX2Offset,
	}
}

// RecordUplink folds in one gateway's copy of an uplink event: the SNIR
// sample is appended to that (node, gateway)'s sliding window
// unconditionally (every copy counts for SNIR accounting), while dedup
// decides whether this copy is the one the server should act on.
func (s *NetworkServer) RecordUplink(key UplinkKey, gw types.GatewayID, rssi, snir float64) UplinkResult {
	s.History.Append(key.Node, gw, Sample{RSSI: rssi, SNIR: snir})
	return UplinkResult{FirstSeen: s.Dedup.Observe(key)}
}

// DecideADR wraps ComputeADR with this server's configured method and
// device margin, so callers never need to know the algorithm's constants.
func (s *NetworkServer) DecideADR(n *node.Node) (ADRDecision, bool) {
	return ComputeADR(s.ADRMethod, s.History, n, s.DeviceMarginDB)
}

// ProcessingComplete returns when the uplink's TX_END result becomes
// available to the server: gateway decision time plus network latency
// plus processing delay, per spec.md §4.6.
func (s *NetworkServer) ProcessingComplete(txEnd phy.Time) phy.Time {
	return txEnd + s.NetworkLatency + s.ProcessingDelay
}

// RX1Window returns the RX1 open time, rx_delay after TX_END, per
// spec.md §4.6.
func (s *NetworkServer) RX1Window(txEnd phy.Time) phy.Time {
	return txEnd + s.RXDelay
}

// RX2Window returns the RX2 open time, rx_delay + 1s after TX_END.
func (s *NetworkServer) RX2Window(txEnd phy.Time) phy.Time {
	return txEnd + s.RXDelay + s.RX2Offset
}
