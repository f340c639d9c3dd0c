// Package simulator binds the channel/PHY, gateway, node, scheduler and
// network-server packages into the engine spec.md §4.7 describes: it
// drives the discrete-event loop, plans the first Poisson arrival for
// every node at init, and owns the one piece of genuinely mutable,
// loop-thread-only state a run has (spec.md §5). Structurally this
// mirrors the teacher's simulation.Simulation (a struct of owned
// collaborators plus Run/Stop and a sorted node-id accessor) though the
// loop it drives is this engine's own TX_START/TX_END/RX-window/beacon
// dispatch, not OT-NS's dispatcher/UART IPC loop.
package simulator

import (
	"sort"

	"github.com/loraflexsim/core/internal/config"
	"github.com/loraflexsim/core/internal/energy"
	"github.com/loraflexsim/core/internal/gateway"
	"github.com/loraflexsim/core/internal/logger"
	"github.com/loraflexsim/core/internal/metrics"
	"github.com/loraflexsim/core/internal/node"
	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/prng"
	"github.com/loraflexsim/core/internal/progctx"
	"github.com/loraflexsim/core/internal/scheduler"
	"github.com/loraflexsim/core/internal/server"
	"github.com/loraflexsim/core/internal/simerrors"
	"github.com/loraflexsim/core/internal/trace"
	"github.com/loraflexsim/core/internal/types"
)

const (
	defaultPreambleSymbols = 8
	defaultCodingRate      = 1 // CR 4/5
)

// PHYParams bundles the propagation/PER model choices a run applies
// uniformly, per spec.md §4.1's tagged-variant dispatch (no class
// hierarchy: a small struct of enums plus the model-specific constant
// bundles each pure function already takes).
type PHYParams struct {
	PathLossModel PathLossModel
	LogNormal     phy.LogNormalParams
	Hata          phy.HataOkumuraParams
	Oulu          phy.OuluParams

	PERModel      PERModel
	ReferenceMode bool

	AntennaGainDB  float64
	CableLossDB    float64
	ObstacleLossDB float64
}

// PathLossModel and PERModel re-export phy's tagged enums so scenario
// wiring only needs to import this package.
type PathLossModel = phy.PathLossModel
type PERModel = phy.PERModel

// DefaultPHYParams returns the reference log-normal preset with the
// default logistic PER model, matching spec.md §4.1's defaults.
func DefaultPHYParams() PHYParams {
	return PHYParams{
		PathLossModel: phy.PathLossLogNormal,
		LogNormal:     phy.DefaultLogNormalParams(),
		Hata:          phy.DefaultHataOkumuraParams(),
		Oulu:          phy.DefaultOuluParams(),
		PERModel:      phy.PERLogistic,
		ReferenceMode: true,
	}
}

// inFlightTx is the bookkeeping for one node's in-progress transmission,
// alive from TX_START dispatch to TX_END dispatch.
type inFlightTx struct {
	Channel    types.Channel
	SF         phy.SF
	Start, End phy.Time
	Airtime    phy.Time
	FCntUp     uint32
	FrameHash  uint64
	NoiseDBm   float64
	Receptions map[types.GatewayID]*gateway.Slot
}

// Simulator owns every collaborator for one run: nodes, gateways, the
// network server, the event scheduler, the run's PRNG streams, and the
// trace/metrics sinks. No field here is shared across runs (spec.md §5).
type Simulator struct {
	Ctx       *progctx.ProgCtx
	Scheduler *scheduler.Scheduler
	Streams   *prng.Streams
	Server    *server.NetworkServer
	Trace     *trace.Recorder
	Metrics   *metrics.Collector
	Energy    *energy.Registry

	Nodes    map[types.NodeID]*node.Node
	Gateways map[types.GatewayID]*gateway.Gateway

	ChannelPlan types.ChannelPlan
	Region      config.Region
	PHY         PHYParams

	MaxSimTime   phy.Time
	BeaconPeriod phy.Time
	now          phy.Time
	stopped      bool

	inFlight map[types.NodeID]*inFlightTx
}

// New constructs a Simulator from a parsed scenario: region/channel plan,
// node groups placed uniformly at random within their configured area
// (using the run's mobility stream), gateways at their configured
// positions, and a network server configured per the scenario's ADR
// settings. Returns a ConfigError if the scenario names an unknown ADR
// method (Validate should already have caught this, but New re-checks
// since it is also a valid entry point for in-memory scenarios).
func New(cfg *config.Scenario) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	region := config.RegionByName(cfg.Region)
	plan := cfg.ChannelPlan() // Validate above already guarantees a non-empty channel list

	streams := prng.New(cfg.Seed)
	energyRegistry := energy.NewRegistry()

	method := server.ADRAvg
	if server.ADRMethod(cfg.ADRMethod) == server.ADRMax {
		method = server.ADRMax
	}

	recorder := trace.NewRecorder()
	logger.SetRunID(recorder.RunID.String())

	sim := &Simulator{
		Ctx:         progctx.New(nil),
		Scheduler:   scheduler.New(),
		Streams:     streams,
		Server:      server.New(method, 4096),
		Trace:       recorder,
		Metrics:     metrics.New(),
		Energy:      energyRegistry,
		Nodes:       map[types.NodeID]*node.Node{},
		Gateways:    map[types.GatewayID]*gateway.Gateway{},
		ChannelPlan: plan,
		Region:      region,
		PHY:          phyParamsFor(cfg),
		MaxSimTime:   phy.FromSeconds(cfg.MaxSimTimeSec),
		BeaconPeriod: phy.FromSeconds(nonZero(cfg.BeaconPeriodSec, 128)),
		inFlight:     map[types.NodeID]*inFlightTx{},
	}

	var gwID types.GatewayID
	for _, gs := range cfg.Gateways {
		gwID++
		sim.Gateways[gwID] = gateway.New(gwID, types.Position{X: gs.X, Y: gs.Y, Z: gs.Z})
	}
	if len(sim.Gateways) == 0 {
		return nil, simerrors.ConfigErrorf("scenario must configure at least one gateway")
	}

	var nodeID types.NodeID
	for _, group := range cfg.NodeGroups {
		profile, err := energyRegistry.Get(nonEmpty(cfg.EnergyProfile, "flora"))
		if err != nil {
			return nil, err
		}
		for i := 0; i < group.Count; i++ {
			nodeID++
			pos := randomPosition(streams, group.AreaWidthM, group.AreaHeightM)
			if group.Position != nil {
				pos = *group.Position
			}
			n := node.New(nodeID, pos, classFromString(group.Class))
			n.EnergyProfile = profile
			if group.SpreadFactor >= 7 && group.SpreadFactor <= 12 {
				n.SF = phy.SF(group.SpreadFactor)
			}
			if group.TxPowerDBm != 0 {
				n.TxPowerDBm = group.TxPowerDBm
			}
			n.PacketBudget = group.PacketBudget
			n.IntervalMeanSec = group.IntervalSeconds
			n.PayloadBytes = 20
			n.ADR = nodeadr(group.ADR)
			for _, ch := range plan.Channels {
				if ch.Band != "" && region.DutyCycle > 0 {
					n.DutyCycle.SetBand(ch.Band, region.DutyCycle, 3600)
				}
			}
			n.ClassB = node.ClassBState{
				PingSlotPeriod: phy.FromSeconds(nonZero(cfg.PingSlotPeriodSec, 1)),
				BeaconPeriod:   phy.FromSeconds(nonZero(cfg.BeaconPeriodSec, 128)),
			}
			n.ClassC = node.ClassCState{PollInterval: phy.FromSeconds(nonZero(cfg.ClassCPollSec, 1))}
			sim.Nodes[nodeID] = n
		}
	}
	if len(sim.Nodes) == 0 {
		return nil, simerrors.ConfigErrorf("scenario must configure at least one node group with count > 0")
	}

	return sim, nil
}

// Init schedules every node's first TX_START, drawn from
// Exp(first_packet_interval), per spec.md §4.7, and (for class B/C
// nodes) their first beacon/poll events.
func (s *Simulator) Init() {
	// Iteration is in ascending NodeID order, not Go's randomized map
	// order: every draw from a shared PRNG stream is order-sensitive, and
	// spec.md §8 requires byte-identical traces for a fixed seed.
	for _, id := range s.NodeIDs() {
		delta := s.Streams.NextExponential(s.Nodes[id].IntervalMeanSec)
		s.Scheduler.Insert(phy.FromSeconds(delta), scheduler.KindTxStart, id)
	}
	for _, gwID := range s.gatewayIDs() {
		s.Scheduler.Insert(s.BeaconPeriod, scheduler.KindBeacon, gwID)
	}
	for _, id := range s.NodeIDs() {
		if s.Nodes[id].Class == types.ClassC {
			s.Scheduler.Insert(s.Nodes[id].ClassC.PollInterval, scheduler.KindClassCPoll, id)
		}
	}
}

// Run drives the loop until the scheduler is empty, the run is
// cancelled, or MaxSimTime is exceeded -- at which point remaining
// events are drained without dispatch, per spec.md §5's cancellation
// contract.
func (s *Simulator) Run() {
	for {
		e, ok := s.Scheduler.Pop()
		if !ok || s.stopped {
			return
		}
		if s.Ctx.Err() != nil {
			return
		}
		if s.MaxSimTime > 0 && e.Time > s.MaxSimTime {
			// Drain without dispatch: the event is already popped, so
			// simply not dispatching it satisfies the drain contract;
			// subsequent Pop calls continue draining the same way.
			continue
		}
		s.now = e.Time
		s.dispatch(e)
	}
}

// Stop halts the loop before the next Pop, per spec.md §5.
func (s *Simulator) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.Ctx.Cancel("simulation-stop")
}

// Now returns the engine's current simulated time.
func (s *Simulator) Now() phy.Time { return s.now }

func (s *Simulator) dispatch(e *scheduler.Event) {
	switch e.Kind {
	case scheduler.KindTxStart:
		s.onTxStart(e.Payload.(types.NodeID))
	case scheduler.KindTxEnd:
		s.onTxEnd(e.Payload.(types.NodeID))
	case scheduler.KindDownlinkStart:
		s.onDownlinkStart(e.Payload.(pendingDownlink))
	case scheduler.KindDownlinkEnd:
		s.onDownlinkEnd(e.Payload.(pendingDownlink))
	case scheduler.KindBeacon:
		s.onBeacon(e.Payload.(types.GatewayID))
	case scheduler.KindPingSlot:
		s.onPingSlot(e.Payload.(types.NodeID))
	case scheduler.KindClassCPoll:
		s.onClassCPoll(e.Payload.(types.NodeID))
	default:
		logger.Warnf("simulator: unhandled event kind %v", e.Kind)
	}
}

func phyParamsFor(cfg *config.Scenario) PHYParams {
	p := DefaultPHYParams()
	p.ReferenceMode = cfg.ReferenceMode || cfg.PERModel == ""
	if cfg.PERModel == "croce" {
		p.PERModel = phy.PERCroce
	}
	switch cfg.PathLossModel {
	case "hata_okumura":
		p.PathLossModel = phy.PathLossHataOkumura
	case "oulu":
		p.PathLossModel = phy.PathLossOulu
	}
	return p
}

func classFromString(s string) types.Class {
	switch s {
	case "B", "b":
		return types.ClassB
	case "C", "c":
		return types.ClassC
	default:
		return types.ClassA
	}
}

func nodeadr(enabled bool) node.ADRClientState {
	return node.DefaultADRClientState(enabled)
}

func nonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nonZero(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func randomPosition(streams *prng.Streams, widthM, heightM float64) types.Position {
	if widthM <= 0 {
		widthM = 2000
	}
	if heightM <= 0 {
		heightM = 2000
	}
	rng := streams.Mobility()
	return types.Position{
		X: (rng.Float64() - 0.5) * widthM,
		Y: (rng.Float64() - 0.5) * heightM,
	}
}

func (s *Simulator) gatewayIDs() []types.GatewayID {
	ids := make([]types.GatewayID, 0, len(s.Gateways))
	for id := range s.Gateways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NodeIDs returns every node ID in ascending order, mirroring the
// teacher's Simulation.GetNodes sorted accessor.
func (s *Simulator) NodeIDs() []types.NodeID {
	ids := make([]types.NodeID, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
