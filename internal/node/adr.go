package node

import "github.com/loraflexsim/core/internal/phy"

// ADRClientState tracks the node side of spec.md §4.4's ADR client
// contract: LinkADRReq honoring, adr_ack_cnt bookkeeping, and the
// two-stage escalation (raise power, then raise SF) when the server has
// gone quiet.
type ADRClientState struct {
	Enabled bool

	AckCnt       int
	AckLimit     int // default 64, per LoRaWAN spec
	AckDelay     int // default 32
	ACKReqFlag   bool

	MinTxPowerDBm float64
	MaxTxPowerDBm float64
	PowerStepDB   float64
}

// DefaultADRClientState returns the standard adr_ack_limit=64/
// adr_ack_delay=32 escalation timers and a 2..14 dBm power range stepped
// by 3 dB, matching the LoRaWAN regional default most scenarios assume.
func DefaultADRClientState(enabled bool) ADRClientState {
	return ADRClientState{
		Enabled:       enabled,
		AckLimit:      64,
		AckDelay:      32,
		MinTxPowerDBm: 2,
		MaxTxPowerDBm: 14,
		PowerStepDB:   3,
	}
}

// OnUplinkSent increments adr_ack_cnt and, once it crosses AckLimit, sets
// the ADRACKReq flag so the next uplink asks the server for a response.
func (a *ADRClientState) OnUplinkSent() {
	a.AckCnt++
	if a.AckCnt >= a.AckLimit {
		a.ACKReqFlag = true
	}
}

// OnDownlinkReceived resets adr_ack_cnt and clears ADRACKReq, per spec:
// any downlink (not just a LinkADRReq) resets the counter.
func (a *ADRClientState) OnDownlinkReceived() {
	a.AckCnt = 0
	a.ACKReqFlag = false
}

// Escalate applies the post-ack_delay escalation rule: raise power to
// MaxTxPowerDBm first; only once already at max power, raise SF (capped
// at 12). Returns the possibly-updated (sf, powerDBm).
func (a *ADRClientState) Escalate(sf phy.SF, powerDBm float64) (phy.SF, float64) {
	if a.AckCnt < a.AckLimit+a.AckDelay {
		return sf, powerDBm
	}
	if powerDBm < a.MaxTxPowerDBm {
		return sf, a.MaxTxPowerDBm
	}
	if sf < 12 {
		return sf + 1, powerDBm
	}
	return sf, powerDBm
}

// LinkADRReq is the server->node command applying a new SF/power/channel
// mask/redundancy assignment, per spec.md §4.4.
type LinkADRReq struct {
	SF        phy.SF
	TxPowerDBm float64
	ChMask    uint32
	NbTrans   int
}

// ApplyLinkADRReq honors the server's request unconditionally: the node
// trusts the network server's ADR decision, per spec.
func (n *Node) ApplyLinkADRReq(req LinkADRReq) {
	n.SF = req.SF
	n.TxPowerDBm = req.TxPowerDBm
	n.ChannelMask = req.ChMask
	if req.NbTrans > 0 {
		n.NbTrans = req.NbTrans
	}
	n.ADR.OnDownlinkReceived()
}
