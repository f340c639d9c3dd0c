// Package trace implements the engine's per-event trace stream (spec.md
// §6, "Event trace out"): enough per record to reconstruct PDR, per-SF
// breakdown, per-gateway stats, collisions and airtime utilization offline.
// Each run is stamped with a RunID so replicate runs fanned out across
// goroutines/processes (spec.md §5) can be correlated downstream without
// collision, following the correlation-id pattern used by
// Cizor-spacetime-constellation-sim and xzhiot-lorawan_server for event
// records.
package trace

import (
	"github.com/google/uuid"

	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/scheduler"
	"github.com/loraflexsim/core/internal/simerrors"
	"github.com/loraflexsim/core/internal/types"
)

// Record is one entry in the event trace stream.
type Record struct {
	RunID     uuid.UUID
	Time      phy.Time
	Kind      scheduler.Kind
	NodeID    types.NodeID
	GatewayID types.GatewayID
	HasGW     bool
	SF        phy.SF
	FreqHz    float64
	RSSI      float64
	SNIR      float64
	HasRadio  bool
	Success   bool
	Outcome   simerrors.Outcome
}

// Recorder accumulates trace records for one run and can replay them for
// metrics aggregation or export. It holds no file/network state itself —
// CSV/Parquet export is a collaborator out of scope per spec.md §1.
type Recorder struct {
	RunID   uuid.UUID
	records []Record
}

// NewRecorder returns a Recorder stamped with a fresh RunID.
func NewRecorder() *Recorder {
	return &Recorder{RunID: uuid.New()}
}

// Emit appends rec to the trace, stamping it with the recorder's RunID.
func (r *Recorder) Emit(rec Record) {
	rec.RunID = r.RunID
	r.records = append(r.records, rec)
}

// Records returns the accumulated trace, in emission order.
func (r *Recorder) Records() []Record {
	return r.records
}

// Len reports how many records have been emitted so far.
func (r *Recorder) Len() int { return len(r.records) }
