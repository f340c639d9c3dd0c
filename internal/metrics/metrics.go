// Package metrics aggregates the run-level statistics spec.md §6 requires
// ("Metrics out": PDR, collisions, delay, energy, throughput) on top of
// github.com/prometheus/client_golang, following the in-process counter/
// histogram registration pattern used by Cizor-spacetime-constellation-sim.
// No HTTP exporter is started here — the REST/dashboard surface is out of
// scope per spec.md §1; callers that want a /metrics endpoint wire
// promhttp.Handler() against the Registry themselves.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loraflexsim/core/internal/phy"
	"github.com/loraflexsim/core/internal/types"
)

// Collector owns one run's Prometheus registry and the gauges/counters/
// histograms fed by the simulator as it dispatches events.
type Collector struct {
	Registry *prometheus.Registry

	Transmitted   prometheus.Counter
	Delivered     prometheus.Counter
	DeliveredBySF *prometheus.CounterVec
	TransmittedBySF *prometheus.CounterVec
	DeliveredByGW *prometheus.CounterVec
	Collisions    prometheus.Counter
	MissedDownlinks prometheus.Counter
	Delay         prometheus.Histogram
	SNR           prometheus.Histogram
	EnergyByState *prometheus.CounterVec
}

// New registers a fresh set of metrics on a private registry, so multiple
// concurrent simulation runs (spec.md §5, "embarrassingly parallel") never
// collide on global Prometheus defaults.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		Registry: reg,
		Transmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loraflexsim_uplinks_transmitted_total",
			Help: "Total number of TX_START events dispatched.",
		}),
		Delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loraflexsim_uplinks_delivered_total",
			Help: "Total number of uplinks accepted by the network server after dedup.",
		}),
		DeliveredBySF: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loraflexsim_uplinks_delivered_by_sf_total",
			Help: "Delivered uplinks broken down by spreading factor.",
		}, []string{"sf"}),
		TransmittedBySF: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loraflexsim_uplinks_transmitted_by_sf_total",
			Help: "Transmitted uplinks broken down by spreading factor.",
		}, []string{"sf"}),
		DeliveredByGW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loraflexsim_uplinks_delivered_by_gateway_total",
			Help: "Delivered uplinks broken down by receiving gateway.",
		}, []string{"gateway"}),
		Collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loraflexsim_collisions_total",
			Help: "Total number of receptions lost to collision or capture loss.",
		}),
		MissedDownlinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loraflexsim_downlinks_missed_total",
			Help: "Total number of downlinks that could not be placed before their window closed.",
		}),
		Delay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "loraflexsim_uplink_delay_seconds",
			Help:    "Delay between TX_START and server acceptance.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		SNR: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "loraflexsim_snr_db",
			Help:    "SNIR observed at the deciding gateway for successful receptions.",
			Buckets: prometheus.LinearBuckets(-30, 2.5, 24),
		}),
		EnergyByState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loraflexsim_energy_joules_total",
			Help: "Energy consumed broken down by radio state.",
		}, []string{"state"}),
	}
	reg.MustRegister(c.Transmitted, c.Delivered, c.DeliveredBySF, c.TransmittedBySF,
		c.DeliveredByGW, c.Collisions, c.MissedDownlinks, c.Delay, c.SNR, c.EnergyByState)
	return c
}

// ObserveTransmit records one TX_START for sf.
func (c *Collector) ObserveTransmit(sf phy.SF) {
	c.Transmitted.Inc()
	c.TransmittedBySF.WithLabelValues(sfLabel(sf)).Inc()
}

// ObserveDelivered records one uplink accepted by the server, attributing
// it to the deciding gateway and delay since TX_START.
func (c *Collector) ObserveDelivered(sf phy.SF, gw types.GatewayID, delaySeconds, snirDB float64) {
	c.Delivered.Inc()
	c.DeliveredBySF.WithLabelValues(sfLabel(sf)).Inc()
	c.DeliveredByGW.WithLabelValues(gwLabel(gw)).Inc()
	c.Delay.Observe(delaySeconds)
	c.SNR.Observe(snirDB)
}

// ObserveCollision records one reception lost to collision/capture.
func (c *Collector) ObserveCollision() { c.Collisions.Inc() }

// ObserveMissedDownlink records one downlink that could not be scheduled.
func (c *Collector) ObserveMissedDownlink() { c.MissedDownlinks.Inc() }

// ObserveEnergy attributes energyJoules to the given radio state.
func (c *Collector) ObserveEnergy(state string, energyJoules float64) {
	c.EnergyByState.WithLabelValues(state).Add(energyJoules)
}

func sfLabel(sf phy.SF) string {
	switch sf {
	case 7, 8, 9, 10, 11, 12:
		return "SF" + strconv.Itoa(int(sf))
	default:
		return "SF?"
	}
}

func gwLabel(id types.GatewayID) string { return strconv.Itoa(int(id)) }
