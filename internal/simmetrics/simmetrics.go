// Package simmetrics exposes a running simulation's record channels as
// Prometheus metrics, for a live dashboard watching a long simulation run.
// Post-run statistical analysis stays out of scope; this package covers
// only live observability.
package simmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/virtclock/netsim"
)

// Metrics holds every gauge/counter this package registers. Each
// [Metrics] owns its own [prometheus.Registry] rather than the global
// default one, since a process may run more than one simulation (e.g. in
// tests) and the default registry would panic on the second registration.
type Metrics struct {
	Registry *prometheus.Registry

	PacketsSent    *prometheus.CounterVec
	PacketsArrived prometheus.Counter
	PacketsDropped *prometheus.CounterVec
	BufferBytes    *prometheus.GaugeVec
	WindowSize     *prometheus.GaugeVec
	RTTSeconds     *prometheus.HistogramVec
}

// New creates a [Metrics] bound to a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		PacketsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "netsim_packets_sent_total",
			Help: "Packets that began transmission on a link.",
		}, []string{"link_id"}),

		PacketsArrived: factory.NewCounter(prometheus.CounterOpts{
			Name: "netsim_packets_arrived_total",
			Help: "Packets delivered to a device.",
		}),

		PacketsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "netsim_packets_dropped_total",
			Help: "Packets discarded instead of delivered, by reason.",
		}, []string{"reason"}),

		BufferBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netsim_link_buffer_used_bytes",
			Help: "Current occupied bytes in a link's buffer.",
		}, []string{"link_id"}),

		WindowSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netsim_flow_window_packets",
			Help: "Current congestion window, in packets.",
		}, []string{"flow_id"}),

		RTTSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "netsim_flow_rtt_seconds",
			Help:    "Observed round-trip-time samples.",
			Buckets: prometheus.DefBuckets,
		}, []string{"flow_id"}),
	}
}

// Collector drains a [netsim.Recorder]'s live channels into a [Metrics]
// until the simulation ends and every channel is closed. Run it in its
// own goroutine (see internal/simmetrics's use from cmd/netsim, which
// bounds it with an errgroup alongside the pcap-export drain).
type Collector struct {
	metrics  *Metrics
	recorder *netsim.Recorder
}

// NewCollector creates a [Collector] feeding metrics from recorder.
func NewCollector(metrics *Metrics, recorder *netsim.Recorder) *Collector {
	return &Collector{metrics: metrics, recorder: recorder}
}

// Run drains every channel except the flow-rate one,
// concurrently-within-itself (one select loop), until all six are closed,
// and returns nil once draining completes. It
// never returns an error: there is nothing for a metrics collector to
// fail at beyond the channels closing.
func (c *Collector) Run() error {
	sentCh := c.recorder.SentChan()
	arrivedCh := c.recorder.ArrivedChan()
	droppedCh := c.recorder.DroppedChan()
	occupancyCh := c.recorder.OccupancyChan()
	windowCh := c.recorder.WindowChan()
	rttCh := c.recorder.RTTChan()

	open := 6
	for open > 0 {
		select {
		case rec, ok := <-sentCh:
			if !ok {
				sentCh = nil
				open--
				continue
			}
			c.metrics.PacketsSent.WithLabelValues(rec.LinkID).Inc()
		case _, ok := <-arrivedCh:
			if !ok {
				arrivedCh = nil
				open--
				continue
			}
			c.metrics.PacketsArrived.Inc()
		case rec, ok := <-droppedCh:
			if !ok {
				droppedCh = nil
				open--
				continue
			}
			c.metrics.PacketsDropped.WithLabelValues(string(rec.Reason)).Inc()
		case rec, ok := <-occupancyCh:
			if !ok {
				occupancyCh = nil
				open--
				continue
			}
			c.metrics.BufferBytes.WithLabelValues(rec.LinkID).Set(float64(rec.UsedBytes))
		case rec, ok := <-windowCh:
			if !ok {
				windowCh = nil
				open--
				continue
			}
			c.metrics.WindowSize.WithLabelValues(rec.FlowID).Set(rec.Window)
		case rec, ok := <-rttCh:
			if !ok {
				rttCh = nil
				open--
				continue
			}
			c.metrics.RTTSeconds.WithLabelValues(rec.FlowID).Observe(rec.RTT)
		}
	}
	return nil
}
