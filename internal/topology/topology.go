// Package topology decodes a four-list topology document into a wired
// [netsim.Simulation]. It builds the simulation incrementally (construct
// piece by piece, validating as you go) rather than via a one-shot struct
// unmarshal, since the four lists cross-reference each other by id and
// are best validated in dependency order: hosts and routers first, then
// links (which name two endpoints), then flows (which name a source and a
// destination host; the source host's link is looked up from the links).
package topology

import (
	"fmt"

	"github.com/virtclock/netsim"
	"github.com/virtclock/netsim/internal/config"
)

// Document is a topology description: a structure of four lists, in SI
// units before conversion.
type Document struct {
	Hosts   []HostSpec   `json:"hosts" yaml:"hosts"`
	Routers []RouterSpec `json:"routers" yaml:"routers"`
	Links   []LinkSpec   `json:"links" yaml:"links"`
	Flows   []FlowSpec   `json:"flows" yaml:"flows"`
}

// HostSpec describes one host entry.
type HostSpec struct {
	ID string `json:"id" yaml:"id"`
}

// RouterSpec describes one router entry.
type RouterSpec struct {
	ID string `json:"id" yaml:"id"`
}

// LinkSpec describes one link entry. Rates arrive in megabits per second,
// delays in milliseconds, and buffer capacity in kilobytes.
type LinkSpec struct {
	ID          string  `json:"id" yaml:"id"`
	RateMbps    float64 `json:"rate_mbps" yaml:"rate_mbps"`
	DelayMs     float64 `json:"delay_ms" yaml:"delay_ms"`
	BufferKB    float64 `json:"buffer_kb" yaml:"buffer_kb"`
	EndpointAID string  `json:"endpoint_a_id" yaml:"endpoint_a_id"`
	EndpointBID string  `json:"endpoint_b_id" yaml:"endpoint_b_id"`
}

// FlowSpec describes one flow entry. Sizes arrive in megabytes.
type FlowSpec struct {
	ID           string  `json:"id" yaml:"id"`
	SourceHostID string  `json:"source_host_id" yaml:"source_host_id"`
	DestHostID   string  `json:"dest_host_id" yaml:"dest_host_id"`
	TotalMB      float64 `json:"total_mb" yaml:"total_mb"`
	StartTimeS   float64 `json:"start_time_s" yaml:"start_time_s"`
}

const (
	mbpsToBytesPerSec = 1_000_000.0 / 8.0
	msToSeconds       = 1.0 / 1000.0
	kbToBytes         = 1000.0
	mbToBytes         = 1_000_000.0

	// payloadSize is the fixed size of every PayloadPacket.
	payloadSize = netsim.PayloadPacketSize
)

// Build constructs and wires a [netsim.Simulation] from doc, using cfg to
// pick each flow's congestion controller and every host's beacon
// interval. Every host/router/link/flow id referenced by doc must be
// declared exactly once; violations surface as [netsim.ErrInvalidTopology]
// or [netsim.ErrDuplicateDeviceID].
func Build(doc *Document, cfg *config.Config, logger netsim.Logger) (*netsim.Simulation, error) {
	sim := netsim.NewSimulation(logger)

	for _, h := range doc.Hosts {
		if _, err := sim.AddHost(h.ID, hostLinkID(doc, h.ID), cfg.RoutingBeaconIntervalSeconds); err != nil {
			return nil, fmt.Errorf("netsim/topology: host %s: %w", h.ID, err)
		}
	}
	for _, r := range doc.Routers {
		if _, err := sim.AddRouter(r.ID, routerLinkIDs(doc, r.ID)); err != nil {
			return nil, fmt.Errorf("netsim/topology: router %s: %w", r.ID, err)
		}
	}
	for _, l := range doc.Links {
		rate := l.RateMbps * mbpsToBytesPerSec
		delay := l.DelayMs * msToSeconds
		buffer := int(l.BufferKB * kbToBytes)
		if _, err := sim.AddLink(l.ID, rate, delay, buffer, l.EndpointAID, l.EndpointBID); err != nil {
			return nil, fmt.Errorf("netsim/topology: link %s: %w", l.ID, err)
		}
	}
	seenFlows := map[string]bool{}
	for _, fl := range doc.Flows {
		if seenFlows[fl.ID] {
			return nil, fmt.Errorf("netsim/topology: flow %s: %w", fl.ID, netsim.ErrDuplicateDeviceID)
		}
		seenFlows[fl.ID] = true
		linkID := hostLinkID(doc, fl.SourceHostID)
		if linkID == "" {
			return nil, fmt.Errorf("netsim/topology: flow %s: %w: source %s has no link",
				fl.ID, netsim.ErrInvalidTopology, fl.SourceHostID)
		}
		controller := newController(cfg)
		totalBytes := int64(fl.TotalMB * mbToBytes)
		if _, err := sim.AddFlow(fl.ID, fl.SourceHostID, fl.DestHostID, linkID, totalBytes, payloadSize, controller, fl.StartTimeS); err != nil {
			return nil, fmt.Errorf("netsim/topology: flow %s: %w", fl.ID, err)
		}
	}

	sim.StartRoutingBeacons(0)
	return sim, nil
}

// newController builds the congestion controller cfg.CongestionAlgorithm
// names. Validate already rejected any other value.
func newController(cfg *config.Config) netsim.CongestionController {
	switch config.Algorithm(cfg.CongestionAlgorithm) {
	case config.AlgorithmFast:
		return netsim.NewFastController(cfg.FastAlpha, cfg.FastGamma)
	default:
		r := netsim.NewRenoController()
		return r
	}
}

// hostLinkID finds the single link attached to hostID, the endpoint
// layout a [netsim.Host] requires (one link per host). It returns "" if
// no link names hostID as an endpoint.
func hostLinkID(doc *Document, hostID string) string {
	for _, l := range doc.Links {
		if l.EndpointAID == hostID || l.EndpointBID == hostID {
			return l.ID
		}
	}
	return ""
}

// routerLinkIDs collects every link attached to routerID.
func routerLinkIDs(doc *Document, routerID string) []string {
	var ids []string
	for _, l := range doc.Links {
		if l.EndpointAID == routerID || l.EndpointBID == routerID {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
