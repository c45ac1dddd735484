package netsim

//
// Simulation: the top-level driver
//

import (
	"context"
	"fmt"
)

// Simulation owns every [Device], [Link] and [Flow] in a run, indexed by
// id — the central registry that breaks the device<->link reference
// cycle — and drives the event loop.
type Simulation struct {
	ctx   *EngineContext
	flows []*Flow
	hosts []*Host
}

// NewSimulation creates an empty [Simulation]. logger receives every
// textual trace line; pass a [internal.NullLogger] to discard them.
func NewSimulation(logger Logger) *Simulation {
	clock := &Clock{}
	return &Simulation{
		ctx: &EngineContext{
			Clock:    clock,
			Queue:    NewEventQueue(clock),
			Recorder: NewRecorder(),
			Logger:   logger,
			devices:  map[string]Device{},
			links:    map[string]*Link{},
		},
	}
}

// Context exposes the simulation's [EngineContext], mainly for tests that
// need to schedule synthetic events or inspect the [Recorder].
func (s *Simulation) Context() *EngineContext {
	return s.ctx
}

// AddHost registers a new [Host] attached to linkID, beaconing routing
// advertisements every beaconInterval seconds.
func (s *Simulation) AddHost(id, linkID string, beaconInterval float64) (*Host, error) {
	if _, exists := s.ctx.devices[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDeviceID, id)
	}
	h := NewHost(id, linkID, beaconInterval)
	s.ctx.devices[id] = h
	s.hosts = append(s.hosts, h)
	return h, nil
}

// AddRouter registers a new [Router] attached to the given link ids.
func (s *Simulation) AddRouter(id string, linkIDs []string) (*Router, error) {
	if _, exists := s.ctx.devices[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateDeviceID, id)
	}
	r := NewRouter(id, linkIDs)
	s.ctx.devices[id] = r
	return r, nil
}

// AddLink registers a new [Link] between two already-registered devices.
func (s *Simulation) AddLink(id string, rateBytesPerSec, propagationDelay float64, bufferCapacityBytes int, endpointAID, endpointBID string) (*Link, error) {
	if _, exists := s.ctx.links[id]; exists {
		return nil, fmt.Errorf("%w: link %s", ErrDuplicateDeviceID, id)
	}
	for _, end := range []string{endpointAID, endpointBID} {
		if _, ok := s.ctx.devices[end]; !ok {
			return nil, fmt.Errorf("%w: link %s endpoint %s", ErrInvalidTopology, id, end)
		}
	}
	l := NewLink(id, rateBytesPerSec, propagationDelay, bufferCapacityBytes, endpointAID, endpointBID)
	s.ctx.links[id] = l
	return l, nil
}

// AddFlow registers a new [Flow] originating at the host attached to
// linkID, scheduling its first wake at startTime. The flow is registered
// with its source host so that acks addressed to it are delivered.
func (s *Simulation) AddFlow(id, sourceHostID, destHostID, linkID string, totalBytes int64, payloadSize int, controller CongestionController, startTime float64) (*Flow, error) {
	source, ok := s.ctx.devices[sourceHostID]
	if !ok {
		return nil, fmt.Errorf("%w: flow %s source %s", ErrInvalidTopology, id, sourceHostID)
	}
	host, ok := source.(*Host)
	if !ok {
		return nil, fmt.Errorf("%w: flow %s source %s is not a host", ErrInvalidTopology, id, sourceHostID)
	}
	if _, ok := s.ctx.devices[destHostID]; !ok {
		return nil, fmt.Errorf("%w: flow %s destination %s", ErrInvalidTopology, id, destHostID)
	}

	flow := NewFlow(id, sourceHostID, destHostID, linkID, totalBytes, payloadSize, controller)
	host.RegisterFlow(flow)
	s.flows = append(s.flows, flow)
	flow.Start(s.ctx, startTime)
	return flow, nil
}

// StartRoutingBeacons kicks off every registered host's periodic
// [RoutingPacket] emission, all starting at the same virtual time.
func (s *Simulation) StartRoutingBeacons(startAt float64) {
	for _, h := range s.hosts {
		h.StartRoutingBeacons(s.ctx, startAt)
	}
}

// RunSummary reports the outcome of one [Simulation.Run]: a small,
// self-contained digest for callers that don't need to replay the full
// [Recorder] logs.
type RunSummary struct {
	// FinalTime is the virtual clock value when the loop stopped.
	FinalTime float64

	// EventsProcessed counts non-cancelled events the loop invoked.
	EventsProcessed int64

	// Flows reports, per flow id, whether it finished and how many bytes
	// remained outstanding when the loop stopped.
	Flows map[string]FlowSummary
}

// FlowSummary is one flow's entry in a [RunSummary].
type FlowSummary struct {
	Finished       bool
	BytesRemaining int64
	FinalWindow    float64
}

// Run executes the event loop: pop the next event, advance
// the clock to its scheduled time, invoke its action; stop when the
// queue is empty, every flow has finished, or ctx is cancelled (a
// context-bounded escape hatch for topologies that would otherwise never
// settle).
func (s *Simulation) Run(ctx context.Context) (RunSummary, error) {
	var processed int64
	for {
		if ctx.Err() != nil {
			break
		}
		if s.allFlowsFinished() {
			break
		}
		event, ok := s.ctx.Queue.PopNext()
		if !ok {
			break
		}
		s.ctx.Clock.advance(event.ScheduledTime())
		event.action()
		processed++
	}
	s.ctx.Recorder.closeChannels()

	summary := RunSummary{
		FinalTime:       s.ctx.Clock.Now(),
		EventsProcessed: processed,
		Flows:           make(map[string]FlowSummary, len(s.flows)),
	}
	for _, f := range s.flows {
		summary.Flows[f.ID] = FlowSummary{
			Finished:       f.Finished(),
			BytesRemaining: f.bytesRemaining,
			FinalWindow:    f.Window(),
		}
	}
	return summary, ctx.Err()
}

func (s *Simulation) allFlowsFinished() bool {
	if len(s.flows) == 0 {
		return false
	}
	for _, f := range s.flows {
		if !f.Finished() {
			return false
		}
	}
	return true
}
