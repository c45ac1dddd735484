package netsim

//
// Endpoint device
//

// DefaultRoutingBeaconInterval is the default virtual-time interval
// between a [Host]'s routing beacons.
const DefaultRoutingBeaconInterval = 1.0

// Host is an endpoint: it acknowledges received payloads, periodically
// dispatches routing beacons, and delivers incoming acks to the [Flow]
// that originated the payload. The zero value is invalid; use [NewHost].
type Host struct {
	id             string
	linkID         string
	beaconInterval float64

	trackers map[string]*PacketTracker // flow id -> tracker for inbound payloads
	flows    map[string]*Flow          // flow id -> flow originating at this host

	beaconEvent *Event
}

var _ Device = &Host{}

// NewHost creates a [Host] with the given id, attached to the link with
// id linkID, using beaconInterval as its routing-beacon period.
func NewHost(id, linkID string, beaconInterval float64) *Host {
	return &Host{
		id:             id,
		linkID:         linkID,
		beaconInterval: beaconInterval,
		trackers:       map[string]*PacketTracker{},
		flows:          map[string]*Flow{},
	}
}

// ID implements Device.
func (h *Host) ID() string {
	return h.id
}

// RegisterFlow makes h aware of a [Flow] it originates, so that incoming
// acks for that flow can be delivered to it.
func (h *Host) RegisterFlow(flow *Flow) {
	h.flows[flow.ID] = flow
}

// StartRoutingBeacons schedules this host's first [RoutingPacket]
// dispatch; each dispatch reschedules the next one.
func (h *Host) StartRoutingBeacons(ctx *EngineContext, startAt float64) {
	h.beaconEvent = must(ctx.Queue.ScheduleAt(startAt, func() {
		h.emitBeacon(ctx)
	}))
}

func (h *Host) emitBeacon(ctx *EngineContext) {
	link, ok := linkForID(ctx, h.linkID)
	if ok {
		beacon := RoutingPacket{SourceHostID: h.id, OriginTime: ctx.Clock.Now()}
		if err := link.SendFrom(ctx, beacon, h.id); err != nil {
			ctx.Logger.Warnf("netsim: host %s: beacon: %s", h.id, err.Error())
		}
	}
	h.beaconEvent = must(ctx.Queue.Schedule(h.beaconInterval, func() {
		h.emitBeacon(ctx)
	}))
}

// HandlePacket implements Device.
func (h *Host) HandlePacket(ctx *EngineContext, p Packet, via *Link) {
	switch v := p.(type) {
	case PayloadPacket:
		if v.DestHostID != h.id {
			h.logUnexpected(ctx, p)
			return
		}
		h.handlePayload(ctx, v)
	case AckPacket:
		if v.DestHostID != h.id {
			h.logUnexpected(ctx, p)
			return
		}
		h.handleAck(ctx, v)
	default:
		h.logUnexpected(ctx, p)
	}
}

func (h *Host) handlePayload(ctx *EngineContext, p PayloadPacket) {
	tracker, ok := h.trackers[p.FlowID]
	if !ok {
		tracker = NewPacketTracker()
		h.trackers[p.FlowID] = tracker
	}
	expected := tracker.Record(p.SeqNo)

	ack := AckPacket{
		FlowID:        p.FlowID,
		ExpectedSeqNo: expected,
		DuplicateNo:   p.DuplicateNo,
		SourceHostID:  h.id,
		DestHostID:    p.SourceHostID,
	}
	link, ok := linkForID(ctx, h.linkID)
	if !ok {
		return
	}
	if err := link.SendFrom(ctx, ack, h.id); err != nil {
		ctx.Logger.Warnf("netsim: host %s: ack: %s", h.id, err.Error())
	}
}

func (h *Host) handleAck(ctx *EngineContext, p AckPacket) {
	flow, ok := h.flows[p.FlowID]
	if !ok {
		ctx.Logger.Warnf("netsim: host %s: ack for unknown flow %s", h.id, p.FlowID)
		return
	}
	flow.AcknowledgementReceived(ctx, p)
}

func (h *Host) logUnexpected(ctx *EngineContext, p Packet) {
	ctx.Logger.Warnf("netsim: host %s: unexpected %s packet", h.id, p.Kind())
	ctx.Recorder.dropped(PacketDroppedRecord{
		Time:     ctx.Clock.Now(),
		PacketID: packetID(p),
		LinkID:   h.linkID,
		Reason:   DropReasonUnexpectedPacket,
	})
}
