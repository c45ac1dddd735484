package netsim

//
// Link: half-duplex transmission channel
//

import "fmt"

// Link models a half-duplex transmission channel between two devices,
// identified by id: a central registry plus stable ids break the
// device<->link reference cycle — a [Link] only ever refers to its
// endpoints by id, resolved through an [EngineContext] at delivery time;
// devices are free to hold a *Link pointer since that direction alone
// cannot cycle.
//
// At most one packet is ever "on the wire" at a time; everything else
// waiting to be sent sits in buffer. The zero value is invalid; use
// [NewLink].
type Link struct {
	// ID is the link's stable identifier.
	ID string

	// RateBytesPerSec is the link's transmission rate.
	RateBytesPerSec float64

	// PropagationDelay is the fixed one-way propagation delay, in
	// seconds, added on top of transmission delay.
	PropagationDelay float64

	// EndpointAID and EndpointBID are the ids of the two devices this
	// link connects.
	EndpointAID string
	EndpointBID string

	buffer           *Buffer
	busyUntil        float64
	currentDirection LinkDirection
}

// NewLink creates a [Link] with the given rate (bytes/sec), one-way
// propagation delay (seconds) and buffer capacity (bytes).
func NewLink(id string, rateBytesPerSec, propagationDelay float64, bufferCapacityBytes int, endpointAID, endpointBID string) *Link {
	return &Link{
		ID:               id,
		RateBytesPerSec:  rateBytesPerSec,
		PropagationDelay: propagationDelay,
		EndpointAID:      endpointAID,
		EndpointBID:      endpointBID,
		buffer:           NewBuffer(bufferCapacityBytes),
		busyUntil:        0,
		currentDirection: DirectionAToB,
	}
}

// Buffer exposes the link's [Buffer], mainly for tests and metrics.
func (l *Link) Buffer() *Buffer {
	return l.buffer
}

// transmissionDelay is how long it takes to push packet onto the wire at
// this link's rate.
func (l *Link) transmissionDelay(p Packet) float64 {
	return float64(p.Size()) / l.RateBytesPerSec
}

// directionFrom returns the direction a packet sent by sourceID travels
// in, or an error if sourceID is not one of this link's endpoints.
func (l *Link) directionFrom(sourceID string) (LinkDirection, error) {
	switch sourceID {
	case l.EndpointAID:
		return DirectionAToB, nil
	case l.EndpointBID:
		return DirectionBToA, nil
	default:
		return 0, fmt.Errorf("%w: %s is not an endpoint of link %s", ErrUnknownDeviceID, sourceID, l.ID)
	}
}

// targetID returns the id of the device a packet travelling in direction
// is headed toward.
func (l *Link) targetID(direction LinkDirection) string {
	if direction == DirectionAToB {
		return l.EndpointBID
	}
	return l.EndpointAID
}

// SendFrom is the send protocol: sourceID (one of the
// link's two endpoints) hands packet to the link. If the link is idle the
// packet begins transmission immediately; otherwise it waits in the
// link's buffer, possibly being dropped if the buffer is full.
func (l *Link) SendFrom(ctx *EngineContext, packet Packet, sourceID string) error {
	direction, err := l.directionFrom(sourceID)
	if err != nil {
		return err
	}
	if ctx.Clock.Now() >= l.busyUntil {
		l.beginTransmission(ctx, packet, direction)
		return nil
	}
	if l.buffer.Enqueue(packet, direction) == Dropped {
		ctx.Logger.Warnf("netsim: link %s: buffer full, dropping packet", l.ID)
		ctx.Recorder.dropped(PacketDroppedRecord{
			Time:     ctx.Clock.Now(),
			PacketID: packetID(packet),
			LinkID:   l.ID,
			Reason:   DropReasonBufferFull,
		})
	}
	ctx.Recorder.occupancy(BufferOccupancyRecord{
		Time:      ctx.Clock.Now(),
		LinkID:    l.ID,
		UsedBytes: l.buffer.UsedBytes(),
	})
	return nil
}

// beginTransmission starts sending packet in direction right now,
// scheduling its arrival and the link's next availability.
func (l *Link) beginTransmission(ctx *EngineContext, packet Packet, direction LinkDirection) {
	now := ctx.Clock.Now()
	txDelay := l.transmissionDelay(packet)
	l.busyUntil = now + txDelay
	l.currentDirection = direction

	target := l.targetID(direction)
	arrival := l.busyUntil + l.PropagationDelay

	ctx.Recorder.sent(PacketSentRecord{
		Time:      now,
		PacketID:  packetID(packet),
		LinkID:    l.ID,
		Direction: direction,
		Size:      packet.Size(),
	})

	link := l
	must(ctx.Queue.ScheduleAt(arrival, func() {
		link.onArrival(ctx, packet, target)
	}))
	must(ctx.Queue.ScheduleAt(l.busyUntil, func() {
		link.onReady(ctx)
	}))
}

// onArrival delivers packet to the device at target, invoked when the
// scheduled PacketArrival event fires.
func (l *Link) onArrival(ctx *EngineContext, packet Packet, target string) {
	device, ok := ctx.DeviceByID(target)
	if !ok {
		ctx.Logger.Warnf("netsim: link %s: arrival for unknown device %s", l.ID, target)
		return
	}
	ctx.Recorder.arrived(PacketArrivedRecord{
		Time:     ctx.Clock.Now(),
		PacketID: packetID(packet),
		DeviceID: target,
	})
	device.HandlePacket(ctx, packet, l)
}

// onReady runs when the link becomes free again (the scheduled LinkReady
// event). If the buffer holds waiting packets, the head one begins
// transmission next. If another transmission already began at this same
// instant, the link is busy again and that transmission's own LinkReady
// event drains the buffer instead.
func (l *Link) onReady(ctx *EngineContext) {
	if ctx.Clock.Now() < l.busyUntil {
		return
	}
	packet, direction, ok := l.buffer.Dequeue()
	if !ok {
		return
	}
	ctx.Recorder.occupancy(BufferOccupancyRecord{
		Time:      ctx.Clock.Now(),
		LinkID:    l.ID,
		UsedBytes: l.buffer.UsedBytes(),
	})
	l.beginTransmission(ctx, packet, direction)
}

// packetID derives a human-readable, log-friendly id for a packet. No
// packet variant carries an id field of its own; this is useful to
// correlate PacketSentRecord/PacketArrivedRecord/PacketDroppedRecord
// entries in a log stream.
func packetID(p Packet) string {
	switch v := p.(type) {
	case RoutingPacket:
		return fmt.Sprintf("routing:%s:%.9f", v.SourceHostID, v.OriginTime)
	case PayloadPacket:
		return fmt.Sprintf("payload:%s:%d:%d", v.FlowID, v.SeqNo, v.DuplicateNo)
	case AckPacket:
		return fmt.Sprintf("ack:%s:%d:%d", v.FlowID, v.ExpectedSeqNo, v.DuplicateNo)
	default:
		return "unknown"
	}
}

// must panics on a scheduling error that can only indicate a bug: every
// call site here schedules at a time computed from the current clock, so
// [ErrInvalidSchedule] should be unreachable.
func must(e *Event, err error) *Event {
	if err != nil {
		panic(err)
	}
	return e
}
