package netsim

//
// Flow: a source-to-destination bytestream driven by a congestion
// controller
//

import "math"

// unackedEntry records when a payload was last dispatched and which
// retransmission attempt (duplicate_no) that dispatch was.
type unackedEntry struct {
	dispatchTime float64
	duplicateNo  uint32
}

// Flow moves totalBytes from SourceHostID to DestHostID, driven by a
// [CongestionController]. The zero value is invalid; use [NewFlow].
type Flow struct {
	// ID is the flow's stable identifier.
	ID string

	// SourceHostID and DestHostID are the endpoint host ids.
	SourceHostID string
	DestHostID   string

	linkID      string // the source host's attached link
	payloadSize int
	totalBytes  int64

	bytesRemaining int64
	nextSeqToEmit  uint64
	unacked        map[uint64]unackedEntry
	retransmit     map[uint64]struct{}

	controller CongestionController

	duplicateAckCount   uint32
	lastExpectedSeq     uint64
	haveLastExpectedSeq bool

	wakeEvent *Event
}

// NewFlow creates a [Flow]. linkID is the id of the link attached to the
// source host, over which payload and (indirectly, via the destination's
// ack) control traffic travels.
func NewFlow(id, sourceHostID, destHostID, linkID string, totalBytes int64, payloadSize int, controller CongestionController) *Flow {
	return &Flow{
		ID:             id,
		SourceHostID:   sourceHostID,
		DestHostID:     destHostID,
		linkID:         linkID,
		payloadSize:    payloadSize,
		totalBytes:     totalBytes,
		bytesRemaining: totalBytes,
		nextSeqToEmit:  0,
		unacked:        map[uint64]unackedEntry{},
		retransmit:     map[uint64]struct{}{},
		controller:     controller,
	}
}

// Window returns the flow's current congestion window, for tests and
// metrics.
func (f *Flow) Window() float64 {
	return f.controller.Window()
}

// Finished reports whether the flow has delivered every byte and has no
// packets still outstanding.
func (f *Flow) Finished() bool {
	return f.bytesRemaining <= 0 && len(f.unacked) == 0
}

// Start schedules the flow's first wake at startTime.
func (f *Flow) Start(ctx *EngineContext, startTime float64) {
	flow := f
	f.wakeEvent = must(ctx.Queue.ScheduleAt(startTime, func() {
		flow.wake(ctx)
	}))
}

// AcknowledgementReceived processes an incoming [AckPacket]: a cumulative
// ack past the previously seen expected_seq_no retires every
// matching unacked packet and feeds an RTT sample to the controller; a
// repeat of the same expected_seq_no counts toward triple-duplicate-ack
// loss detection. Either way, the flow then wakes.
func (f *Flow) AcknowledgementReceived(ctx *EngineContext, ack AckPacket) {
	now := ctx.Clock.Now()

	switch {
	case !f.haveLastExpectedSeq || ack.ExpectedSeqNo > f.lastExpectedSeq:
		for seq, entry := range f.unacked {
			if seq < ack.ExpectedSeqNo && entry.duplicateNo == ack.DuplicateNo {
				delete(f.unacked, seq)
				delete(f.retransmit, seq)

				rtt := now - entry.dispatchTime
				f.controller.OnAck(rtt)
				ctx.Recorder.rtt(RTTSampleRecord{Time: now, FlowID: f.ID, RTT: rtt})

				acked := int64(f.payloadSize)
				if acked > f.bytesRemaining {
					acked = f.bytesRemaining
				}
				f.bytesRemaining -= acked
			}
		}
		f.duplicateAckCount = 0
		f.lastExpectedSeq = ack.ExpectedSeqNo
		f.haveLastExpectedSeq = true

	case ack.ExpectedSeqNo == f.lastExpectedSeq:
		f.duplicateAckCount++
		f.controller.OnDuplicateAck()
		if f.duplicateAckCount == 3 {
			f.retransmit[ack.ExpectedSeqNo] = struct{}{}
			f.controller.OnTripleDuplicateAck()
		}

	default:
		// a stale ack for a seq we've already moved past; ignore.
	}

	f.wake(ctx)
}

// wake is the flow's re-entrant pump: a generator modeled as a scheduled,
// atomic wake function rather than a suspended coroutine. Each call
// cancels any pending wake, requeues timed-out packets for
// retransmission, fills the window with retransmissions and fresh
// data, and — if there is still work outstanding — schedules the next
// wake.
func (f *Flow) wake(ctx *EngineContext) {
	if f.wakeEvent != nil {
		ctx.Queue.Cancel(f.wakeEvent)
		f.wakeEvent = nil
	}

	f.detectTimeouts(ctx)

	ctx.Recorder.window(WindowSizeRecord{
		Time:   ctx.Clock.Now(),
		FlowID: f.ID,
		Window: f.controller.Window(),
	})

	for len(f.unacked) < int(math.Floor(f.controller.Window())) {
		if len(f.retransmit) > 0 {
			seq := popSmallestSeq(f.retransmit)
			entry := f.unacked[seq]
			entry.dispatchTime = ctx.Clock.Now()
			entry.duplicateNo++
			f.unacked[seq] = entry
			f.emitPayload(ctx, seq, entry.duplicateNo)
			continue
		}
		if f.nextSeqToEmit*uint64(f.payloadSize) < uint64(f.totalBytes) {
			seq := f.nextSeqToEmit
			f.unacked[seq] = unackedEntry{dispatchTime: ctx.Clock.Now(), duplicateNo: 0}
			f.emitPayload(ctx, seq, 0)
			f.nextSeqToEmit++
			continue
		}
		break
	}

	if !f.Finished() {
		flow := f
		f.wakeEvent = must(ctx.Queue.Schedule(f.controller.Timeout(), func() {
			flow.wake(ctx)
		}))
	}
}

// detectTimeouts moves every unacked packet whose timeout has elapsed
// into the retransmit queue, charging the controller once per packet.
func (f *Flow) detectTimeouts(ctx *EngineContext) {
	now := ctx.Clock.Now()
	timeout := f.controller.Timeout()
	for seq, entry := range f.unacked {
		if _, queued := f.retransmit[seq]; queued {
			continue
		}
		if now-entry.dispatchTime >= timeout {
			f.retransmit[seq] = struct{}{}
			f.controller.OnDrop()
		}
	}
}

// emitPayload sends a [PayloadPacket] for seq/duplicateNo over the
// flow's originating link.
func (f *Flow) emitPayload(ctx *EngineContext, seq uint64, duplicateNo uint32) {
	link, ok := linkForID(ctx, f.linkID)
	if !ok {
		return
	}
	pkt := PayloadPacket{
		FlowID:       f.ID,
		SeqNo:        seq,
		DuplicateNo:  duplicateNo,
		SourceHostID: f.SourceHostID,
		DestHostID:   f.DestHostID,
	}
	if err := link.SendFrom(ctx, pkt, f.SourceHostID); err != nil {
		ctx.Logger.Warnf("netsim: flow %s: emit: %s", f.ID, err.Error())
	}
}

// popSmallestSeq removes and returns the smallest key of set.
func popSmallestSeq(set map[uint64]struct{}) uint64 {
	var (
		min   uint64
		first = true
	)
	for seq := range set {
		if first || seq < min {
			min = seq
			first = false
		}
	}
	delete(set, min)
	return min
}
