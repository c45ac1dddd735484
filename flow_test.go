package netsim

import "testing"

// newFlowTestContext wires a src/dst pair with a fast, low-capacity-safe
// link, suitable for driving a Flow directly without a Host/Router.
func newFlowTestContext() (*EngineContext, *Link) {
	link := NewLink("lnk", 10_000_000, 0.001, 64*1024, "src", "dst")
	src := &recordingDevice{id: "src"}
	dst := &recordingDevice{id: "dst"}
	return newWiredTestContext(src, dst, link), link
}

// linkPacketIDs returns the ids of every packet handed to link so far: the
// ones that began transmission (Recorder.Sent), followed by the ones still
// waiting in the link's buffer behind the packet on the wire.
func linkPacketIDs(ctx *EngineContext, link *Link) []string {
	var ids []string
	for _, rec := range ctx.Recorder.Sent {
		ids = append(ids, rec.PacketID)
	}
	for _, entry := range link.Buffer().entries {
		ids = append(ids, packetID(entry.packet))
	}
	return ids
}

func TestFlowWakeEmitsWithinWindowAndSchedulesNextWake(t *testing.T) {
	ctx, link := newFlowTestContext()
	controller := NewRenoController()
	flow := NewFlow("f1", "src", "dst", link.ID, 3*int64(PayloadPacketSize), PayloadPacketSize, controller)

	flow.Start(ctx, 0)
	e, ok := ctx.Queue.PopNext()
	if !ok {
		t.Fatal("expected the initial wake to be scheduled")
	}
	ctx.Clock.advance(e.ScheduledTime())
	e.action()

	if len(ctx.Recorder.Sent) != 1 {
		t.Fatalf("expected exactly 1 packet emitted by the first wake (window=1), got %d", len(ctx.Recorder.Sent))
	}
	if len(flow.unacked) != 1 {
		t.Fatalf("expected 1 unacked packet, got %d", len(flow.unacked))
	}
	if flow.Finished() {
		t.Fatal("flow should not be finished with bytes outstanding")
	}
	if flow.wakeEvent == nil {
		t.Fatal("expected wake to reschedule itself while unfinished")
	}
}

func TestFlowAcknowledgementReceivedAdvancesBytesRemainingAndWakes(t *testing.T) {
	ctx, link := newFlowTestContext()
	controller := NewRenoController()
	flow := NewFlow("f1", "src", "dst", link.ID, 3*int64(PayloadPacketSize), PayloadPacketSize, controller)

	flow.Start(ctx, 0)
	e, _ := ctx.Queue.PopNext()
	ctx.Clock.advance(e.ScheduledTime())
	e.action()

	before := flow.bytesRemaining
	flow.AcknowledgementReceived(ctx, AckPacket{
		FlowID:        "f1",
		ExpectedSeqNo: 1,
		DuplicateNo:   0,
		SourceHostID:  "dst",
		DestHostID:    "src",
	})

	if flow.bytesRemaining != before-int64(PayloadPacketSize) {
		t.Fatalf("bytesRemaining = %d, want %d", flow.bytesRemaining, before-int64(PayloadPacketSize))
	}
	if _, stillUnacked := flow.unacked[0]; stillUnacked {
		t.Fatal("seq 0 should have been retired from unacked")
	}
	if controller.Window() <= DefaultInitialWindow {
		t.Fatalf("expected slow-start to grow the window past %v, got %v", DefaultInitialWindow, controller.Window())
	}
	// AcknowledgementReceived calls wake itself: the window just grew to
	// 2 (slow start) with 2 sequences' worth of data left, so both seq 1
	// and seq 2 are handed to the link immediately, on top of the original
	// seq 0 send. seq 0 is still on the wire, so they wait in its buffer.
	if got := linkPacketIDs(ctx, link); len(got) != 3 {
		t.Fatalf("expected the ack to trigger 2 more sends (window now 2), got %d packets handed to the link", len(got))
	}
}

func TestFlowTripleDuplicateAckQueuesRetransmission(t *testing.T) {
	ctx, link := newFlowTestContext()
	controller := NewRenoController()
	flow := NewFlow("f1", "src", "dst", link.ID, 5*int64(PayloadPacketSize), PayloadPacketSize, controller)

	flow.Start(ctx, 0)
	e, _ := ctx.Queue.PopNext()
	ctx.Clock.advance(e.ScheduledTime())
	e.action()

	ack := AckPacket{FlowID: "f1", ExpectedSeqNo: 0, DuplicateNo: 0, SourceHostID: "dst", DestHostID: "src"}
	flow.AcknowledgementReceived(ctx, ack) // first sighting of expected_seq_no=0: sets lastExpectedSeq
	flow.AcknowledgementReceived(ctx, ack) // dup 1
	flow.AcknowledgementReceived(ctx, ack) // dup 2
	flow.AcknowledgementReceived(ctx, ack) // dup 3: triple-dup fires

	if flow.duplicateAckCount != 3 {
		t.Fatalf("duplicateAckCount = %d, want 3", flow.duplicateAckCount)
	}
	// AcknowledgementReceived wakes the flow before returning, so a
	// freshly triple-dup-queued retransmission is already handed to the
	// link by the time we get to inspect it; look for it among the
	// packets the link holds (sent or buffered) instead of the
	// (by-then-drained) retransmit set.
	wantID := packetID(PayloadPacket{FlowID: "f1", SeqNo: 0, DuplicateNo: 1})
	handed := linkPacketIDs(ctx, link)
	found := false
	for _, id := range handed {
		if id == wantID {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected a retransmission of seq 0 (duplicateNo=1) after the third duplicate ack, handed to link=%v", handed)
	}
}

func TestFlowDetectTimeoutsMovesStaleUnackedToRetransmit(t *testing.T) {
	ctx, link := newFlowTestContext()
	controller := NewRenoController()
	controller.window = 4 // simulate an established window before the drop

	flow := NewFlow("f1", "src", "dst", link.ID, 10*int64(PayloadPacketSize), PayloadPacketSize, controller)
	flow.unacked[0] = unackedEntry{dispatchTime: -10, duplicateNo: 0}
	flow.unacked[1] = unackedEntry{dispatchTime: 0, duplicateNo: 0} // fresh, not dispatchTime past the timeout

	flow.detectTimeouts(ctx)

	if _, queued := flow.retransmit[0]; !queued {
		t.Fatal("expected the stale seq 0 to be queued for retransmission")
	}
	if _, queued := flow.retransmit[1]; queued {
		t.Fatal("seq 1 has not timed out yet and should not be queued")
	}
	if controller.Window() != 1 {
		t.Fatalf("expected OnDrop to reset the window to 1, got %v", controller.Window())
	}

	// calling detectTimeouts again must not charge OnDrop a second time for
	// the same still-outstanding seq.
	flow.detectTimeouts(ctx)
	if controller.Window() != 1 {
		t.Fatalf("expected an already-queued retransmission not to trigger another OnDrop, window = %v", controller.Window())
	}
}

func TestFlowWakeDispatchesRetransmissionsBeforeNewData(t *testing.T) {
	ctx, link := newFlowTestContext()
	controller := NewRenoController()
	controller.window = 3

	flow := NewFlow("f1", "src", "dst", link.ID, 3*int64(PayloadPacketSize), PayloadPacketSize, controller)
	flow.unacked[2] = unackedEntry{dispatchTime: 0, duplicateNo: 0}
	flow.retransmit[2] = struct{}{}

	flow.wake(ctx)

	if _, queued := flow.retransmit[2]; queued {
		t.Fatal("seq 2 should have been popped off the retransmit queue")
	}
	entry, ok := flow.unacked[2]
	if !ok || entry.duplicateNo != 1 {
		t.Fatalf("expected seq 2's retransmission to bump duplicateNo to 1, got %+v (present=%v)", entry, ok)
	}
	handed := linkPacketIDs(ctx, link)
	if len(handed) != 3 {
		t.Fatalf("expected 1 retransmit + 2 fresh sends to fill the window of 3, got %d", len(handed))
	}
	wantIDs := map[string]bool{
		packetID(PayloadPacket{FlowID: "f1", SeqNo: 2, DuplicateNo: 1}): true,
		packetID(PayloadPacket{FlowID: "f1", SeqNo: 0, DuplicateNo: 0}): true,
		packetID(PayloadPacket{FlowID: "f1", SeqNo: 1, DuplicateNo: 0}): true,
	}
	for _, id := range handed {
		if !wantIDs[id] {
			t.Fatalf("unexpected sent packet id %q", id)
		}
	}
}

func TestFlowFinishedRequiresBothBytesAndUnackedDrained(t *testing.T) {
	ctx, link := newFlowTestContext()
	controller := NewRenoController()
	flow := NewFlow("f1", "src", "dst", link.ID, int64(PayloadPacketSize), PayloadPacketSize, controller)

	if flow.Finished() {
		t.Fatal("a freshly created flow with bytes remaining must not be finished")
	}

	flow.Start(ctx, 0)
	e, _ := ctx.Queue.PopNext()
	ctx.Clock.advance(e.ScheduledTime())
	e.action()

	if flow.Finished() {
		t.Fatal("flow must not be finished while its sole packet is still unacked")
	}

	flow.AcknowledgementReceived(ctx, AckPacket{
		FlowID:        "f1",
		ExpectedSeqNo: 1,
		DuplicateNo:   0,
		SourceHostID:  "dst",
		DestHostID:    "src",
	})

	if !flow.Finished() {
		t.Fatalf("expected the flow to be finished once its only byte range is acked, bytesRemaining=%d unacked=%d",
			flow.bytesRemaining, len(flow.unacked))
	}
}
