package netsim

import "testing"

func TestBufferEnqueueDequeueFIFO(t *testing.T) {
	b := NewBuffer(10 * PayloadPacketSize)

	p1 := PayloadPacket{FlowID: "f", SeqNo: 0}
	p2 := PayloadPacket{FlowID: "f", SeqNo: 1}

	if r := b.Enqueue(p1, DirectionAToB); r != Accepted {
		t.Fatalf("Enqueue(p1) = %v, want Accepted", r)
	}
	if r := b.Enqueue(p2, DirectionBToA); r != Accepted {
		t.Fatalf("Enqueue(p2) = %v, want Accepted", r)
	}
	if got := b.UsedBytes(); got != 2*PayloadPacketSize {
		t.Fatalf("UsedBytes() = %d, want %d", got, 2*PayloadPacketSize)
	}

	packet, direction, ok := b.Dequeue()
	if !ok || packet != Packet(p1) || direction != DirectionAToB {
		t.Fatalf("Dequeue() = (%v, %v, %v), want (p1, AToB, true)", packet, direction, ok)
	}
	if got := b.UsedBytes(); got != PayloadPacketSize {
		t.Fatalf("UsedBytes() after one dequeue = %d, want %d", got, PayloadPacketSize)
	}
}

func TestBufferDropsWhenFull(t *testing.T) {
	b := NewBuffer(PayloadPacketSize)

	if r := b.Enqueue(PayloadPacket{}, DirectionAToB); r != Accepted {
		t.Fatal("first packet should fit exactly at capacity")
	}
	if r := b.Enqueue(PayloadPacket{}, DirectionAToB); r != Dropped {
		t.Fatal("second packet should overflow capacity and be dropped")
	}
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
}

func TestBufferDequeueOnEmpty(t *testing.T) {
	b := NewBuffer(1024)
	if _, _, ok := b.Dequeue(); ok {
		t.Fatal("Dequeue on an empty buffer should report ok=false")
	}
}
