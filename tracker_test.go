package netsim

import "testing"

func TestPacketTrackerInOrder(t *testing.T) {
	tr := NewPacketTracker()
	for seq := uint64(0); seq < 5; seq++ {
		expected := tr.Record(seq)
		if expected != seq+1 {
			t.Fatalf("Record(%d) = %d, want %d", seq, expected, seq+1)
		}
	}
	if tr.CountReceived() != 5 {
		t.Fatalf("CountReceived() = %d, want 5", tr.CountReceived())
	}
	if len(tr.EarlySeqNos()) != 0 {
		t.Fatalf("expected no early packets, got %v", tr.EarlySeqNos())
	}
}

func TestPacketTrackerOutOfOrderThenFill(t *testing.T) {
	tr := NewPacketTracker()

	if expected := tr.Record(2); expected != 0 {
		t.Fatalf("Record(2) (out of order) should not advance nextExpected, got %d", expected)
	}
	if expected := tr.Record(1); expected != 0 {
		t.Fatalf("Record(1) (still out of order) should not advance nextExpected, got %d", expected)
	}
	if got := tr.EarlySeqNos(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("EarlySeqNos() = %v, want [1 2]", got)
	}

	// the missing packet arrives: nextExpected should drain the whole
	// contiguous early run.
	expected := tr.Record(0)
	if expected != 3 {
		t.Fatalf("Record(0) should drain early run, expected = %d, want 3", expected)
	}
	if len(tr.EarlySeqNos()) != 0 {
		t.Fatalf("expected early set empty after drain, got %v", tr.EarlySeqNos())
	}
}

func TestPacketTrackerDuplicateIsNoop(t *testing.T) {
	tr := NewPacketTracker()
	tr.Record(0)
	expected := tr.Record(0)
	if expected != 1 {
		t.Fatalf("duplicate Record(0) = %d, want 1 (unchanged nextExpected)", expected)
	}
	if tr.CountReceived() != 1 {
		t.Fatalf("CountReceived() = %d, want 1", tr.CountReceived())
	}
}
