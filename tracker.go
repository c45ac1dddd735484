package netsim

//
// Per-(host, flow) cumulative-receipt bookkeeping
//

import "sort"

// PacketTracker maintains the cumulative-ack bookkeeping for one
// (host, flow) pair: the smallest sequence number not yet received, and
// the set of sequence numbers received early (out of order). The zero
// value is ready to use. Invariant: nextExpected is never a
// member of early, and every member of early is greater than
// nextExpected.
type PacketTracker struct {
	nextExpected uint64
	early        map[uint64]struct{}
}

// NewPacketTracker creates an empty [PacketTracker].
func NewPacketTracker() *PacketTracker {
	return &PacketTracker{
		nextExpected: 0,
		early:        map[uint64]struct{}{},
	}
}

// NextExpected returns the smallest sequence number not yet received.
func (t *PacketTracker) NextExpected() uint64 {
	return t.nextExpected
}

// Record registers the receipt of seqNo and returns the updated
// NextExpected value:
//
//   - if seqNo is less than NextExpected, it is a duplicate and this is a
//     no-op;
//   - if seqNo equals NextExpected, NextExpected advances by one, and
//     then keeps advancing past any contiguous run already in early;
//   - otherwise seqNo arrived early and is recorded for later.
func (t *PacketTracker) Record(seqNo uint64) uint64 {
	switch {
	case seqNo < t.nextExpected:
		// duplicate, no-op
	case seqNo == t.nextExpected:
		t.nextExpected++
		for {
			if _, ok := t.early[t.nextExpected]; !ok {
				break
			}
			delete(t.early, t.nextExpected)
			t.nextExpected++
		}
	default:
		if t.early == nil {
			t.early = map[uint64]struct{}{}
		}
		t.early[seqNo] = struct{}{}
	}
	return t.nextExpected
}

// CountReceived returns the total number of distinct sequence numbers
// received so far: NextExpected plus the number of early arrivals still
// pending.
func (t *PacketTracker) CountReceived() uint64 {
	return t.nextExpected + uint64(len(t.early))
}

// EarlySeqNos returns the sequence numbers received early, sorted
// ascending. Intended for tests and diagnostics.
func (t *PacketTracker) EarlySeqNos() []uint64 {
	out := make([]uint64, 0, len(t.early))
	for seq := range t.early {
		out = append(out, seq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
