package netsim

//
// Bounded FIFO buffer
//

// LinkDirection identifies which endpoint of a [Link] a packet is
// travelling toward.
type LinkDirection int

const (
	// DirectionAToB means the packet travels from endpoint A to B.
	DirectionAToB = LinkDirection(0)

	// DirectionBToA means the packet travels from endpoint B to A.
	DirectionBToA = LinkDirection(1)
)

// String implements fmt.Stringer.
func (d LinkDirection) String() string {
	if d == DirectionBToA {
		return "b_to_a"
	}
	return "a_to_b"
}

// bufferEntry pairs a packet with the direction it is travelling.
type bufferEntry struct {
	packet    Packet
	direction LinkDirection
}

// EnqueueResult is the outcome of [Buffer.Enqueue].
type EnqueueResult int

const (
	// Accepted means the packet fit within the buffer's capacity.
	Accepted = EnqueueResult(0)

	// Dropped means the buffer was full and the packet was discarded.
	Dropped = EnqueueResult(1)
)

// Buffer is a bounded FIFO queue of (packet, direction) pairs tracking
// byte occupancy. The zero value is invalid; use [NewBuffer].
type Buffer struct {
	entries    []bufferEntry
	usedBytes  int
	capacity   int
}

// NewBuffer creates a [Buffer] with the given capacity in bytes.
func NewBuffer(capacityBytes int) *Buffer {
	return &Buffer{
		entries:   []bufferEntry{},
		usedBytes: 0,
		capacity:  capacityBytes,
	}
}

// UsedBytes returns the number of bytes currently occupied.
func (b *Buffer) UsedBytes() int {
	return b.usedBytes
}

// Capacity returns the buffer's byte capacity.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Len returns the number of packets currently queued.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Enqueue appends packet to the buffer if doing so would not exceed
// capacity, and returns [Accepted] or [Dropped] accordingly.
func (b *Buffer) Enqueue(packet Packet, direction LinkDirection) EnqueueResult {
	if b.usedBytes+packet.Size() > b.capacity {
		return Dropped
	}
	b.entries = append(b.entries, bufferEntry{packet: packet, direction: direction})
	b.usedBytes += packet.Size()
	return Accepted
}

// Dequeue removes and returns the head of the buffer. ok is false if the
// buffer is empty.
func (b *Buffer) Dequeue() (packet Packet, direction LinkDirection, ok bool) {
	if len(b.entries) == 0 {
		return nil, 0, false
	}
	head := b.entries[0]
	b.entries = b.entries[1:]
	b.usedBytes -= head.packet.Size()
	return head.packet, head.direction, true
}

// PeekDirection returns the direction of the head entry without
// dequeuing it, so a [Link] can decide whether it may start transmitting
// without yet committing to do so. ok is false if the buffer is empty.
func (b *Buffer) PeekDirection() (direction LinkDirection, ok bool) {
	if len(b.entries) == 0 {
		return 0, false
	}
	return b.entries[0].direction, true
}
