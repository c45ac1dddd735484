package netsim

//
// Logging: textual tracing and structured, append-only log channels
//

// Logger is the textual tracing interface, matching the subset of
// github.com/apex/log's Logger that this package needs. Every component
// that wants to explain a drop or a routing decision writes through this
// interface; structured records go to a [Recorder] instead.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// DropReason explains why a packet was dropped. A drop is an expected
// runtime condition, logged rather than raised as an error.
type DropReason string

const (
	// DropReasonBufferFull means a [Link]'s [Buffer] was at capacity.
	DropReasonBufferFull = DropReason("buffer_full")

	// DropReasonNoRoute means a [Router] had no [RoutingTable] entry for
	// a packet's destination.
	DropReasonNoRoute = DropReason("no_route")

	// DropReasonUnexpectedPacket means a packet reached a device that
	// cannot handle it.
	DropReasonUnexpectedPacket = DropReason("unexpected_packet")
)

// PacketSentRecord logs a packet beginning transmission on a link.
type PacketSentRecord struct {
	Time      float64
	PacketID  string
	LinkID    string
	Direction LinkDirection
	Size      int
}

// PacketArrivedRecord logs a packet reaching its next-hop device.
type PacketArrivedRecord struct {
	Time     float64
	PacketID string
	DeviceID string
}

// PacketDroppedRecord logs a packet that was discarded instead of
// delivered.
type PacketDroppedRecord struct {
	Time     float64
	PacketID string
	LinkID   string
	Reason   DropReason
}

// BufferOccupancyRecord logs a link buffer's used-byte count.
type BufferOccupancyRecord struct {
	Time      float64
	LinkID    string
	UsedBytes int
}

// WindowSizeRecord logs a flow's congestion window.
type WindowSizeRecord struct {
	Time   float64
	FlowID string
	Window float64
}

// RTTSampleRecord logs one round-trip-time measurement.
type RTTSampleRecord struct {
	Time   float64
	FlowID string
	RTT    float64
}

// FlowRateRecord logs bytes newly acknowledged for a flow in the interval
// ending at Time. Emission is optional: external tooling may
// derive rate from [RTTSampleRecord]/[WindowSizeRecord] instead.
type FlowRateRecord struct {
	Time            float64
	FlowID          string
	BytesInInterval int64
}

// recordChanCapacity bounds how much buffering each live-consumer channel
// gets before new records are dropped for that channel (the authoritative
// copy always lives in the Recorder's slices, appended synchronously by
// the single-threaded event loop).
const recordChanCapacity = 4096

// Recorder is the sink for every structured record the simulator emits. It
// has two faces: synchronous slices (the authoritative copy, safe to read
// once [Simulation.Run] has returned) and best-effort channels for
// external live consumers, fed by a non-blocking send so a slow consumer
// can never stall the event loop.
type Recorder struct {
	Sent      []PacketSentRecord
	Arrived   []PacketArrivedRecord
	Dropped   []PacketDroppedRecord
	Occupancy []BufferOccupancyRecord
	Windows   []WindowSizeRecord
	RTTs      []RTTSampleRecord
	FlowRates []FlowRateRecord

	sentCh      chan PacketSentRecord
	arrivedCh   chan PacketArrivedRecord
	droppedCh   chan PacketDroppedRecord
	occupancyCh chan BufferOccupancyRecord
	windowCh    chan WindowSizeRecord
	rttCh       chan RTTSampleRecord
	flowRateCh  chan FlowRateRecord
}

// NewRecorder creates an empty [Recorder].
func NewRecorder() *Recorder {
	return &Recorder{
		sentCh:      make(chan PacketSentRecord, recordChanCapacity),
		arrivedCh:   make(chan PacketArrivedRecord, recordChanCapacity),
		droppedCh:   make(chan PacketDroppedRecord, recordChanCapacity),
		occupancyCh: make(chan BufferOccupancyRecord, recordChanCapacity),
		windowCh:    make(chan WindowSizeRecord, recordChanCapacity),
		rttCh:       make(chan RTTSampleRecord, recordChanCapacity),
		flowRateCh:  make(chan FlowRateRecord, recordChanCapacity),
	}
}

// SentChan exposes the live channel of [PacketSentRecord]s.
func (r *Recorder) SentChan() <-chan PacketSentRecord { return r.sentCh }

// ArrivedChan exposes the live channel of [PacketArrivedRecord]s.
func (r *Recorder) ArrivedChan() <-chan PacketArrivedRecord { return r.arrivedCh }

// DroppedChan exposes the live channel of [PacketDroppedRecord]s.
func (r *Recorder) DroppedChan() <-chan PacketDroppedRecord { return r.droppedCh }

// OccupancyChan exposes the live channel of [BufferOccupancyRecord]s.
func (r *Recorder) OccupancyChan() <-chan BufferOccupancyRecord { return r.occupancyCh }

// WindowChan exposes the live channel of [WindowSizeRecord]s.
func (r *Recorder) WindowChan() <-chan WindowSizeRecord { return r.windowCh }

// RTTChan exposes the live channel of [RTTSampleRecord]s.
func (r *Recorder) RTTChan() <-chan RTTSampleRecord { return r.rttCh }

// FlowRateChan exposes the live channel of [FlowRateRecord]s.
func (r *Recorder) FlowRateChan() <-chan FlowRateRecord { return r.flowRateCh }

func (r *Recorder) sent(rec PacketSentRecord) {
	r.Sent = append(r.Sent, rec)
	select {
	case r.sentCh <- rec:
	default:
	}
}

func (r *Recorder) arrived(rec PacketArrivedRecord) {
	r.Arrived = append(r.Arrived, rec)
	select {
	case r.arrivedCh <- rec:
	default:
	}
}

func (r *Recorder) dropped(rec PacketDroppedRecord) {
	r.Dropped = append(r.Dropped, rec)
	select {
	case r.droppedCh <- rec:
	default:
	}
}

func (r *Recorder) occupancy(rec BufferOccupancyRecord) {
	r.Occupancy = append(r.Occupancy, rec)
	select {
	case r.occupancyCh <- rec:
	default:
	}
}

func (r *Recorder) window(rec WindowSizeRecord) {
	r.Windows = append(r.Windows, rec)
	select {
	case r.windowCh <- rec:
	default:
	}
}

func (r *Recorder) rtt(rec RTTSampleRecord) {
	r.RTTs = append(r.RTTs, rec)
	select {
	case r.rttCh <- rec:
	default:
	}
}

func (r *Recorder) flowRate(rec FlowRateRecord) {
	r.FlowRates = append(r.FlowRates, rec)
	select {
	case r.flowRateCh <- rec:
	default:
	}
}

// closeChannels closes every live-consumer channel. Called once by
// [Simulation.Run] after the event loop stops, so that errgroup-based
// sinks (see internal/pcapexport, internal/simmetrics) observe EOF.
func (r *Recorder) closeChannels() {
	close(r.sentCh)
	close(r.arrivedCh)
	close(r.droppedCh)
	close(r.occupancyCh)
	close(r.windowCh)
	close(r.rttCh)
	close(r.flowRateCh)
}
