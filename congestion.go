package netsim

//
// Congestion control: Reno and FAST, behind one shared contract
//

import "math"

// DefaultInitialWindow is the window size (in packets) every
// [CongestionController] starts with.
const DefaultInitialWindow = 1.0

// DefaultInitialSsthresh is the Reno slow-start threshold, a conventional
// TCP default used in the absence of any other pinned value.
const DefaultInitialSsthresh = 64.0

// DefaultFastAlpha is FAST's target number of queued packets.
const DefaultFastAlpha = 50.0

// DefaultFastGamma is FAST's smoothing constant, the textbook 0.5.
const DefaultFastGamma = 0.5

// minTimeout is the floor applied to every controller's computed
// retransmission timeout: timeout = max(2*min_rtt, 1s).
const minTimeout = 1.0

// CongestionController is the shared contract both congestion-control
// algorithms implement: a vtable-like record of behaviors rather than a
// class hierarchy. [Flow] drives a controller through this interface and
// never inspects which variant it holds.
type CongestionController interface {
	// Window returns the current congestion window, in packets.
	Window() float64

	// Timeout returns the current per-packet retransmission timeout, in
	// seconds: max(2*min_rtt, 1s).
	Timeout() float64

	// OnAck is invoked for a fresh (non-duplicate) cumulative ack, with
	// its RTT sample.
	OnAck(rtt float64)

	// OnDuplicateAck is invoked for every repeated ack carrying the same
	// expected_seq_no, including the third one (see OnTripleDuplicateAck
	// for the transition that specifically happens on the third).
	OnDuplicateAck()

	// OnTripleDuplicateAck is invoked once, when the duplicate-ack count
	// for a given expected_seq_no first reaches three — the loss
	// inference signal.
	OnTripleDuplicateAck()

	// OnDrop is invoked when a packet's retransmission timeout expires.
	OnDrop()
}

// renoPhase is the congestion-avoidance state machine's current phase.
type renoPhase int

const (
	renoSlowStart renoPhase = iota
	renoCongestionAvoidance
	renoFastRecovery
)

// RenoController implements TCP Reno's slow-start / congestion-avoidance
// / fast-recovery state machine.
type RenoController struct {
	window   float64
	ssthresh float64
	phase    renoPhase
	minRTT   float64
}

var _ CongestionController = &RenoController{}

// NewRenoController creates a [RenoController] with the default initial
// window and ssthresh.
func NewRenoController() *RenoController {
	return &RenoController{
		window:   DefaultInitialWindow,
		ssthresh: DefaultInitialSsthresh,
		phase:    renoSlowStart,
		minRTT:   math.Inf(1),
	}
}

// Window implements CongestionController.
func (r *RenoController) Window() float64 {
	return r.window
}

// Timeout implements CongestionController.
func (r *RenoController) Timeout() float64 {
	if math.IsInf(r.minRTT, 1) {
		return minTimeout
	}
	return math.Max(2*r.minRTT, minTimeout)
}

// OnAck implements CongestionController.
func (r *RenoController) OnAck(rtt float64) {
	if rtt < r.minRTT {
		r.minRTT = rtt
	}
	switch r.phase {
	case renoFastRecovery:
		// a fresh ack ends fast recovery: deflate to ssthresh exactly.
		r.window = r.ssthresh
		r.phase = renoCongestionAvoidance
	case renoSlowStart:
		r.window++
		if r.window >= r.ssthresh {
			r.phase = renoCongestionAvoidance
		}
	case renoCongestionAvoidance:
		r.window += 1 / r.window
	}
}

// OnDuplicateAck implements CongestionController.
func (r *RenoController) OnDuplicateAck() {
	if r.phase == renoFastRecovery {
		r.window++
	}
}

// OnTripleDuplicateAck implements CongestionController.
func (r *RenoController) OnTripleDuplicateAck() {
	r.ssthresh = r.window / 2
	r.window = r.ssthresh + 3
	r.phase = renoFastRecovery
}

// OnDrop implements CongestionController.
func (r *RenoController) OnDrop() {
	r.ssthresh = r.window / 2
	r.window = 1
	r.phase = renoSlowStart
}

// FastController implements the FAST TCP delay-based congestion control
// algorithm.
type FastController struct {
	window float64
	minRTT float64
	alpha  float64
	gamma  float64
}

var _ CongestionController = &FastController{}

// NewFastController creates a [FastController] using alpha and gamma;
// pass [DefaultFastAlpha]/[DefaultFastGamma] unless you have a reason to
// override them.
func NewFastController(alpha, gamma float64) *FastController {
	return &FastController{
		window: DefaultInitialWindow,
		minRTT: math.Inf(1),
		alpha:  alpha,
		gamma:  gamma,
	}
}

// Window implements CongestionController.
func (f *FastController) Window() float64 {
	return f.window
}

// Timeout implements CongestionController.
func (f *FastController) Timeout() float64 {
	if math.IsInf(f.minRTT, 1) {
		return minTimeout
	}
	return math.Max(2*f.minRTT, minTimeout)
}

// OnAck implements CongestionController.
func (f *FastController) OnAck(rtt float64) {
	if rtt < f.minRTT {
		f.minRTT = rtt
	}
	target := (1-f.gamma)*f.window + f.gamma*(f.minRTT/rtt*f.window+f.alpha)
	f.window = math.Min(2*f.window, target)
}

// OnDuplicateAck implements CongestionController. FAST reacts to loss via
// [OnTripleDuplicateAck] and [OnDrop], not individual duplicate acks.
func (f *FastController) OnDuplicateAck() {
	// nothing
}

// OnTripleDuplicateAck implements CongestionController. FAST treats a
// triple-duplicate-ack exactly like any other loss signal.
func (f *FastController) OnTripleDuplicateAck() {
	f.OnDrop()
}

// OnDrop implements CongestionController: a safety-net halving, since
// FAST prefers its delay signal but must still respect real losses.
func (f *FastController) OnDrop() {
	f.window = math.Max(f.window/2, 1)
}
