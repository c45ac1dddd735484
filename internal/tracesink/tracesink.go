// Package tracesink prints a simulation's record channels as a
// human-readable trace, one line per record. It is the default sink for
// the "verbose" configuration option: textual tracing a person can
// follow live, as opposed to internal/simmetrics' numeric gauges or
// internal/pcapexport's capture artifact.
package tracesink

import (
	"fmt"
	"io"

	"github.com/virtclock/netsim"
)

// Writer drains a [netsim.Recorder]'s live channels, formatting each
// record as one line written to W.
type Writer struct {
	W io.Writer
}

// New creates a [Writer] that writes to w.
func New(w io.Writer) *Writer {
	return &Writer{W: w}
}

// Run drains recorder's sent, arrived, dropped, window and RTT channels,
// in a single select loop (the same drain-until-closed shape
// internal/simmetrics.Collector.Run and internal/pcapexport.Writer.Drain
// use), until all five are closed. Buffer-occupancy and flow-rate records
// are not read and not printed. It
// returns the first write error encountered, continuing to drain so a
// broken writer never stalls the simulation's event loop.
func (w *Writer) Run(recorder *netsim.Recorder) error {
	sentCh := recorder.SentChan()
	arrivedCh := recorder.ArrivedChan()
	droppedCh := recorder.DroppedChan()
	windowCh := recorder.WindowChan()
	rttCh := recorder.RTTChan()

	var firstErr error
	emit := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	open := 5
	for open > 0 {
		select {
		case rec, ok := <-sentCh:
			if !ok {
				sentCh = nil
				open--
				continue
			}
			_, err := fmt.Fprintf(w.W, "t=%.6f sent   packet=%s link=%s dir=%d size=%d\n",
				rec.Time, rec.PacketID, rec.LinkID, rec.Direction, rec.Size)
			emit(err)
		case rec, ok := <-arrivedCh:
			if !ok {
				arrivedCh = nil
				open--
				continue
			}
			_, err := fmt.Fprintf(w.W, "t=%.6f arrived packet=%s device=%s\n",
				rec.Time, rec.PacketID, rec.DeviceID)
			emit(err)
		case rec, ok := <-droppedCh:
			if !ok {
				droppedCh = nil
				open--
				continue
			}
			_, err := fmt.Fprintf(w.W, "t=%.6f dropped packet=%s link=%s reason=%s\n",
				rec.Time, rec.PacketID, rec.LinkID, rec.Reason)
			emit(err)
		case rec, ok := <-windowCh:
			if !ok {
				windowCh = nil
				open--
				continue
			}
			_, err := fmt.Fprintf(w.W, "t=%.6f window  flow=%s cwnd=%.2f\n",
				rec.Time, rec.FlowID, rec.Window)
			emit(err)
		case rec, ok := <-rttCh:
			if !ok {
				rttCh = nil
				open--
				continue
			}
			_, err := fmt.Fprintf(w.W, "t=%.6f rtt     flow=%s rtt=%.6f\n",
				rec.Time, rec.FlowID, rec.RTT)
			emit(err)
		}
	}
	return firstErr
}
