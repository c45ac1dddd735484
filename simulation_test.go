package netsim

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/montanaflynn/stats"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestSimulationRunsTwoHostFlowToCompletion wires a single two-host,
// one-link topology end to end: host a streams a small flow to host b over
// a modest link, and the event loop is driven to completion by
// [Simulation.Run] rather than by hand-stepping the queue.
func TestSimulationRunsTwoHostFlowToCompletion(t *testing.T) {
	sim := NewSimulation(&testLogger{})

	if _, err := sim.AddHost("a", "link0", 1.0); err != nil {
		t.Fatalf("AddHost(a): %v", err)
	}
	if _, err := sim.AddHost("b", "link0", 1.0); err != nil {
		t.Fatalf("AddHost(b): %v", err)
	}
	if _, err := sim.AddLink("link0", 1_000_000, 0.005, 64*1024, "a", "b"); err != nil {
		t.Fatalf("AddLink: %v", err)
	}

	totalBytes := int64(8 * PayloadPacketSize)
	if _, err := sim.AddFlow("f0", "a", "b", "link0", totalBytes, PayloadPacketSize, NewRenoController(), 0); err != nil {
		t.Fatalf("AddFlow: %v", err)
	}

	summary, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := FlowSummary{Finished: true, BytesRemaining: 0}
	got := summary.Flows["f0"]
	got.FinalWindow = 0 // the exact terminal window isn't part of this comparison
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("flow summary mismatch (-want +got):\n%s", diff)
	}

	if len(sim.ctx.Recorder.RTTs) == 0 {
		t.Fatal("expected at least one RTT sample to have been recorded")
	}

	samples := make([]float64, 0, len(sim.ctx.Recorder.RTTs))
	for _, r := range sim.ctx.Recorder.RTTs {
		samples = append(samples, r.RTT)
	}
	median, err := stats.Median(samples)
	if err != nil {
		t.Fatalf("stats.Median: %v", err)
	}
	// Every sample rides the same link, so the median RTT can never be
	// less than twice the propagation delay.
	if median < 2*0.005 {
		t.Fatalf("median RTT %v is implausibly below 2x propagation delay", median)
	}
}

func TestSimulationRejectsLinkWithUnknownEndpoint(t *testing.T) {
	sim := NewSimulation(&testLogger{})
	if _, err := sim.AddHost("a", "link0", 1.0); err != nil {
		t.Fatalf("AddHost(a): %v", err)
	}
	if _, err := sim.AddLink("link0", 1_000_000, 0, 64*1024, "a", "ghost"); err == nil {
		t.Fatal("expected an error for a link endpoint that was never registered")
	}
}

func TestSimulationRunStopsOnContextCancellation(t *testing.T) {
	sim := NewSimulation(&testLogger{})
	if _, err := sim.AddHost("a", "link0", 1.0); err != nil {
		t.Fatalf("AddHost(a): %v", err)
	}
	if _, err := sim.AddHost("b", "link0", 1.0); err != nil {
		t.Fatalf("AddHost(b): %v", err)
	}
	if _, err := sim.AddLink("link0", 1_000, 0.01, 64*1024, "a", "b"); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	// A huge flow over a slow link will never finish within the test;
	// cancelling the context is the only thing that stops the loop.
	if _, err := sim.AddFlow("f0", "a", "b", "link0", 10_000_000, PayloadPacketSize, NewRenoController(), 0); err != nil {
		t.Fatalf("AddFlow: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := sim.Run(ctx)
	if err == nil {
		t.Fatal("expected Run to report the cancellation error")
	}
	if summary.Flows["f0"].Finished {
		t.Fatal("the flow should not have finished before cancellation stopped the loop")
	}
}
