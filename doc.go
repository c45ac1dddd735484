// Package netsim is a discrete-event network simulator.
//
// Given a declarative topology of hosts, routers, links and flows, it
// advances a virtual clock by dequeuing timestamped events from a priority
// queue, producing logs of packet movement, buffer occupancy, window sizes
// and round-trip times suitable for post-simulation analysis.
//
// The simulator is single-threaded and cooperative: [EventQueue] is the
// only concurrency model. An event's action runs to completion before the
// next one is dequeued, so no component needs locks (see [Simulation.Run]).
//
// A topology is built from four kinds of objects: [Host], [Router], [Link]
// and [Flow]. Hosts and routers are connected by [Link]s, each of which owns
// a bounded [Buffer] and models half-duplex transmission with a fixed rate
// and propagation delay. [Flow]s move bytes from a source [Host] to a
// destination [Host], driven by a [CongestionController] (either
// [NewRenoController] or [NewFastController]).
//
// JSON topology parsing, command-line handling, statistical
// post-processing and plotting are deliberately out of scope for this
// package; see the internal/topology, internal/config and cmd/netsim
// packages, and an external analysis tool, for those concerns.
package netsim
