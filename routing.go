package netsim

//
// Distance-vector-style routing table
//

// RoutingUpdateResult is the outcome of [RoutingTable.Update].
type RoutingUpdateResult int

const (
	// RoutingInserted means the destination had no prior entry.
	RoutingInserted = RoutingUpdateResult(0)

	// RoutingRefreshed means the destination had an older entry that
	// was replaced.
	RoutingRefreshed = RoutingUpdateResult(1)

	// RoutingIgnored means an existing, newer-or-equal entry was kept.
	RoutingIgnored = RoutingUpdateResult(2)
)

// routingEntry is one destination's current route.
type routingEntry struct {
	linkID    string
	timestamp float64
}

// RoutingTable maps destination host id to an outgoing link id and the
// timestamp of the beacon that last confirmed the route. The zero value
// is invalid; use [NewRoutingTable].
type RoutingTable struct {
	entries map[string]routingEntry
}

// NewRoutingTable creates an empty [RoutingTable].
func NewRoutingTable() *RoutingTable {
	return &RoutingTable{entries: map[string]routingEntry{}}
}

// Lookup returns the outgoing link id for hostID, if known.
func (t *RoutingTable) Lookup(hostID string) (linkID string, ok bool) {
	e, ok := t.entries[hostID]
	if !ok {
		return "", false
	}
	return e.linkID, true
}

// Update records that hostID is reachable via linkID as of timestamp. It
// inserts a fresh entry, refreshes a stale one, or ignores a beacon that
// is no newer than what is already known.
func (t *RoutingTable) Update(hostID, linkID string, timestamp float64) RoutingUpdateResult {
	existing, ok := t.entries[hostID]
	if !ok {
		t.entries[hostID] = routingEntry{linkID: linkID, timestamp: timestamp}
		return RoutingInserted
	}
	if timestamp > existing.timestamp {
		t.entries[hostID] = routingEntry{linkID: linkID, timestamp: timestamp}
		return RoutingRefreshed
	}
	return RoutingIgnored
}

// Destinations returns every destination host id currently known, mainly
// for tests and convergence diagnostics.
func (t *RoutingTable) Destinations() []string {
	out := make([]string, 0, len(t.entries))
	for id := range t.entries {
		out = append(out, id)
	}
	return out
}
