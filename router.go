package netsim

//
// Packet routing device
//

// Router forwards standard traffic via its [RoutingTable] and processes
// routing beacons. The zero value is invalid; use [NewRouter].
type Router struct {
	id    string
	links []string // ids of every link attached to this router
	table *RoutingTable
}

var _ Device = &Router{}

// NewRouter creates a [Router] with the given id, attached to the given
// link ids.
func NewRouter(id string, linkIDs []string) *Router {
	return &Router{
		id:    id,
		links: append([]string{}, linkIDs...),
		table: NewRoutingTable(),
	}
}

// ID implements Device.
func (r *Router) ID() string {
	return r.id
}

// Table exposes the router's [RoutingTable], mainly for tests.
func (r *Router) Table() *RoutingTable {
	return r.table
}

// HandlePacket implements Device. A [RoutingPacket] updates the routing
// table and, if that update was informative, is flooded unchanged over
// every attached link except the one it arrived on. A standard packet
// (payload or ack) is forwarded toward its destination according to the
// routing table, or dropped and logged if there is no route.
func (r *Router) HandlePacket(ctx *EngineContext, p Packet, via *Link) {
	switch v := p.(type) {
	case RoutingPacket:
		r.handleRoutingPacket(ctx, v, via)
	case PayloadPacket:
		r.forwardStandard(ctx, p, v.DestHostID, via)
	case AckPacket:
		r.forwardStandard(ctx, p, v.DestHostID, via)
	default:
		ctx.Logger.Warnf("netsim: router %s: unexpected packet kind", r.id)
	}
}

func (r *Router) handleRoutingPacket(ctx *EngineContext, p RoutingPacket, via *Link) {
	result := r.table.Update(p.SourceHostID, via.ID, p.OriginTime)
	if result == RoutingIgnored {
		return
	}
	for _, linkID := range r.links {
		if linkID == via.ID {
			continue
		}
		link, ok := linkForID(ctx, linkID)
		if !ok {
			continue
		}
		if err := link.SendFrom(ctx, p, r.id); err != nil {
			ctx.Logger.Warnf("netsim: router %s: flood over %s: %s", r.id, linkID, err.Error())
		}
	}
}

func (r *Router) forwardStandard(ctx *EngineContext, p Packet, destHostID string, via *Link) {
	linkID, ok := r.table.Lookup(destHostID)
	if !ok {
		ctx.Logger.Warnf("netsim: router %s: no route to %s", r.id, destHostID)
		ctx.Recorder.dropped(PacketDroppedRecord{
			Time:     ctx.Clock.Now(),
			PacketID: packetID(p),
			LinkID:   via.ID,
			Reason:   DropReasonNoRoute,
		})
		return
	}
	link, ok := linkForID(ctx, linkID)
	if !ok {
		return
	}
	if err := link.SendFrom(ctx, p, r.id); err != nil {
		ctx.Logger.Warnf("netsim: router %s: forward over %s: %s", r.id, linkID, err.Error())
	}
}
