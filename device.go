package netsim

//
// Device model: hosts and routers are both "devices" a Link can deliver
// packets to.
//
// Devices and links would naturally refer to each other, which is a
// reference cycle; the cycle is resolved via stable ids plus a central
// registry rather than back-pointers. [Simulation] is that registry: it
// owns every [Link] and [Device] indexed by id, and a [Link] only ever
// addresses its endpoints by the ids given to [Simulation.AddLink].
//

// Device is anything a [Link] can deliver a packet to: a [Host] or a
// [Router].
type Device interface {
	// ID returns the device's stable identifier.
	ID() string

	// HandlePacket processes a packet that just arrived over link.
	HandlePacket(ctx *EngineContext, p Packet, link *Link)
}

// EngineContext bundles the shared, single-threaded services every
// device/link/flow action needs: the virtual [Clock], the [EventQueue]
// used to schedule follow-up events, and the [Recorder] logs mutate.
// Passing it explicitly avoids any package-level global state.
type EngineContext struct {
	Clock    *Clock
	Queue    *EventQueue
	Recorder *Recorder
	Logger   Logger

	// devices maps device id to Device, for Router/Host lookups that
	// need to address another device by id (e.g. a Flow's destination).
	devices map[string]Device

	// links maps link id to *Link, so a Router can flood/forward over
	// any of its attached links by id alone.
	links map[string]*Link
}

// DeviceByID looks up a registered device by id.
func (ctx *EngineContext) DeviceByID(id string) (Device, bool) {
	d, ok := ctx.devices[id]
	return d, ok
}

// LinkByID looks up a registered link by id.
func (ctx *EngineContext) LinkByID(id string) (*Link, bool) {
	l, ok := ctx.links[id]
	return l, ok
}

// linkForID is a small convenience wrapper used by devices that need a
// *Link from an id and want the "unknown id" case logged once centrally.
func linkForID(ctx *EngineContext, id string) (*Link, bool) {
	l, ok := ctx.LinkByID(id)
	if !ok {
		ctx.Logger.Warnf("netsim: unknown link id %s", id)
	}
	return l, ok
}
