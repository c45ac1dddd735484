// Package pcapexport renders a simulation's packet-sent records as a
// synthetic pcap capture. Payload fidelity is out of scope — only sizes
// are modeled — so every frame is a zero-filled UDP datagram of the right
// length wrapped in a synthetic Ethernet/IPv4 header: a capture-shaped
// view of "how much traffic, when, over which link" for tools that
// already know how to chart a pcap.
package pcapexport

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/virtclock/netsim"
)

// linkAddress deterministically derives a synthetic MAC/IP pair for a
// link id, so the same link always renders as the same "host" across a
// capture.
func linkAddress(linkID string, direction netsim.LinkDirection) (net.HardwareAddr, net.IP) {
	h := fnv32(linkID) ^ uint32(direction)
	mac := net.HardwareAddr{0x02, byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h), 0x00}
	ip := net.IPv4(10, byte(h>>16), byte(h>>8), byte(h))
	return mac, ip
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h *= prime32
		h ^= uint32(s[i])
	}
	return h
}

// Writer renders [netsim.PacketSentRecord]s as pcap frames.
type Writer struct {
	pcap  *pcapgo.Writer
	epoch time.Time
}

// New creates a [Writer] that writes an Ethernet-linktype pcap file to w.
// epoch maps virtual time 0 to a wall-clock timestamp; pass time.Unix(0,
// 0) if the mapping doesn't matter to the consumer.
func New(w io.Writer, epoch time.Time) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("netsim/pcapexport: write file header: %w", err)
	}
	return &Writer{pcap: pw, epoch: epoch}, nil
}

// WriteSent serializes one packet-sent record as a synthetic frame. The
// packet travels from the link's current-direction source to its
// destination; both ends are synthesized from the link id so that a
// consumer can still group traffic per link.
func (w *Writer) WriteSent(rec netsim.PacketSentRecord) error {
	srcMAC, srcIP := linkAddress(rec.LinkID, rec.Direction)
	dstMAC, dstIP := linkAddress(rec.LinkID, 1-rec.Direction)

	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    srcIP,
		DstIP:    dstIP,
	}
	udp := &layers.UDP{SrcPort: 9, DstPort: 9}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return fmt.Errorf("netsim/pcapexport: checksum: %w", err)
	}

	// Ethernet/IPv4/UDP headers already account for part of the
	// record's logged size; pad with a zero-filled payload for the rest
	// so the frame on the wire matches the simulated packet's size.
	const headerBytes = 14 + 20 + 8
	payloadLen := rec.Size - headerBytes
	if payloadLen < 0 {
		payloadLen = 0
	}
	payload := make([]byte, payloadLen)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return fmt.Errorf("netsim/pcapexport: serialize: %w", err)
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     w.epoch.Add(time.Duration(rec.Time * float64(time.Second))),
		CaptureLength: len(buf.Bytes()),
		Length:        len(buf.Bytes()),
	}
	return w.pcap.WritePacket(ci, buf.Bytes())
}

// Drain reads from sentCh until it is closed ([netsim.Simulation.Run]
// closes every [netsim.Recorder] channel once the event loop stops),
// writing each record. It returns the first write error
// encountered, continuing to drain the channel so the sender is never
// blocked by a failed writer — see internal/simmetrics for the same
// drain-to-completion pattern.
func (w *Writer) Drain(sentCh <-chan netsim.PacketSentRecord) error {
	var firstErr error
	for rec := range sentCh {
		if firstErr == nil {
			if err := w.WriteSent(rec); err != nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
