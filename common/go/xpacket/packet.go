package xpacket

import (
	"fmt"
	"net/netip"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"
)

var serializeOptions = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

// IPv4Addrs returns the source and destination addresses of the packet's
// IPv4 header.
func IPv4Addrs(pkt gopacket.Packet) (netip.Addr, netip.Addr, bool) {
	ip4, ok := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	if !ok {
		return netip.Addr{}, netip.Addr{}, false
	}

	src, ok := netip.AddrFromSlice(ip4.SrcIP)
	if !ok {
		return netip.Addr{}, netip.Addr{}, false
	}
	dst, ok := netip.AddrFromSlice(ip4.DstIP)
	if !ok {
		return netip.Addr{}, netip.Addr{}, false
	}

	return src.Unmap(), dst.Unmap(), true
}

// Serialize encodes layers into wire bytes, fixing lengths and checksums.
func Serialize(lyrs ...gopacket.SerializableLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOptions, lyrs...); err != nil {
		return nil, fmt.Errorf("failed to serialize layers: %w", err)
	}

	return buf.Bytes(), nil
}

// LayersToPacket serializes layers starting from Ethernet and decodes them
// back into a packet.
func LayersToPacket(t *testing.T, lyrs ...gopacket.SerializableLayer) gopacket.Packet {
	data, err := Serialize(lyrs...)
	require.NoError(t, err)

	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	require.Empty(t, pkt.ErrorLayer(), "%#+v", lyrs)
	return pkt
}
