package xpacket

import (
	"net"
	"net/netip"
	"testing"

	"github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/require"
)

func TestIPv4Addrs(t *testing.T) {
	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0, 0x11, 0x22, 0x33, 0x44, 0x55},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip4 := layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolICMPv4,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(192, 168, 0, 1),
	}
	icmp := layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)}

	pkt := LayersToPacket(t, &eth, &ip4, &icmp)

	src, dst, ok := IPv4Addrs(pkt)
	require.True(t, ok)
	require.Equal(t, netip.MustParseAddr("10.0.0.1"), src)
	require.Equal(t, netip.MustParseAddr("192.168.0.1"), dst)
}

func TestIPv4AddrsNoHeader(t *testing.T) {
	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0, 0x11, 0x22, 0x33, 0x44, 0x55},
		EthernetType: layers.EthernetTypeIPv6,
	}
	ip6 := layers.IPv6{
		Version:    6,
		NextHeader: layers.IPProtocolUDP,
		HopLimit:   64,
		SrcIP:      net.ParseIP("2001:db8::1"),
		DstIP:      net.ParseIP("2001:db8::2"),
	}
	udp := layers.UDP{SrcPort: 5353, DstPort: 53}
	require.NoError(t, udp.SetNetworkLayerForChecksum(&ip6))

	pkt := LayersToPacket(t, &eth, &ip6, &udp)

	_, _, ok := IPv4Addrs(pkt)
	require.False(t, ok)
}
