package kroute

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/yanet-platform/prefixtrie/lpm"
)

func ipNet(t *testing.T, cidr string) *net.IPNet {
	_, n, err := net.ParseCIDR(cidr)
	require.NoError(t, err)
	return n
}

func lookup(t *testing.T, table *lpm.Trie[Nexthop], addr string) (Nexthop, bool) {
	return table.LookupAddr(netip.MustParseAddr(addr))
}

func TestBuild(t *testing.T) {
	routes := []netlink.Route{
		{
			// Default route without destination.
			Gw:        net.ParseIP("10.0.0.1"),
			LinkIndex: 2,
			Priority:  100,
			Type:      unix.RTN_UNICAST,
		},
		{
			Dst:       ipNet(t, "10.0.0.0/24"),
			LinkIndex: 2,
			Priority:  100,
		},
		{
			Dst:       ipNet(t, "192.168.0.0/16"),
			Gw:        net.ParseIP("10.0.0.254"),
			LinkIndex: 3,
			Priority:  200,
			Type:      unix.RTN_UNICAST,
		},
		{
			// Same prefix with a better metric.
			Dst:       ipNet(t, "192.168.0.0/16"),
			Gw:        net.ParseIP("10.0.0.253"),
			LinkIndex: 4,
			Priority:  50,
			Type:      unix.RTN_UNICAST,
		},
		{
			// Same prefix with a worse metric.
			Dst:       ipNet(t, "192.168.0.0/16"),
			Gw:        net.ParseIP("10.0.0.252"),
			LinkIndex: 5,
			Priority:  300,
			Type:      unix.RTN_UNICAST,
		},
		{
			Dst:  ipNet(t, "192.168.66.0/24"),
			Type: unix.RTN_BLACKHOLE,
		},
		{
			Dst:       ipNet(t, "2001:db8::/32"),
			LinkIndex: 2,
		},
		{
			Family:    unix.AF_INET6,
			Gw:        net.ParseIP("fe80::1"),
			LinkIndex: 2,
		},
	}

	table, err := Build(routes)
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	nexthop, ok := lookup(t, table, "8.8.8.8")
	require.True(t, ok)
	require.Equal(t, Nexthop{
		Gateway:   netip.MustParseAddr("10.0.0.1"),
		LinkIndex: 2,
		Priority:  100,
		Type:      unix.RTN_UNICAST,
	}, nexthop)
	require.Equal(t, "via 10.0.0.1 dev #2 metric 100", nexthop.String())

	nexthop, ok = lookup(t, table, "10.0.0.77")
	require.True(t, ok)
	require.False(t, nexthop.Gateway.IsValid())
	require.Equal(t, "dev #2 metric 100", nexthop.String())

	nexthop, ok = lookup(t, table, "192.168.1.1")
	require.True(t, ok)
	require.Equal(t, netip.MustParseAddr("10.0.0.253"), nexthop.Gateway)
	require.Equal(t, 4, nexthop.LinkIndex)

	nexthop, ok = lookup(t, table, "192.168.66.1")
	require.True(t, ok)
	require.False(t, nexthop.Reachable())
}

func TestBuildEmpty(t *testing.T) {
	table, err := Build(nil)
	require.NoError(t, err)

	_, ok := lookup(t, table, "1.1.1.1")
	require.False(t, ok)
}

func TestDefaultConfig(t *testing.T) {
	require.Equal(t, unix.RT_TABLE_MAIN, DefaultConfig().Table)
}
