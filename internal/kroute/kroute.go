package kroute

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/yanet-platform/prefixtrie/common/go/xnetip"
	"github.com/yanet-platform/prefixtrie/lpm"
)

// Config is the kernel route import configuration.
type Config struct {
	// Table is the kernel routing table to import.
	Table int `yaml:"table"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Table: unix.RT_TABLE_MAIN,
	}
}

// Nexthop describes where the kernel forwards packets for a prefix.
type Nexthop struct {
	// Gateway is the nexthop address, invalid for directly connected
	// routes.
	Gateway   netip.Addr
	LinkIndex int
	// Priority is the route metric, lower is preferred.
	Priority int
	// Type is the kernel route type, one of unix.RTN_*.
	Type int
}

// Reachable reports whether packets are forwarded rather than dropped.
func (m Nexthop) Reachable() bool {
	return m.Type == unix.RTN_UNICAST || m.Type == unix.RTN_LOCAL
}

func (m Nexthop) String() string {
	switch {
	case !m.Reachable():
		return fmt.Sprintf("type %d", m.Type)
	case m.Gateway.IsValid():
		return fmt.Sprintf("via %s dev #%d metric %d", m.Gateway, m.LinkIndex, m.Priority)
	default:
		return fmt.Sprintf("dev #%d metric %d", m.LinkIndex, m.Priority)
	}
}

// Option is a function that configures route import.
type Option func(*options)

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// WithLog configures route import with a logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// List returns the IPv4 routes of the configured kernel table.
func List(cfg *Config) ([]netlink.Route, error) {
	filter := &netlink.Route{Table: cfg.Table}

	routes, err := netlink.RouteListFiltered(unix.AF_INET, filter, netlink.RT_FILTER_TABLE)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes of table %d: %w", cfg.Table, err)
	}

	return routes, nil
}

// Build converts kernel routes into a longest-prefix-match table.
//
// Non-IPv4 routes are skipped. When several routes share a prefix, the one
// with the lowest priority wins.
func Build(routes []netlink.Route, options ...Option) (*lpm.Trie[Nexthop], error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}
	log := opts.Log

	table := lpm.New[Nexthop](lpm.WithCapacity(len(routes) * 8))
	for _, route := range routes {
		prefix, err := routePrefix(route)
		if err != nil {
			log.Debugw("skipping route", zap.Stringer("route", route), zap.Error(err))
			continue
		}

		nexthop := Nexthop{
			LinkIndex: route.LinkIndex,
			Priority:  route.Priority,
			Type:      route.Type,
		}
		// Zero is reported for unicast routes by older kernels.
		if nexthop.Type == 0 {
			nexthop.Type = unix.RTN_UNICAST
		}
		if gw, ok := netip.AddrFromSlice(route.Gw); ok {
			nexthop.Gateway = gw.Unmap()
		}

		if current, ok := table.Get(prefix.Addr, prefix.Bits); ok && current.Priority <= nexthop.Priority {
			continue
		}

		if err := table.Insert(prefix.Addr, prefix.Bits, nexthop); err != nil {
			return nil, fmt.Errorf("failed to insert route %s: %w", prefix, err)
		}
	}

	log.Infow("imported kernel routes",
		zap.Int("routes", len(routes)),
		zap.Int("prefixes", table.Len()),
	)

	return table, nil
}

// Load lists the configured kernel table and builds a lookup table from it.
func Load(cfg *Config, options ...Option) (*lpm.Trie[Nexthop], error) {
	routes, err := List(cfg)
	if err != nil {
		return nil, err
	}

	return Build(routes, options...)
}

func routePrefix(route netlink.Route) (lpm.Prefix, error) {
	// Default routes may come without a destination.
	dst := route.Dst
	if dst == nil {
		if route.Family == unix.AF_INET6 {
			return lpm.Prefix{}, lpm.ErrNotIPv4
		}
		dst = &net.IPNet{IP: net.IPv4zero.To4(), Mask: net.CIDRMask(0, 32)}
	}

	prefix, err := xnetip.FromIPNet(dst)
	if err != nil {
		return lpm.Prefix{}, err
	}

	return lpm.PrefixFrom(prefix)
}
