package lpm

import (
	"net/netip"

	"github.com/yanet-platform/prefixtrie/common/go/xnetip"
)

// InsertPrefix is like Insert, but takes netip.Prefix.
func (m *Trie[V]) InsertPrefix(prefix netip.Prefix, value V) error {
	p, err := PrefixFrom(prefix)
	if err != nil {
		return err
	}

	return m.Insert(p.Addr, p.Bits, value)
}

// LookupAddr looks up the full 32-bit address.
//
// Non-IPv4 addresses never match.
func (m *Trie[V]) LookupAddr(addr netip.Addr) (V, bool) {
	v, ok := xnetip.Uint32(addr)
	if !ok {
		var zero V
		return zero, false
	}

	return m.Lookup(v, MaxBits)
}

// LookupAddrPrefix is like LookupAddr, but also returns the matched prefix.
func (m *Trie[V]) LookupAddrPrefix(addr netip.Addr) (netip.Prefix, V, bool) {
	v, ok := xnetip.Uint32(addr)
	if !ok {
		var zero V
		return netip.Prefix{}, zero, false
	}

	prefix, value, found := m.LookupPrefix(v, MaxBits)
	if !found {
		return netip.Prefix{}, value, false
	}

	return prefix.NetIP(), value, true
}

// RemovePrefix is like Remove, but takes netip.Prefix.
func (m *Trie[V]) RemovePrefix(prefix netip.Prefix) (V, bool) {
	p, err := PrefixFrom(prefix)
	if err != nil {
		var zero V
		return zero, false
	}

	return m.Remove(p.Addr, p.Bits)
}
