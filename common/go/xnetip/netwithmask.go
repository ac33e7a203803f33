package xnetip

import (
	"fmt"
	"net"
	"net/netip"
)

// FromIPNet converts net.IPNet into a masked netip.Prefix.
//
// Unlike net.IPNet, netip.Prefix cannot express non-contiguous masks
// (e.g., 255.255.0.255), so such masks are rejected.
func FromIPNet(n *net.IPNet) (netip.Prefix, error) {
	addr, ok := netip.AddrFromSlice(n.IP)
	if !ok {
		return netip.Prefix{}, fmt.Errorf("invalid address %v", n.IP)
	}

	ones, size := n.Mask.Size()
	if ones == 0 && size == 0 {
		return netip.Prefix{}, fmt.Errorf("mask %s is not a valid prefix (non-contiguous bits)", n.Mask)
	}

	// A 4-byte mask applied to a 16-byte IPv4 representation.
	if size == 8*net.IPv4len {
		addr = addr.Unmap()
	}
	if addr.BitLen() != size {
		return netip.Prefix{}, fmt.Errorf(
			"mask length %d doesn't match address type (expected %d)",
			size, addr.BitLen(),
		)
	}

	prefix, err := addr.Prefix(ones)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("failed to create prefix: %w", err)
	}

	return prefix, nil
}
