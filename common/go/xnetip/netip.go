package xnetip

import (
	"encoding/binary"
	"net/netip"
)

// AddrFromUint32 converts an IPv4 address in host integer form, where bit 31
// is the most significant bit of the first octet, into netip.Addr.
func AddrFromUint32(v uint32) netip.Addr {
	b := [4]byte{}
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

// Uint32 returns the integer form of an IPv4 address.
//
// IPv4-mapped IPv6 addresses are unmapped first. It returns false for any
// other IPv6 address.
func Uint32(addr netip.Addr) (uint32, bool) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, false
	}

	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), true
}

// LastAddr returns the broadcast address of an IPv4 prefix.
//
// It returns the zero Addr for invalid and non-IPv4 prefixes.
func LastAddr(prefix netip.Prefix) netip.Addr {
	addrBits, ok := Uint32(prefix.Masked().Addr())
	bits := prefix.Bits()
	if !ok || bits < 0 || bits > 32 {
		return netip.Addr{}
	}

	wildcardBits := uint32(1<<(32-bits) - 1)
	return AddrFromUint32(addrBits | wildcardBits)
}
