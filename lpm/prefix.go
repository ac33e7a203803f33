package lpm

import (
	"fmt"
	"net/netip"

	"github.com/yanet-platform/prefixtrie/common/go/xnetip"
)

// MaxBits is the width of an IPv4 address in bits.
const MaxBits = 32

// Prefix is an IPv4 prefix in host integer form.
//
// Bit 31 of Addr is the most significant bit of the first octet.
type Prefix struct {
	Addr uint32
	Bits uint8
}

// PrefixFrom converts netip.Prefix into Prefix.
func PrefixFrom(prefix netip.Prefix) (Prefix, error) {
	addr, ok := xnetip.Uint32(prefix.Addr())
	if !ok {
		return Prefix{}, fmt.Errorf("%w: %s", ErrNotIPv4, prefix)
	}

	bits := prefix.Bits()
	if prefix.Addr().Is4In6() {
		bits -= 96
	}
	if bits < 0 || bits > MaxBits {
		return Prefix{}, fmt.Errorf("%w: %s", ErrInvalidPrefixLength, prefix)
	}

	return Prefix{Addr: addr, Bits: uint8(bits)}, nil
}

// Masked returns the prefix with all host bits cleared.
func (m Prefix) Masked() Prefix {
	return Prefix{Addr: m.Addr & mask(m.Bits), Bits: m.Bits}
}

// Contains reports whether the address is covered by the prefix.
func (m Prefix) Contains(addr uint32) bool {
	return (addr^m.Addr)&mask(m.Bits) == 0
}

// NetIP returns the prefix as netip.Prefix.
func (m Prefix) NetIP() netip.Prefix {
	return netip.PrefixFrom(xnetip.AddrFromUint32(m.Addr), int(m.Bits))
}

func (m Prefix) String() string {
	return m.NetIP().String()
}

func mask(bits uint8) uint32 {
	if bits == 0 {
		return 0
	}
	return ^uint32(0) << (MaxBits - uint32(min(bits, MaxBits)))
}

// bitAt returns the bit of the address at the given depth, where depth 0
// is the most significant bit.
func bitAt(addr uint32, depth int) uint32 {
	return (addr >> (MaxBits - 1 - depth)) & 1
}
