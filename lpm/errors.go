package lpm

import "errors"

var (
	// ErrInvalidPrefixLength is returned when a prefix length is outside of
	// the [0, MaxBits] range.
	ErrInvalidPrefixLength = errors.New("invalid prefix length")
	// ErrAllocationFailure is returned when a new node cannot be allocated
	// because the trie has reached its memory limit.
	//
	// The trie is left exactly as it was before the failed call.
	ErrAllocationFailure = errors.New("node allocation failure")
	// ErrNotIPv4 is returned by the netip adapters for non-IPv4 input.
	ErrNotIPv4 = errors.New("not an IPv4 address")
)
