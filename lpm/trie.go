package lpm

import (
	"fmt"
	"iter"
	"slices"
	"unsafe"

	"github.com/c2h5oh/datasize"
)

// nilIdx marks an absent child.
//
// The root always occupies index 0 and is never a child of another node,
// so zero is free to serve as the sentinel.
const (
	rootIdx uint32 = 0
	nilIdx  uint32 = 0
)

type node[V any] struct {
	children [2]uint32
	value    V
	hasValue bool
}

func (m *node[V]) isLeaf() bool {
	return m.children[0] == nilIdx && m.children[1] == nilIdx
}

// Trie is a binary trie over IPv4 addresses answering longest-prefix-match
// queries.
//
// Nodes live in an arena and reference their children by index. A node at
// depth d carries a value only if a prefix of length exactly d along that
// bit path was inserted.
//
// Trie is not safe for concurrent use. Concurrent lookups are fine as long
// as no mutation is in flight.
type Trie[V any] struct {
	nodes []node[V]
	// free holds indices of pruned nodes available for reuse.
	free     []uint32
	entries  int
	maxNodes int
}

// New creates an empty trie.
func New[V any](options ...Option) *Trie[V] {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	maxNodes := 0
	if opts.MemoryLimit > 0 {
		nodeSize := datasize.ByteSize(unsafe.Sizeof(node[V]{}))
		maxNodes = max(int(opts.MemoryLimit/nodeSize), 1)
	}

	capacity := max(opts.Capacity, 1)
	if maxNodes > 0 {
		capacity = min(capacity, maxNodes)
	}

	nodes := make([]node[V], 1, capacity)
	return &Trie[V]{
		nodes:    nodes,
		maxNodes: maxNodes,
	}
}

// Len returns the number of stored prefixes.
func (m *Trie[V]) Len() int {
	return m.entries
}

// Nodes returns the number of live nodes, including the root.
func (m *Trie[V]) Nodes() int {
	return len(m.nodes) - len(m.free)
}

// Insert stores the value at the node addressed by the first prefixLen bits
// of addr, creating missing nodes along the way.
//
// A value previously stored for the same prefix is overwritten. Host bits
// beyond prefixLen are ignored.
func (m *Trie[V]) Insert(addr uint32, prefixLen uint8, value V) error {
	if prefixLen > MaxBits {
		return fmt.Errorf("%w: %d", ErrInvalidPrefixLength, prefixLen)
	}

	idx := rootIdx
	depth := 0
	for ; depth < int(prefixLen); depth++ {
		next := m.nodes[idx].children[bitAt(addr, depth)]
		if next == nilIdx {
			break
		}
		idx = next
	}

	// Check the whole chain fits before linking anything.
	missing := int(prefixLen) - depth
	if m.maxNodes > 0 && m.Nodes()+missing > m.maxNodes {
		return fmt.Errorf("%w: %d more nodes needed, %d of %d in use",
			ErrAllocationFailure, missing, m.Nodes(), m.maxNodes)
	}

	for ; depth < int(prefixLen); depth++ {
		child := m.alloc()
		m.nodes[idx].children[bitAt(addr, depth)] = child
		idx = child
	}

	n := &m.nodes[idx]
	if !n.hasValue {
		m.entries++
	}
	n.value = value
	n.hasValue = true

	return nil
}

// Lookup returns the value of the longest stored prefix covering the first
// bitWidth bits of addr.
//
// The walk starts at the root, so a prefix of length zero acts as a
// catch-all. A bitWidth above MaxBits is treated as MaxBits. It returns
// false if no stored prefix covers the address.
func (m *Trie[V]) Lookup(addr uint32, bitWidth uint8) (V, bool) {
	_, value, ok := m.LookupPrefix(addr, bitWidth)
	return value, ok
}

// LookupPrefix is like Lookup, but also returns the matched prefix.
func (m *Trie[V]) LookupPrefix(addr uint32, bitWidth uint8) (Prefix, V, bool) {
	bitWidth = min(bitWidth, MaxBits)

	var (
		best     V
		bestBits uint8
		found    bool
	)

	idx := rootIdx
	for depth := 0; ; depth++ {
		n := &m.nodes[idx]
		if n.hasValue {
			best, bestBits, found = n.value, uint8(depth), true
		}
		if depth == int(bitWidth) {
			break
		}

		idx = n.children[bitAt(addr, depth)]
		if idx == nilIdx {
			break
		}
	}

	if !found {
		return Prefix{}, best, false
	}

	return Prefix{Addr: addr, Bits: bestBits}.Masked(), best, true
}

// Get returns the value stored for exactly this prefix.
func (m *Trie[V]) Get(addr uint32, prefixLen uint8) (V, bool) {
	var zero V
	if prefixLen > MaxBits {
		return zero, false
	}

	idx, ok := m.find(addr, prefixLen)
	if !ok || !m.nodes[idx].hasValue {
		return zero, false
	}

	return m.nodes[idx].value, true
}

// Remove deletes the value stored for exactly this prefix and returns it.
//
// Nodes left without a value and without children are pruned and their
// slots are reused by later insertions.
func (m *Trie[V]) Remove(addr uint32, prefixLen uint8) (V, bool) {
	var zero V
	if prefixLen > MaxBits {
		return zero, false
	}

	// path[d] is the node at depth d.
	path := [MaxBits + 1]uint32{}
	idx := rootIdx
	for depth := 0; depth < int(prefixLen); depth++ {
		path[depth] = idx
		idx = m.nodes[idx].children[bitAt(addr, depth)]
		if idx == nilIdx {
			return zero, false
		}
	}
	path[prefixLen] = idx

	n := &m.nodes[idx]
	if !n.hasValue {
		return zero, false
	}

	value := n.value
	n.value = zero
	n.hasValue = false
	m.entries--

	for depth := int(prefixLen); depth > 0; depth-- {
		cur := path[depth]
		if m.nodes[cur].hasValue || !m.nodes[cur].isLeaf() {
			break
		}

		m.nodes[path[depth-1]].children[bitAt(addr, depth-1)] = nilIdx
		m.release(cur)
	}

	return value, true
}

// Matches returns all stored prefixes covering the address.
//
// The returned slice is sorted from the longest to the shortest prefix.
func (m *Trie[V]) Matches(addr uint32) []Prefix {
	matches := []Prefix{}

	idx := rootIdx
	for depth := 0; ; depth++ {
		if m.nodes[idx].hasValue {
			matches = append(matches, Prefix{Addr: addr, Bits: uint8(depth)}.Masked())
		}
		if depth == MaxBits {
			break
		}

		idx = m.nodes[idx].children[bitAt(addr, depth)]
		if idx == nilIdx {
			break
		}
	}

	slices.Reverse(matches)
	return matches
}

// All returns an iterator over all stored prefixes and their values.
//
// Prefixes are yielded in address order, a prefix always preceding its
// subnets.
func (m *Trie[V]) All() iter.Seq2[Prefix, V] {
	return func(yield func(Prefix, V) bool) {
		m.walk(rootIdx, Prefix{}, yield)
	}
}

func (m *Trie[V]) walk(idx uint32, prefix Prefix, yield func(Prefix, V) bool) bool {
	n := &m.nodes[idx]
	if n.hasValue && !yield(prefix, n.value) {
		return false
	}

	for bit, child := range n.children {
		if child == nilIdx {
			continue
		}

		next := Prefix{
			Addr: prefix.Addr | uint32(bit)<<(MaxBits-1-prefix.Bits),
			Bits: prefix.Bits + 1,
		}
		if !m.walk(child, next, yield) {
			return false
		}
	}

	return true
}

// find returns the index of the node addressed by the prefix, if it exists.
func (m *Trie[V]) find(addr uint32, prefixLen uint8) (uint32, bool) {
	idx := rootIdx
	for depth := 0; depth < int(prefixLen); depth++ {
		idx = m.nodes[idx].children[bitAt(addr, depth)]
		if idx == nilIdx {
			return nilIdx, false
		}
	}

	return idx, true
}

func (m *Trie[V]) alloc() uint32 {
	if n := len(m.free); n > 0 {
		idx := m.free[n-1]
		m.free = m.free[:n-1]
		return idx
	}

	m.nodes = append(m.nodes, node[V]{})
	return uint32(len(m.nodes) - 1)
}

func (m *Trie[V]) release(idx uint32) {
	m.nodes[idx] = node[V]{}
	m.free = append(m.free, idx)
}
