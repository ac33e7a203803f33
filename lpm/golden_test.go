package lpm

import (
	"math/rand/v2"
	"runtime"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/require"
)

// goldTable is a slow reference table, a plain slice scanned linearly.
type goldTable []goldItem

type goldItem struct {
	prefix Prefix
	value  int
}

func (t *goldTable) insert(prefix Prefix, value int) {
	prefix = prefix.Masked()
	for i, item := range *t {
		if item.prefix == prefix {
			(*t)[i].value = value
			return
		}
	}
	*t = append(*t, goldItem{prefix, value})
}

func (t *goldTable) remove(prefix Prefix) bool {
	prefix = prefix.Masked()
	for i, item := range *t {
		if item.prefix == prefix {
			*t = append((*t)[:i], (*t)[i+1:]...)
			return true
		}
	}
	return false
}

func (t goldTable) lookup(addr uint32) (int, bool) {
	best := -1
	value := 0
	for _, item := range t {
		if item.prefix.Contains(addr) && int(item.prefix.Bits) > best {
			best = int(item.prefix.Bits)
			value = item.value
		}
	}
	return value, best >= 0
}

func randomPrefixes(rng *rand.Rand, n int) []Prefix {
	out := make([]Prefix, 0, n)
	for range n {
		out = append(out, Prefix{
			// Cluster addresses so that prefixes actually overlap.
			Addr: rng.Uint32() & 0xff0fff0f,
			Bits: uint8(rng.IntN(MaxBits + 1)),
		})
	}
	return out
}

func TestTrieAgainstGolden(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))

	trie := New[int]()
	gold := goldTable{}

	prefixes := randomPrefixes(rng, 2000)
	for idx, p := range prefixes {
		require.NoError(t, trie.Insert(p.Addr, p.Bits, idx))
		gold.insert(p, idx)
	}
	require.Equal(t, len(gold), trie.Len())

	check := func() {
		for range 10000 {
			a := rng.Uint32() & 0xff0fff0f
			expected, expectedOk := gold.lookup(a)
			actual, ok := trie.Lookup(a, MaxBits)
			require.Equal(t, expectedOk, ok, "lookup %s", Prefix{Addr: a, Bits: MaxBits})
			require.Equal(t, expected, actual, "lookup %s", Prefix{Addr: a, Bits: MaxBits})
		}
	}
	check()

	// Remove half and compare again.
	for _, p := range prefixes[:len(prefixes)/2] {
		_, ok := trie.Remove(p.Addr, p.Bits)
		require.Equal(t, gold.remove(p), ok, "remove %s", p)
	}
	require.Equal(t, len(gold), trie.Len())
	check()

	count := 0
	for prefix, value := range trie.All() {
		expected, ok := gold.lookup(prefix.Addr)
		require.True(t, ok)
		if prefix.Bits == MaxBits {
			require.Equal(t, expected, value)
		}
		count++
	}
	require.Equal(t, len(gold), count)
}

func FuzzTrieInsertAndLookup(f *testing.F) {
	f.Add(uint32(3232235776), uint8(24), uint32(3232235777))
	f.Add(uint32(0), uint8(0), uint32(0xffffffff))
	f.Add(uint32(0xffffffff), uint8(32), uint32(0xffffffff))
	f.Add(uint32(0x0a000000), uint8(8), uint32(0xc0a80001))
	f.Add(uint32(0x0a000000), uint8(40), uint32(0x0a000001))

	f.Fuzz(func(t *testing.T, a uint32, bits uint8, q uint32) {
		trie := New[uint8]()

		err := trie.Insert(a, bits, 1)
		if bits > MaxBits {
			require.ErrorIs(t, err, ErrInvalidPrefixLength)
			return
		}
		require.NoError(t, err)

		p := Prefix{Addr: a, Bits: bits}
		_, ok := trie.Lookup(q, MaxBits)
		equal := p.Contains(q)

		switch [2]bool{ok, equal} {
		case [2]bool{false, true}:
			t.Errorf("query addr %d should match %s", q, p)
		case [2]bool{true, false}:
			t.Errorf("unexpected match of addr %d by prefix %s", q, p)
		}

		matches := trie.Matches(q)
		require.Equal(t, ok, len(matches) > 0)

		_, ok = trie.Remove(a, bits)
		require.True(t, ok)
		require.Equal(t, 1, trie.Nodes())
	})
}

func heapInUse() uint64 {
	runtime.GC()
	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse
}

func Benchmark_trie_insert(b *testing.B) {
	prefixes := randomPrefixes(rand.New(rand.NewPCG(1, 2)), 1_000_000)

	inuse0 := heapInUse()
	trie := New[uint8](WithCapacity(1024))
	b.ResetTimer()
	for range b.N {
		for _, p := range prefixes {
			_ = trie.Insert(p.Addr, p.Bits, 1)
		}
	}
	b.StopTimer()
	inuse1 := heapInUse()

	b.Logf("Total number of prefixes %d: uniq %d, nodes %d", len(prefixes), trie.Len(), trie.Nodes())
	b.Logf("Memory usage by trie %s", datasize.ByteSize(inuse1-inuse0))
}

func Benchmark_trie_lookup(b *testing.B) {
	rng := rand.New(rand.NewPCG(3, 4))
	prefixes := randomPrefixes(rng, 1_000_000)

	trie := New[uint8]()
	for _, p := range prefixes {
		_ = trie.Insert(p.Addr, p.Bits, 1)
	}

	addrs := make([]uint32, 1024)
	for idx := range addrs {
		addrs[idx] = rng.Uint32()
	}

	var found int
	b.ResetTimer()
	for idx := range b.N {
		if _, ok := trie.Lookup(addrs[idx%len(addrs)], MaxBits); ok {
			found++
		}
	}
	b.StopTimer()

	b.Logf("Total number of prefixes %d: uniq: %d, found: %d", len(prefixes), trie.Len(), found)
}
