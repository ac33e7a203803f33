package main

import (
	"errors"
	"sync"

	"github.com/yanet-platform/prefixtrie/filter"
	"github.com/yanet-platform/prefixtrie/lpm"
)

// Return codes of insert.
const (
	rcOK                = 0
	rcInvalidPrefix     = 1
	rcAllocationFailure = 2
	rcInvalidHandle     = 3
)

// handles maps opaque integer handles given to C callers to filters.
//
// Go pointers must not be retained by C code, so callers only ever see
// the integer key. Zero is never a valid handle.
type handles struct {
	mu      sync.RWMutex
	next    uintptr
	entries map[uintptr]*filter.Filter
}

var registry = newHandles()

func newHandles() *handles {
	return &handles{
		entries: map[uintptr]*filter.Filter{},
	}
}

func (m *handles) add(f *filter.Filter) uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	m.entries[m.next] = f
	return m.next
}

func (m *handles) get(h uintptr) (*filter.Filter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.entries[h]
	return f, ok
}

func (m *handles) remove(h uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, h)
}

func newTrie() uintptr {
	f, err := filter.NewFilter(filter.DefaultConfig())
	if err != nil {
		return 0
	}

	return registry.add(f)
}

func freeTrie(h uintptr) {
	registry.remove(h)
}

func insertRule(h uintptr, addr uint32, netmask uint8, action uint8) int {
	f, ok := registry.get(h)
	if !ok {
		return rcInvalidHandle
	}

	err := f.InsertRaw(addr, netmask, filter.Action(action))
	switch {
	case err == nil:
		return rcOK
	case errors.Is(err, lpm.ErrAllocationFailure):
		return rcAllocationFailure
	default:
		return rcInvalidPrefix
	}
}

// lookupAction returns 0 if nothing matches or the handle is unknown.
func lookupAction(h uintptr, addr uint32, netmask uint8) uint8 {
	f, ok := registry.get(h)
	if !ok {
		return uint8(filter.ActionNone)
	}

	return uint8(f.LookupRaw(addr, netmask))
}

func removeRule(h uintptr, addr uint32, netmask uint8) {
	if f, ok := registry.get(h); ok {
		f.RemoveRaw(addr, netmask)
	}
}
