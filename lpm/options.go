package lpm

import (
	"github.com/c2h5oh/datasize"
)

// Option is a function that configures the trie.
type Option func(*options)

type options struct {
	Capacity    int
	MemoryLimit datasize.ByteSize
}

func newOptions() *options {
	return &options{}
}

// WithCapacity preallocates space for the given number of nodes.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		o.Capacity = capacity
	}
}

// WithMemoryLimit bounds the memory occupied by trie nodes.
//
// Insertions that would need more nodes than fit into the limit fail with
// ErrAllocationFailure. Zero means unlimited.
func WithMemoryLimit(limit datasize.ByteSize) Option {
	return func(o *options) {
		o.MemoryLimit = limit
	}
}
