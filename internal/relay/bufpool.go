package relay

import "sync"

// BytePool is a pool of reusable []byte buffers. Every framed packet is
// composed into a pooled buffer and handed back by the write path, which
// keeps GC pressure flat under broadcast load.
type BytePool struct {
	pool sync.Pool
}

// NewBytePool creates a pool whose fresh slices start at defaultCap.
func NewBytePool(defaultCap int) *BytePool {
	p := &BytePool{}
	p.pool.New = func() any {
		return make([]byte, 0, defaultCap)
	}
	return p
}

// Get returns a zeroed slice of the given length, reusing a pooled
// allocation when it is large enough.
func (p *BytePool) Get(size int) []byte {
	b := p.pool.Get().([]byte)
	if cap(b) < size {
		p.pool.Put(b)
		return make([]byte, size)
	}
	b = b[:size]
	clear(b)
	return b
}

// Put hands a slice back to the pool for reuse.
func (p *BytePool) Put(b []byte) {
	if b == nil {
		return
	}
	p.pool.Put(b[:0])
}
