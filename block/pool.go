package block

import (
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
)

// Pool hands out fixed-capacity Blocks. It is a bounded free-list, not a
// hard cap: Get() allocates outside the pool when the free-list is
// empty (spec §5, "allocations outside the pool are permitted when the
// pool is empty"), and Put() drops a block on the floor (for the GC)
// once the free-list is at capacity rather than blocking the caller.
type Pool struct {
	capacity int
	secure   bool

	mu   sync.Mutex
	free []*Block

	allocated uint64
	released  uint64
	held      int64
}

// defaultPoolSlots picks a default free-list depth from available
// system memory when the operator does not set one explicitly: one
// slot per 4MiB of RAM up to a sane ceiling, via github.com/pbnjay/
// memory (no direct teacher usage to ground this on; wired here because
// sizing a fixed-capacity buffer pool from available memory is exactly
// what that library is for).
func defaultPoolSlots(blockCapacity int) int {
	total := memory.TotalMemory()
	if total == 0 || blockCapacity == 0 {
		return 256
	}
	slots := int(total / 4 / 1024 / 1024)
	if slots < 16 {
		slots = 16
	}
	if slots > 4096 {
		slots = 4096
	}
	return slots
}

// NewPool creates a pool of blocks with the given fixed capacity. A
// slots value of 0 picks a memory-derived default.
func NewPool(capacity int, slots int, secure bool) *Pool {
	if slots <= 0 {
		slots = defaultPoolSlots(capacity)
	}
	return &Pool{
		capacity: capacity,
		secure:   secure,
		free:     make([]*Block, 0, slots),
	}
}

// Get acquires a Block from the free-list, or allocates a new one if
// the free-list is empty.
func (p *Pool) Get() *Block {
	p.mu.Lock()
	n := len(p.free)
	var b *Block
	if n > 0 {
		b = p.free[n-1]
		p.free = p.free[:n-1]
	}
	p.mu.Unlock()

	atomic.AddUint64(&p.allocated, 1)
	atomic.AddInt64(&p.held, 1)
	if b == nil {
		return newBlock(p.capacity, p.secure)
	}
	return b
}

// Put resets and returns a Block to the free-list. Secure blocks are
// re-filled with the secure byte before being made available again,
// per spec §3 ("Secure variants fill the full capacity ... on release").
func (p *Pool) Put(b *Block) {
	if b == nil {
		return
	}
	b.Reset()
	if b.isSecure() {
		b.SecureDiscard()
	}
	p.mu.Lock()
	if len(p.free) < cap(p.free) {
		p.free = append(p.free, b)
	}
	p.mu.Unlock()

	atomic.AddUint64(&p.released, 1)
	atomic.AddInt64(&p.held, -1)
}

// Stats reports pool conservation counters for spec §8's quantified
// invariant: allocated == released + held.
type Stats struct {
	Allocated uint64
	Released  uint64
	Held      int64
}

func (p *Pool) Stats() Stats {
	return Stats{
		Allocated: atomic.LoadUint64(&p.allocated),
		Released:  atomic.LoadUint64(&p.released),
		Held:      atomic.LoadInt64(&p.held),
	}
}

// Capacity is the fixed capacity every Block from this pool carries.
func (p *Pool) Capacity() int { return p.capacity }
