// Package block implements the pooled byte buffer spec §3 calls a "data
// block": capacity fixed at allocation, size and a parse cursor
// (offset1) that reset() clears back to zero.
package block

// Block is an owned byte buffer. Invariant (spec §3): Size <= Capacity
// and Offset1 <= Size, enforced by every mutating method here.
type Block struct {
	data     []byte
	size     int
	offset1  int
	secure   bool
	fillByte byte
}

func newBlock(capacity int, secure bool) *Block {
	b := &Block{data: make([]byte, capacity), secure: secure, fillByte: 0xAA}
	if secure {
		fill(b.data, b.fillByte)
	}
	return b
}

func fill(buf []byte, v byte) {
	for i := range buf {
		buf[i] = v
	}
}

// Capacity returns the fixed allocation size.
func (b *Block) Capacity() int { return len(b.data) }

// Size returns the number of meaningful bytes currently held.
func (b *Block) Size() int { return b.size }

// Offset1 returns the parse cursor into the payload.
func (b *Block) Offset1() int { return b.offset1 }

// Bytes returns the full backing buffer (len == Capacity). Callers that
// only want the meaningful prefix should use Data().
func (b *Block) Bytes() []byte { return b.data }

// Data returns the meaningful prefix, data[:Size()].
func (b *Block) Data() []byte { return b.data[:b.size] }

// SetSize sets the number of meaningful bytes; panics if it would
// violate the size<=capacity invariant, mirroring the source's
// programmer-error-is-fatal treatment of invariant violations.
func (b *Block) SetSize(n int) {
	if n < 0 || n > len(b.data) {
		panic("block: size exceeds capacity")
	}
	b.size = n
	if b.offset1 > b.size {
		b.offset1 = b.size
	}
}

// SetOffset1 sets the parse cursor; panics if it would exceed Size.
func (b *Block) SetOffset1(n int) {
	if n < 0 || n > b.size {
		panic("block: offset1 exceeds size")
	}
	b.offset1 = n
}

// Reset zeroes Size and Offset1 without reallocating or re-filling the
// backing buffer (secure blocks re-fill only on Release, not Reset).
func (b *Block) Reset() {
	b.size = 0
	b.offset1 = 0
}

// SecureDiscard fills the entire capacity with the secure byte,
// independent of Size; used by the async executor's SecureDiscard
// operation (spec §4.8) and by Release below.
func (b *Block) SecureDiscard() {
	fill(b.data, b.fillByte)
}

func (b *Block) isSecure() bool { return b.secure }
