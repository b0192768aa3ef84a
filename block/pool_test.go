package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConservation(t *testing.T) {
	p := NewPool(64, 4, false)

	var blocks []*Block
	for i := 0; i < 10; i++ {
		blocks = append(blocks, p.Get())
	}
	for _, b := range blocks {
		p.Put(b)
	}

	stats := p.Stats()
	assert.EqualValues(t, 10, stats.Allocated)
	assert.EqualValues(t, 10, stats.Released)
	assert.EqualValues(t, 0, stats.Held)
}

func TestBlockInvariants(t *testing.T) {
	b := newBlock(16, false)
	b.SetSize(10)
	b.SetOffset1(5)
	require.Equal(t, 10, b.Size())
	require.Equal(t, 5, b.Offset1())

	assert.Panics(t, func() { b.SetSize(17) })
	assert.Panics(t, func() { b.SetOffset1(11) })

	b.Reset()
	assert.Equal(t, 0, b.Size())
	assert.Equal(t, 0, b.Offset1())
}

func TestSecureBlockRefillsOnRelease(t *testing.T) {
	p := NewPool(8, 2, true)
	b := p.Get()
	b.SetSize(8)
	copy(b.Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	p.Put(b)

	b2 := p.Get()
	for _, v := range b2.Bytes() {
		assert.EqualValues(t, 0xAA, v)
	}
}
