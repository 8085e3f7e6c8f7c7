package pools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytePoolGet(t *testing.T) {
	bp := NewBytePool()

	tests := []struct {
		size    int
		wantCap int
	}{
		{1, 512},
		{512, 512},
		{513, 2048},
		{8192, 8192},
		{20000, 32768},
		{40000, 40000},
	}

	for _, tt := range tests {
		buf := bp.Get(tt.size)
		assert.Len(t, buf, tt.size)
		assert.Equal(t, tt.wantCap, cap(buf), "size %d", tt.size)
		bp.Put(buf)
	}

	stats := bp.Stats()
	assert.Equal(t, uint64(6), stats.Gets)
	assert.Equal(t, uint64(5), stats.Puts)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestBytePoolGrow(t *testing.T) {
	bp := NewBytePoolWithSizes([]int{4, 8})

	buf := bp.Get(4)
	copy(buf, "abcd")

	grown := bp.Grow(buf)
	assert.Len(t, grown, 8)
	assert.Equal(t, "abcd", string(grown[:4]))

	grown = bp.Grow(grown)
	assert.Len(t, grown, 16)
	assert.Equal(t, "abcd", string(grown[:4]))
}

type counter struct {
	n      int
	resets int
}

func (c *counter) Reset() {
	c.n = 0
	c.resets++
}

func TestObjectPool(t *testing.T) {
	op := NewObjectPool[counter]()

	c := op.Get()
	c.n = 5
	op.Put(c)
	op.Put(nil)

	assert.Equal(t, 0, c.n)
	assert.Equal(t, 1, c.resets)

	gets, puts := op.Stats()
	assert.Equal(t, uint64(1), gets)
	assert.Equal(t, uint64(1), puts)
}
