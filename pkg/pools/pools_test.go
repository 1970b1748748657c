package pools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsRequestedCapacity(t *testing.T) {
	p := NewBytePool()

	for _, size := range []int{1, SmallSize, SmallSize + 1, MediumSize, LargeSize, LargeSize + 1} {
		b := p.Get(size)
		assert.Zero(t, len(b))
		assert.GreaterOrEqual(t, cap(b), size)
	}
}

func TestPutThenGetReuses(t *testing.T) {
	p := NewBytePool()

	b := p.Get(MediumSize)
	b = append(b, make([]byte, MediumSize)...)
	p.Put(b)

	again := p.Get(MediumSize)
	assert.Zero(t, len(again))
	assert.GreaterOrEqual(t, cap(again), MediumSize)
}

func TestOversizedBuffersAreNotPooled(t *testing.T) {
	p := NewBytePool()
	huge := make([]byte, 0, MaxPool*2)
	p.Put(huge) // must not panic, silently dropped

	b := p.Get(10)
	assert.LessOrEqual(t, cap(b), MediumSize)
}

func TestDefaultPool(t *testing.T) {
	b := GetBytes(100)
	assert.GreaterOrEqual(t, cap(b), 100)
	PutBytes(b)
}
