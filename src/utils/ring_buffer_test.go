package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferBeforeWrap(t *testing.T) {
	rb := NewRingBuffer[int](5)
	assert.Empty(t, rb.GetAll())

	rb.Append(1)
	rb.Append(2)
	rb.Append(3)

	assert.Equal(t, []int{1, 2, 3}, rb.GetAll())
	assert.Equal(t, []int{2, 3}, rb.GetLatest(2))
	assert.Equal(t, []int{1, 2, 3}, rb.GetLatest(10))
	assert.Equal(t, 5, rb.Capacity())
}

func TestRingBufferDropsOldest(t *testing.T) {
	rb := NewRingBuffer[string](20)
	for i := 1; i <= 21; i++ {
		rb.Append(fmt.Sprintf("entry-%d", i))
	}

	all := rb.GetAll()
	assert.Len(t, all, 20)
	assert.Equal(t, rb.Capacity(), len(all))
	assert.Equal(t, "entry-2", all[0])
	assert.Equal(t, "entry-21", all[19])
	assert.NotContains(t, all, "entry-1")
}

func TestRingBufferDefaultCapacity(t *testing.T) {
	rb := NewRingBuffer[float64](0)
	assert.Equal(t, 20, rb.Capacity())

	rb.Append(1.5)
	assert.Equal(t, []float64{1.5}, rb.GetLatest(1))
}
