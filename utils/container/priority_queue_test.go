package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SaferDrive-AI/San-Jose-GTC-Demo/utils/container"
)

func TestPriorityQueueOrder(t *testing.T) {
	q := container.NewPriorityQueue[string]()
	assert.Equal(t, 0, q.Len())

	q.Push("c", 3)
	q.Push("a", 1)
	q.Push("d", 4)
	q.Push("b", 2)
	assert.Equal(t, 4, q.Len())

	v, p := q.Peek()
	assert.Equal(t, "a", v)
	assert.Equal(t, 1.0, p)
	assert.Equal(t, 4, q.Len())

	order := make([]string, 0, 4)
	for q.Len() > 0 {
		v, _ := q.Pop()
		order = append(order, v)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestPriorityQueueInterleaved(t *testing.T) {
	q := container.NewPriorityQueue[int]()
	q.Push(10, 10)
	q.Push(5, 5)
	v, _ := q.Pop()
	assert.Equal(t, 5, v)
	q.Push(1, 1)
	v, _ = q.Pop()
	assert.Equal(t, 1, v)
	v, _ = q.Pop()
	assert.Equal(t, 10, v)
	assert.Equal(t, 0, q.Len())
}
