package ecs_test

import (
	"sync"
	"testing"

	"github.com/plus3/tickworks/ecs"
	"github.com/stretchr/testify/assert"
)

func TestEventQueue(t *testing.T) {
	q := ecs.NewEventQueue[int](4)

	q.Push(1)
	q.Push(2)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []int{1, 2}, q.Drain())
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())

	q.Push(3)
	assert.Equal(t, []int{3}, q.Drain())
}

func TestEventQueueConcurrentPush(t *testing.T) {
	var q ecs.EventQueue[int]

	const producers, perProducer = 8, 500
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, q.Drain(), producers*perProducer)
}
