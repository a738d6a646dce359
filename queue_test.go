package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadyQueue_PriorityThenFIFO(t *testing.T) {
	q := newReadyQueue()
	sched := &Scheduler{}

	a := newFCB(1, "a", kindFiber, sched, Attributes{Priority: 5}, nil)
	b := newFCB(2, "b", kindFiber, sched, Attributes{Priority: 10}, nil)
	c := newFCB(3, "c", kindFiber, sched, Attributes{Priority: 10}, nil)
	d := newFCB(4, "d", kindFiber, sched, Attributes{Priority: 1}, nil)

	q.push(a)
	q.push(b)
	q.push(c)
	q.push(d)

	var order []int64
	for {
		f := q.pop()
		if f == nil {
			break
		}
		order = append(order, f.id)
	}

	require.Equal(t, []int64{2, 3, 1, 4}, order)
}

func TestReadyQueue_PriorityChangeDoesNotResort(t *testing.T) {
	q := newReadyQueue()
	sched := &Scheduler{}

	low := newFCB(1, "low", kindFiber, sched, Attributes{Priority: 0}, nil)
	q.push(low)

	// Changing priority after enqueue must not affect the already
	// snapshotted heapPriority - it only takes effect on the next push.
	low.priority.Store(99)

	high := newFCB(2, "high", kindFiber, sched, Attributes{Priority: 50}, nil)
	q.push(high)

	require.Equal(t, int64(2), q.pop().id)
	require.Equal(t, int64(1), q.pop().id)
}

func TestReadyQueue_Empty(t *testing.T) {
	q := newReadyQueue()
	require.Nil(t, q.pop())
	require.Equal(t, 0, q.len())
}
