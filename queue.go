package fiber

import (
	"container/heap"
	"sync"
)

// readyQueue is the scheduler's priority-ordered, FIFO-within-priority
// ready queue. Higher Attributes.Priority runs first; fibers of equal
// priority run in enqueue order. Safe for concurrent Push/Pop since
// wake() may enqueue from a different OS thread than the one driving
// the scheduler's Run loop.
type readyQueue struct {
	mu   sync.Mutex
	heap fcbHeap
	seq  int64
}

func newReadyQueue() *readyQueue {
	q := &readyQueue{}
	heap.Init(&q.heap)
	return q
}

func (q *readyQueue) push(f *fcb) {
	q.mu.Lock()
	q.seq++
	f.seq = q.seq
	// Snapshot priority now: a later SetPriority on an enqueued fcb
	// must not re-sort it, matching the original implementation's
	// plain atomic priority field with no re-heapify hook.
	f.heapPriority = f.priority.Load()
	heap.Push(&q.heap, f)
	q.mu.Unlock()
}

func (q *readyQueue) pop() *fcb {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.heap.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.heap).(*fcb)
}

func (q *readyQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// fcbHeap implements container/heap.Interface over *fcb, ordered by
// descending priority and ascending enqueue sequence (FIFO tie-break).
// Priority is read once at push time: a priority change on an
// already-enqueued fcb does not re-sort it, matching the original
// implementation's plain atomic priority field with no re-heapify hook.
type fcbHeap []*fcb

func (h fcbHeap) Len() int { return len(h) }

func (h fcbHeap) Less(i, j int) bool {
	pi, pj := h[i].heapPriority, h[j].heapPriority
	if pi != pj {
		return pi > pj
	}
	return h[i].seq < h[j].seq
}

func (h fcbHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *fcbHeap) Push(x any) {
	*h = append(*h, x.(*fcb))
}

func (h *fcbHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
