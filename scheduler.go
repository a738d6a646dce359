package fiber

import (
	"container/heap"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler drives one OS thread's worth of fibers. A fiber started on
// a Scheduler is never migrated to another: its fcb is only ever queued
// on the Scheduler that spawned it. RunForever pins its own goroutine
// with LockOSThread; Run does not, and each fiber body runs on its own
// unpinned goroutine. fcb.owner records the first Scheduler to resume a
// fiber but is not consulted afterwards.
type Scheduler struct {
	ready *readyQueue

	nextID atomic.Int64

	allocator StackAllocator
	logger    schedulerLogger

	main *fcb

	stats SchedulerStats

	work chan struct{} // buffered 1; signals the Run loop that there may be work

	sleepMu sync.Mutex
	sleep   sleepHeap
	timerOn atomic.Bool

	closed atomic.Bool
}

// SchedulerStats holds coarse counters useful for diagnostics and
// tests; none of it gates scheduling behavior.
type SchedulerStats struct {
	Spawned         atomic.Int64
	ContextSwitches atomic.Int64
	Completed       atomic.Int64
}

// NewScheduler constructs a Scheduler. Options configure the stack
// allocator and logger; unset options take documented defaults.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	cfg := defaultSchedulerConfig()
	for _, o := range opts {
		o(&cfg)
	}
	s := &Scheduler{
		ready:     newReadyQueue(),
		allocator: cfg.allocator,
		logger:    cfg.logger,
		work:      make(chan struct{}, 1),
	}
	s.main = newFCB(0, "main", kindMain, s, Attributes{}, nil)
	s.main.state.Store(stateRunning)
	s.main.self = &Fiber{fcb: s.main}
	return s
}

func (s *Scheduler) notifyWork() {
	select {
	case s.work <- struct{}{}:
	default:
	}
}

// MainFiber returns the handle representing this Scheduler's owning OS
// thread/goroutine itself, for use with Mutex/Cond from code that is
// not running inside a spawned fiber (spec.md's "main context").
func (s *Scheduler) MainFiber() *Fiber { return s.main.self }

// Spawn creates and ready-queues a new fiber running fn, returning its
// handle. fn receives the Fiber handle representing itself, used for
// Yield/Interrupt/self-identification from inside the function body -
// the explicit-handle substitute for thread-local "current fiber"
// lookup.
func (s *Scheduler) Spawn(fn func(*Fiber)) (*Fiber, error) {
	return s.SpawnWithAttributes(DefaultAttributes(), fn)
}

// SpawnWithAttributes is Spawn with explicit Attributes (stack size,
// priority, FPU-preservation flag).
func (s *Scheduler) SpawnWithAttributes(attrs Attributes, fn func(*Fiber)) (*Fiber, error) {
	attrs = attrs.normalized()
	region, err := s.allocator.Allocate(attrs.StackSize)
	if err != nil {
		return nil, &ResourceExhaustedError{Requested: attrs.StackSize, Err: err}
	}
	id := s.nextID.Add(1)
	f := newFCB(id, "", kindFiber, s, attrs, fn)
	f.stack = region
	f.allocDea = s.allocator.Deallocate
	fib := &Fiber{fcb: f}
	f.self = fib
	runtime.SetFinalizer(fib, finalizeFiber)
	s.stats.Spawned.Add(1)
	s.ready.push(f)
	s.notifyWork()
	s.logger.spawned(f)
	return fib, nil
}

// Run drives the scheduler until the ready queue is empty, resuming
// one ready fiber at a time on the calling goroutine. Callers that
// want a persistent worker should call RunForever in a goroutine
// pinned with runtime.LockOSThread, mirroring the "owning OS thread"
// identity spec.md assigns to a fiber's first resumer.
func (s *Scheduler) Run() {
	for {
		f := s.ready.pop()
		if f == nil {
			return
		}
		s.runOne(f)
	}
}

// RunForever pins the calling goroutine to its OS thread and services
// the ready queue until Close is called, parking (without spinning)
// when the queue is empty. This is the long-lived counterpart to Run,
// intended to be the body of a dedicated scheduler goroutine.
func (s *Scheduler) RunForever() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for !s.closed.Load() {
		f := s.ready.pop()
		if f == nil {
			s.waitForWork()
			continue
		}
		s.runOne(f)
	}
}

func (s *Scheduler) waitForWork() {
	select {
	case <-s.work:
	case <-time.After(10 * time.Millisecond):
	}
}

// Close stops a running RunForever loop after its current fiber (if
// any) next suspends.
func (s *Scheduler) Close() {
	s.closed.Store(true)
	s.notifyWork()
}

func (s *Scheduler) runOne(f *fcb) {
	s.logger.resuming(f)
	if err := f.resume(); err != nil {
		s.logger.resumeError(f, err)
		return
	}
	s.stats.ContextSwitches.Add(1)
	if f.state.Load() == stateTerminated {
		s.stats.Completed.Add(1)
		s.logger.terminated(f)
	}
}

// yield re-enqueues f as READY and suspends it, returning control to
// whichever goroutine resumed it.
func (s *Scheduler) yield(f *fcb) {
	f.state.Store(stateReady)
	s.ready.push(f)
	s.logger.parked(f, "yield")
	s.park(f, ctrlYield)
}

// wait suspends f in the WAITING state without re-enqueueing it. The
// caller (a sync primitive) is responsible for arranging a future
// wake().
func (s *Scheduler) wait(f *fcb) {
	f.setWaiting()
	s.logger.parked(f, "wait")
	s.park(f, ctrlWait)
}

// park is the dispatch point between the two context-switch
// substitutes: a real fiber suspends over its channel pair, while the
// main context polls the ready queue forward until its own fcb is
// observed READY again (the Go analog of the original's "loop calling
// run() until is_ready()").
func (s *Scheduler) park(f *fcb, kind ctrlKind) {
	if f.kind == kindMain {
		for f.state.Load() != stateReady {
			inner := s.ready.pop()
			if inner == nil {
				s.waitForWork()
				continue
			}
			s.runOne(inner)
		}
		f.state.Store(stateRunning)
		return
	}
	f.doSuspend(kind)
}

// sleepEntry is one pending timed wake in the scheduler's sleep heap.
type sleepEntry struct {
	deadline time.Time
	f        *fcb
	index    int
}

type sleepHeap []*sleepEntry

func (h sleepHeap) Len() int            { return len(h) }
func (h sleepHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h sleepHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *sleepHeap) Push(x any) {
	e := x.(*sleepEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *sleepHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// sleepUntil suspends f (WAITING) until t, at which point it is woken
// the same way any other cross-thread wake would deliver it - via a
// dedicated timer goroutine started lazily on first use, mirroring the
// teacher's TimerHeap-driven event loop generalized to fiber wakeups.
func (s *Scheduler) sleepUntil(f *fcb, t time.Time) {
	s.sleepMu.Lock()
	heap.Push(&s.sleep, &sleepEntry{deadline: t, f: f})
	s.sleepMu.Unlock()
	s.ensureTimerRunning()
	for {
		s.wait(f)
		if !time.Now().Before(t) || f.interruptionRequested() {
			return
		}
	}
}

func (s *Scheduler) ensureTimerRunning() {
	if !s.timerOn.CompareAndSwap(false, true) {
		return
	}
	go s.timerLoop()
}

func (s *Scheduler) timerLoop() {
	for {
		s.sleepMu.Lock()
		if len(s.sleep) == 0 {
			s.timerOn.Store(false)
			s.sleepMu.Unlock()
			return
		}
		next := s.sleep[0]
		wait := time.Until(next.deadline)
		s.sleepMu.Unlock()
		if wait > 0 {
			time.Sleep(wait)
		}
		s.sleepMu.Lock()
		var due []*sleepEntry
		for len(s.sleep) > 0 && !s.sleep[0].deadline.After(time.Now()) {
			due = append(due, heap.Pop(&s.sleep).(*sleepEntry))
		}
		s.sleepMu.Unlock()
		for _, e := range due {
			e.f.wake()
		}
	}
}
