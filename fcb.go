package fiber

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
)

// fiberState is the FCB state machine: READY -> RUNNING -> {READY,
// WAITING, TERMINATED}, WAITING -> READY -> RUNNING. TERMINATED is
// absorbing.
type fiberState int32

const (
	stateReady fiberState = iota
	stateRunning
	stateWaiting
	stateTerminated
)

func (s fiberState) String() string {
	switch s {
	case stateReady:
		return "READY"
	case stateRunning:
		return "RUNNING"
	case stateWaiting:
		return "WAITING"
	case stateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// flag bits, matching the original implementation's flags_ bitset.
// forceUnwind/unwindRequested are carried for API fidelity with the
// stack-unwind machinery spec.md scopes out of this port: Go's
// panic/recover already unwinds the goroutine stack, so nothing here
// ever sets them, but they exist so a caller porting unwind-sensitive
// code has somewhere to look.
const (
	flagPreserveFPU uint32 = 1 << iota
	flagForceUnwind
	flagUnwindRequested
	flagInterruptionBlocked
	flagInterruptionRequested
)

type fiberKind int

const (
	kindFiber fiberKind = iota
	kindMain
)

type ctrlKind int

const (
	ctrlYield ctrlKind = iota
	ctrlWait
	ctrlTerminated
)

type ctrlMsg struct {
	kind ctrlKind
}

// fcb is the fiber control block: the scheduler-private state backing
// one Fiber handle. Its exported-facing behavior is surfaced through
// Fiber; fcb itself is never handed to callers.
type fcb struct {
	id   int64
	name string
	kind fiberKind

	scheduler *Scheduler
	self      *Fiber

	state fiberState32
	flags atomic.Uint32

	priority     atomic.Int32 // live value, settable at any time
	heapPriority int32        // snapshot taken when pushed to the ready queue
	seq          int64        // set by readyQueue.push; breaks priority ties FIFO

	stack    StackRegion
	allocDea func(StackRegion)

	fn func(*Fiber)

	started atomic.Bool
	// resumeCh/controlCh implement the goroutine-and-channel context
	// switch substitute described in SPEC_FULL.md: resume() sends on
	// resumeCh and blocks on controlCh; the fiber's own goroutine does
	// the reverse in doSuspend.
	resumeCh  chan struct{}
	controlCh chan ctrlMsg
	done      chan struct{} // closed once state reaches TERMINATED

	exceptionMu sync.Mutex
	exception   any
	hasException bool

	joinMu  sync.Mutex
	joiners *list.List // of *fcb

	joinCallMu sync.Mutex
	joined     atomic.Bool
	detached   atomic.Bool

	owner atomic.Pointer[Scheduler] // first scheduler to resume this fcb
}

// fiberState32 is a small wrapper giving fiberState atomic load/CAS
// without repeating int32 casts at every call site.
type fiberState32 struct {
	v atomic.Int32
}

func (s *fiberState32) Load() fiberState { return fiberState(s.v.Load()) }
func (s *fiberState32) Store(v fiberState) { s.v.Store(int32(v)) }
func (s *fiberState32) CAS(old, new fiberState) bool {
	return s.v.CompareAndSwap(int32(old), int32(new))
}

func newFCB(id int64, name string, kind fiberKind, sched *Scheduler, attrs Attributes, fn func(*Fiber)) *fcb {
	f := &fcb{
		id:        id,
		name:      name,
		kind:      kind,
		scheduler: sched,
		fn:        fn,
		resumeCh:  make(chan struct{}),
		controlCh: make(chan ctrlMsg),
		done:      make(chan struct{}),
		joiners:   list.New(),
	}
	f.priority.Store(int32(attrs.Priority))
	if attrs.PreserveFPU {
		f.setFlag(flagPreserveFPU)
	}
	f.state.Store(stateReady)
	return f
}

func (f *fcb) setFlag(bit uint32) {
	for {
		old := f.flags.Load()
		if old&bit != 0 {
			return
		}
		if f.flags.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (f *fcb) clearFlag(bit uint32) {
	for {
		old := f.flags.Load()
		if old&bit == 0 {
			return
		}
		if f.flags.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

func (f *fcb) hasFlag(bit uint32) bool {
	return f.flags.Load()&bit != 0
}

// resume transitions f from READY to RUNNING and drives its goroutine
// forward until the next yield, wait, or termination, returning only
// then - the Go substitute for jump_fcontext's "returns when another
// switch targets the origin context" contract. Must only be called by
// the scheduler's driving goroutine.
func (f *fcb) resume() error {
	if !f.state.CAS(stateReady, stateRunning) {
		return &InvalidOperationError{Op: "resume", Message: fmt.Sprintf("fcb %d not READY (state=%s)", f.id, f.state.Load())}
	}
	if owner := f.owner.Load(); owner == nil {
		f.owner.Store(f.scheduler)
	}
	if f.started.CompareAndSwap(false, true) {
		go f.bootstrap()
	} else {
		f.resumeCh <- struct{}{}
	}
	msg := <-f.controlCh
	_ = msg
	return nil
}

// bootstrap is the trampoline run on a fcb's dedicated goroutine: it
// invokes the fiber function, recovers any panic as a captured
// exception, marks the FCB TERMINATED, releases joiners, and signals
// the scheduler. It never suspends again after this send.
func (f *fcb) bootstrap() {
	defer func() {
		if r := recover(); r != nil {
			f.captureException(r)
		}
		f.state.Store(stateTerminated)
		if f.allocDea != nil {
			f.allocDea(f.stack)
		}
		close(f.done)
		f.releaseJoiners()
		f.controlCh <- ctrlMsg{kind: ctrlTerminated}
	}()
	f.fn(f.self)
}

// doSuspend is the fiber-side half of the context switch: it hands
// control back to whichever goroutine called resume() and parks until
// resumed again. Callers (yield, wait) must set the target state
// before calling this.
func (f *fcb) doSuspend(kind ctrlKind) {
	f.controlCh <- ctrlMsg{kind: kind}
	<-f.resumeCh
}

func (f *fcb) captureException(v any) {
	f.exceptionMu.Lock()
	f.exception = v
	f.hasException = true
	f.exceptionMu.Unlock()
}

func (f *fcb) takeException() (any, bool) {
	f.exceptionMu.Lock()
	defer f.exceptionMu.Unlock()
	return f.exception, f.hasException
}

// wake transitions f to READY. Per the original implementation, a
// no-op on an already-TERMINATED fcb; READY and RUNNING are tolerated
// no-op targets (the fiber is already scheduled or about to
// reschedule itself). Only a genuine WAITING -> READY transition
// enqueues f, and only when f is a real fiber (the main context is
// never ready-queued; its "wake" is observed by a poll loop). Safe to
// call from any goroutine/thread.
func (f *fcb) wake() {
	for {
		prev := f.state.Load()
		if prev == stateTerminated {
			return
		}
		if prev == stateReady || prev == stateRunning {
			return
		}
		if f.state.CAS(prev, stateReady) {
			if prev == stateWaiting {
				f.scheduler.logger.woken(f)
				if f.kind == kindFiber {
					f.scheduler.ready.push(f)
					f.scheduler.notifyWork()
				}
			}
			return
		}
	}
}

func (f *fcb) setWaiting() {
	f.state.Store(stateWaiting)
}

// join registers joiner to be woken when f terminates, returning the
// list element it was pushed as so a caller that is interrupted while
// waiting can splice itself back out via removeJoiner before the
// interruption exception propagates. Returns ok=false (and no element)
// if f has already terminated, in which case the caller must not
// suspend.
func (f *fcb) join(joiner *fcb) (elem *list.Element, ok bool) {
	f.joinMu.Lock()
	defer f.joinMu.Unlock()
	if f.state.Load() == stateTerminated {
		return nil, false
	}
	return f.joiners.PushBack(joiner), true
}

// removeJoiner splices elem out of the joiner list. Used when a Join
// is abandoned due to interruption, so a later releaseJoiners does not
// spuriously wake a joiner that already gave up - the joiner-list
// analog of Cond's remove-on-interrupt in cond.go's Wait.
func (f *fcb) removeJoiner(elem *list.Element) {
	f.joinMu.Lock()
	f.joiners.Remove(elem)
	f.joinMu.Unlock()
}

func (f *fcb) releaseJoiners() {
	f.joinMu.Lock()
	joiners := f.joiners
	f.joiners = list.New()
	f.joinMu.Unlock()
	for e := joiners.Front(); e != nil; e = e.Next() {
		e.Value.(*fcb).wake()
	}
}

func (f *fcb) interruptionRequested() bool { return f.hasFlag(flagInterruptionRequested) }
func (f *fcb) interruptionBlocked() bool   { return f.hasFlag(flagInterruptionBlocked) }

func (f *fcb) requestInterruption() {
	f.setFlag(flagInterruptionRequested)
	if f.state.Load() == stateWaiting {
		f.wake()
	}
}

// interruptionPoint clears a pending, unblocked interruption request
// and reports whether one was observed.
func (f *fcb) interruptionPoint() bool {
	if f.interruptionBlocked() {
		return false
	}
	if !f.interruptionRequested() {
		return false
	}
	f.clearFlag(flagInterruptionRequested)
	return true
}
