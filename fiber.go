package fiber

import "time"

// Fiber is a handle to one spawned fiber. It is the explicit
// "current fiber" substitute this port uses in place of thread-local
// storage: a spawned function receives its own Fiber as an argument
// and uses it to Yield, Sleep, Interrupt-check, and Join other
// fibers, rather than looking itself up from ambient goroutine state.
//
// The zero value is not usable; obtain a Fiber from Scheduler.Spawn,
// Scheduler.SpawnWithAttributes, or Scheduler.MainFiber.
type Fiber struct {
	fcb *fcb
}

// ID returns a value unique among fibers spawned by the same
// Scheduler, stable for the handle's lifetime. The Scheduler's main
// context (see Scheduler.MainFiber) always has ID 0.
func (f *Fiber) ID() int64 { return f.fcb.id }

// State reports the fiber's current FCB state as a string, primarily
// for diagnostics and tests; callers should not branch on it as a
// substitute for the synchronization primitives.
func (f *Fiber) State() string { return f.fcb.state.Load().String() }

// Priority returns the fiber's current scheduling priority.
func (f *Fiber) Priority() int { return int(f.fcb.priority.Load()) }

// SetPriority changes the fiber's scheduling priority. Per the
// original implementation this does not re-sort the ready queue if
// the fiber is already enqueued; it takes effect the next time the
// fiber is pushed onto the ready queue (after its next suspension).
func (f *Fiber) SetPriority(p int) { f.fcb.priority.Store(int32(p)) }

// Yield transitions self from RUNNING back to READY, re-enqueues it,
// and returns control to the scheduler, giving other ready fibers a
// chance to run before self is resumed again.
func (f *Fiber) Yield() { f.fcb.scheduler.yield(f.fcb) }

// Sleep parks self for at least d before it becomes READY again. It
// returns earlier only when an interruption request is pending (see
// Interrupt); the request is left pending.
func (f *Fiber) Sleep(d time.Duration) {
	f.fcb.scheduler.sleepUntil(f.fcb, time.Now().Add(d))
}

// SleepUntil parks self until at least the given time, or until an
// interruption request is pending, as Sleep does.
func (f *Fiber) SleepUntil(t time.Time) {
	f.fcb.scheduler.sleepUntil(f.fcb, t)
}

// Joinable reports whether neither Join nor Detach has yet completed
// successfully for this fiber. A fiber interrupted mid-Join remains
// joinable: the join attempt did not complete, so a later Join (or
// Detach) is still valid, matching the canonical join/interrupt race
// this runtime is built to support.
func (f *Fiber) Joinable() bool {
	return !f.fcb.detached.Load() && !f.fcb.joined.Load()
}

// Join blocks caller until f terminates, then returns. If f's function
// terminated abnormally, Join returns a *FiberError wrapping the
// captured cause instead of nil. If caller is interrupted while
// waiting, Join returns ErrInterrupted and f remains joinable so a
// later Join attempt can still observe its outcome.
//
// Join is an invalid operation (returns *InvalidOperationError)
// when called on an already joined-or-detached fiber, or when f and
// caller are the same fiber.
func (f *Fiber) Join(caller *Fiber) error {
	if f.fcb == caller.fcb {
		return &InvalidOperationError{Op: "Join", Message: "a fiber cannot join itself"}
	}

	f.fcb.joinCallMu.Lock()
	defer f.fcb.joinCallMu.Unlock()

	if f.fcb.detached.Load() || f.fcb.joined.Load() {
		return &InvalidOperationError{Op: "Join", Message: "fiber is not joinable"}
	}

	if elem, ok := f.fcb.join(caller.fcb); ok {
		for {
			caller.fcb.scheduler.wait(caller.fcb)
			if caller.fcb.interruptionPoint() {
				f.fcb.removeJoiner(elem)
				return ErrInterrupted
			}
			if f.fcb.state.Load() == stateTerminated {
				break
			}
		}
	}

	f.fcb.joined.Store(true)
	if cause, ok := f.fcb.takeException(); ok {
		return &FiberError{FiberID: f.fcb.id, Cause: cause}
	}
	return nil
}

// WaitTerminated blocks the calling OS thread/goroutine directly
// (unlike Join, it does not go through the cooperative suspension
// machinery, so it is safe to call concurrently from plain goroutines
// that are not themselves fibers scheduled on f's Scheduler) until f
// terminates, then marks it joined if nothing already has. Used by
// FiberGroup.Wait to aggregate a cohort from outside any fiber.
func (f *Fiber) WaitTerminated() error {
	<-f.fcb.done
	f.fcb.joinCallMu.Lock()
	if !f.fcb.joined.Load() && !f.fcb.detached.Load() {
		f.fcb.joined.Store(true)
	}
	f.fcb.joinCallMu.Unlock()
	if cause, ok := f.fcb.takeException(); ok {
		return &FiberError{FiberID: f.fcb.id, Cause: cause}
	}
	return nil
}

// Detach marks f as no longer joinable without waiting for it,
// allowing it to run to completion independently. Its result and any
// captured exception are discarded when it terminates.
func (f *Fiber) Detach() error {
	f.fcb.joinCallMu.Lock()
	defer f.fcb.joinCallMu.Unlock()
	if f.fcb.detached.Load() || f.fcb.joined.Load() {
		return &InvalidOperationError{Op: "Detach", Message: "fiber is not joinable"}
	}
	f.fcb.detached.Store(true)
	return nil
}

// finalizeFiber backs the destructor-aborts-on-still-joinable contract
// from the original implementation (`if (joinable()) std::terminate();`).
// Go has no deterministic destructors, so this is installed via
// runtime.SetFinalizer at Spawn time: a panic raised from a finalizer
// goroutine crashes the process, the closest Go analog to std::terminate.
func finalizeFiber(f *Fiber) {
	if f.Joinable() {
		panic("fiber: fiber garbage collected while still joinable (missing Join or Detach)")
	}
}
