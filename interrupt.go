package fiber

// Interrupt requests cooperative cancellation of f. If f is currently
// WAITING (parked in Mutex.Lock, Cond.Wait, or a sleep), it is woken
// immediately so the next interruption point observes the request; if
// f is READY or RUNNING, the request is simply recorded and observed
// the next time it reaches a suspension point. Interrupt is a no-op on
// a terminated fiber.
func (f *Fiber) Interrupt() {
	f.fcb.requestInterruption()
	f.fcb.scheduler.logger.interrupted(f.fcb)
}

// InterruptionPoint reports and clears a pending interruption request
// for self, unless interruption is currently disabled. Call this at
// any point a long-running fiber body wants to be cooperatively
// cancellable even without blocking on a sync primitive.
func InterruptionPoint(self *Fiber) bool {
	return self.fcb.interruptionPoint()
}

// DisableInterruption blocks delivery of interruption requests to self
// until the returned func is called, which restores the prior blocked
// state. Intended for narrow critical sections that must not observe
// ErrInterrupted partway through, mirroring a scoped
// this_fiber::disable_interruption guard.
func DisableInterruption(self *Fiber) (restore func()) {
	prevBlocked := self.fcb.interruptionBlocked()
	self.fcb.setFlag(flagInterruptionBlocked)
	return func() {
		if !prevBlocked {
			self.fcb.clearFlag(flagInterruptionBlocked)
		}
	}
}

// InterruptionRequested reports whether an interruption request is
// currently pending for self, without clearing it.
func InterruptionRequested(self *Fiber) bool {
	return self.fcb.interruptionRequested()
}
