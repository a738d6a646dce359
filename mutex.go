package fiber

import (
	"container/list"
	"sync"
)

// Mutex is a fair, non-recursive mutual-exclusion lock for fibers.
// Unlike sync.Mutex, ownership transfers directly from the unlocking
// fiber to the longest-waiting one: Unlock hands the lock to the head
// of the FIFO wait queue rather than releasing it for any ready fiber
// to grab, so a contended Mutex never starves a waiter behind a string
// of barging newcomers.
type Mutex struct {
	mu      sync.Mutex
	owner   *fcb
	waiters *list.List // of *fcb
}

// NewMutex constructs an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{waiters: list.New()}
}

// Lock acquires m for the fiber represented by self, blocking (via the
// fiber's own suspension point, not the OS thread) until it is the
// owner. self is typically obtained from inside a spawned function or
// via Scheduler.MainFiber for non-fiber callers.
func (m *Mutex) Lock(self *Fiber) error {
	m.mu.Lock()
	if m.owner == nil {
		m.owner = self.fcb
		m.mu.Unlock()
		return nil
	}
	if m.owner == self.fcb {
		m.mu.Unlock()
		return &LockError{Op: "Lock", Err: errRecursiveLock}
	}
	elem := m.waiters.PushBack(self.fcb)
	m.mu.Unlock()

	self.fcb.scheduler.logger.mutexContended(self.fcb)
	for {
		self.fcb.scheduler.wait(self.fcb)

		// Unlock hands ownership over before waking self; any other
		// wake leaves self queued.
		m.mu.Lock()
		if m.owner == self.fcb {
			m.mu.Unlock()
			return nil
		}
		if self.fcb.interruptionPoint() {
			m.waiters.Remove(elem)
			m.mu.Unlock()
			return ErrInterrupted
		}
		m.mu.Unlock()
	}
}

// TryLock attempts to acquire m without blocking, reporting whether it
// succeeded.
func (m *Mutex) TryLock(self *Fiber) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner == nil {
		m.owner = self.fcb
		return true
	}
	return false
}

// Unlock releases m. If a fiber is waiting, ownership transfers
// directly to the longest-waiting one, which is woken; otherwise the
// mutex becomes free. Unlock by a non-owner is a LockError; unlocking
// an already-unlocked Mutex is the same LockError but wraps
// errDoubleUnlock instead of errNotOwner.
func (m *Mutex) Unlock(self *Fiber) error {
	m.mu.Lock()
	if m.owner != self.fcb {
		err := errNotOwner
		if m.owner == nil {
			err = errDoubleUnlock
		}
		m.mu.Unlock()
		return &LockError{Op: "Unlock", Err: err}
	}
	front := m.waiters.Front()
	if front == nil {
		m.owner = nil
		m.mu.Unlock()
		return nil
	}
	next := m.waiters.Remove(front).(*fcb)
	m.owner = next
	m.mu.Unlock()
	next.wake()
	return nil
}
