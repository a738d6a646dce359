package fiber

import (
	"container/list"
	"sync"
)

// notifyTarget is the minimal capability Cond needs from whatever is
// parked on it: something to mark ready. A real fiber's fcb already
// satisfies this via wake(); it is the same method used for
// cross-thread delivery, so a fiber and the scheduler's main context
// are notified identically from Cond's point of view.
type notifyTarget interface {
	wake()
}

// Cond is a condition variable usable from both spawned fibers and a
// Scheduler's main context, following the wait/notify control flow of
// the original implementation: install a notifiable, push it to a wait
// queue, release the external lock, suspend (or, for the main context,
// spin the scheduler) until woken, then reacquire the lock on every
// exit path, including an interrupted one.
type Cond struct {
	mu      sync.Mutex
	waiters *list.List // of notifyTarget
}

// NewCond constructs an empty Cond.
func NewCond() *Cond {
	return &Cond{waiters: list.New()}
}

func (c *Cond) push(t notifyTarget) *list.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters.PushBack(t)
}

func (c *Cond) remove(e *list.Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiters.Remove(e)
}

// Wait atomically unlocks m, suspends self until notified, and
// relocks m before returning - on every exit path, including an
// interrupted one, so a caller can always safely inspect shared state
// under m immediately after Wait returns. Returns ErrInterrupted if
// woken by interruption rather than Notify/NotifyAll; the caller
// should typically treat that as a reason to abandon its wait loop
// rather than recheck its predicate.
func (c *Cond) Wait(self *Fiber, m *Mutex) error {
	elem := c.push(self.fcb)
	if err := m.Unlock(self); err != nil {
		c.remove(elem)
		return err
	}

	self.fcb.scheduler.logger.condWait(self.fcb)
	self.fcb.scheduler.wait(self.fcb)

	interrupted := self.fcb.interruptionPoint()
	// Notify/NotifyAll have already unlinked elem (remove is then a
	// no-op); on any other wake this drops the stale entry.
	c.remove(elem)

	// Interruption is blocked while relocking so m is held on return.
	restore := DisableInterruption(self)
	err := m.Lock(self)
	restore()
	if err != nil {
		return err
	}
	if interrupted {
		return ErrInterrupted
	}
	return nil
}

// WaitPredicate loops on Wait until pred reports true, guarding against
// spurious wakeups the same way a plain while-loop around wait() does
// in the original implementation.
func (c *Cond) WaitPredicate(self *Fiber, m *Mutex, pred func() bool) error {
	for !pred() {
		if err := c.Wait(self, m); err != nil {
			return err
		}
	}
	return nil
}

// Notify wakes at most one waiting target, the longest-waiting one.
func (c *Cond) Notify() {
	c.mu.Lock()
	front := c.waiters.Front()
	var t notifyTarget
	if front != nil {
		t = c.waiters.Remove(front).(notifyTarget)
	}
	c.mu.Unlock()
	if t != nil {
		t.wake()
		c.logNotify(t, 1)
	}
}

// NotifyAll wakes every currently waiting target.
func (c *Cond) NotifyAll() {
	c.mu.Lock()
	var woken []notifyTarget
	for e := c.waiters.Front(); e != nil; e = c.waiters.Front() {
		woken = append(woken, c.waiters.Remove(e).(notifyTarget))
	}
	c.mu.Unlock()
	for _, t := range woken {
		t.wake()
	}
	if len(woken) > 0 {
		c.logNotify(woken[0], len(woken))
	}
}

// logNotify reports a notify through whichever fcb it just woke, since
// Cond has no scheduler of its own - a notifyTarget is always an *fcb
// in this port (see notifyTarget's doc comment), fiber or main alike.
func (c *Cond) logNotify(t notifyTarget, count int) {
	if f, ok := t.(*fcb); ok {
		f.scheduler.logger.condNotify(count)
	}
}
