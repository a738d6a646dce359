package fiber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCond_WaitNotify covers spec.md §8 scenario 3: fiber W waits on a
// predicate under m; main sets the predicate under m and notifies; W
// returns holding m with the predicate satisfied.
func TestCond_WaitNotify(t *testing.T) {
	sched := NewScheduler()
	m := NewMutex()
	cond := NewCond()
	main := sched.MainFiber()

	data := 0
	var waitErr error
	_, err := sched.Spawn(func(self *Fiber) {
		require.NoError(t, m.Lock(self))
		waitErr = cond.WaitPredicate(self, m, func() bool { return data == 42 })
		require.NoError(t, m.Unlock(self))
	})
	require.NoError(t, err)

	sched.Run()
	require.Equal(t, 1, cond.waiters.Len())

	require.NoError(t, m.Lock(main))
	data = 42
	require.NoError(t, m.Unlock(main))
	cond.Notify()

	sched.Run()

	require.NoError(t, waitErr)
	require.Equal(t, 0, cond.waiters.Len())
}

// TestCond_InterruptRemovesFromWaitQueue covers spec.md §8 scenario 4:
// a fiber interrupted mid Cond.Wait must throw ErrInterrupted and leave
// the condition's wait queue empty, so a later Notify does not observe
// a stray, already-abandoned waiter.
func TestCond_InterruptRemovesFromWaitQueue(t *testing.T) {
	sched := NewScheduler()
	m := NewMutex()
	cond := NewCond()

	var waitErr error
	var waiter *Fiber
	waiter, err := sched.Spawn(func(self *Fiber) {
		require.NoError(t, m.Lock(self))
		waitErr = cond.Wait(self, m)
		require.NoError(t, m.Unlock(self))
	})
	require.NoError(t, err)

	sched.Run()
	require.Equal(t, 1, cond.waiters.Len())

	waiter.Interrupt()
	sched.Run()

	require.True(t, errors.Is(waitErr, ErrInterrupted))
	require.Equal(t, 0, cond.waiters.Len())

	// A stray entry would make this spuriously wake nothing - or worse,
	// a destroyed waiter - so this must be a clean no-op.
	cond.Notify()
}

// TestCond_NotifyAllWakesOnlyCurrentWaiters covers spec.md §8 scenario
// on notify_all: only fibers waiting at the time of the call wake; a
// fiber that begins waiting afterward is unaffected by it.
func TestCond_NotifyAllWakesOnlyCurrentWaiters(t *testing.T) {
	sched := NewScheduler()
	m := NewMutex()
	cond := NewCond()

	var woke []string
	for _, name := range []string{"a", "b"} {
		name := name
		_, err := sched.Spawn(func(self *Fiber) {
			require.NoError(t, m.Lock(self))
			require.NoError(t, cond.Wait(self, m))
			woke = append(woke, name)
			require.NoError(t, m.Unlock(self))
		})
		require.NoError(t, err)
	}

	sched.Run()
	require.Equal(t, 2, cond.waiters.Len())

	cond.NotifyAll()

	// This fiber only starts waiting after NotifyAll has returned.
	_, err := sched.Spawn(func(self *Fiber) {
		require.NoError(t, m.Lock(self))
		require.NoError(t, cond.Wait(self, m))
		woke = append(woke, "late")
		require.NoError(t, m.Unlock(self))
	})
	require.NoError(t, err)
	sched.Run()

	require.ElementsMatch(t, []string{"a", "b"}, woke)
	require.Equal(t, 1, cond.waiters.Len())

	cond.Notify()
	sched.Run()

	require.ElementsMatch(t, []string{"a", "b", "late"}, woke)
	require.Equal(t, 0, cond.waiters.Len())
}
