package fiber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMutex_FIFOHandoff covers spec.md §8 scenario 2: main holds m;
// F1 and F2 both request it while it is held; releasing m must hand
// ownership to F1 then F2, in request order - not to whichever fiber
// happens to be scheduled first after the mutex becomes free.
func TestMutex_FIFOHandoff(t *testing.T) {
	sched := NewScheduler()
	m := NewMutex()
	main := sched.MainFiber()

	require.NoError(t, m.Lock(main))

	var order []string
	_, err := sched.Spawn(func(self *Fiber) {
		require.NoError(t, m.Lock(self))
		order = append(order, "f1")
		require.NoError(t, m.Unlock(self))
	})
	require.NoError(t, err)
	_, err = sched.Spawn(func(self *Fiber) {
		require.NoError(t, m.Lock(self))
		order = append(order, "f2")
		require.NoError(t, m.Unlock(self))
	})
	require.NoError(t, err)

	// Drain the ready queue: both fibers run up to their contended
	// Lock and park WAITING behind main's hold.
	sched.Run()
	require.Equal(t, 0, len(order))

	require.NoError(t, m.Unlock(main))
	sched.Run()

	require.Equal(t, []string{"f1", "f2"}, order)
}

func TestMutex_TryLock(t *testing.T) {
	sched := NewScheduler()
	m := NewMutex()
	main := sched.MainFiber()

	require.True(t, m.TryLock(main))
	require.False(t, m.TryLock(main))
	require.NoError(t, m.Unlock(main))
}

func TestMutex_UnlockByNonOwnerIsLockError(t *testing.T) {
	sched := NewScheduler()
	m := NewMutex()
	main := sched.MainFiber()

	var unlockErr error
	_, err := sched.Spawn(func(self *Fiber) {
		unlockErr = m.Unlock(self)
	})
	require.NoError(t, err)

	require.NoError(t, m.Lock(main))
	sched.Run()

	var lockErr *LockError
	require.True(t, errors.As(unlockErr, &lockErr))
	require.ErrorIs(t, lockErr, errNotOwner)
}

func TestMutex_DoubleUnlockIsLockError(t *testing.T) {
	sched := NewScheduler()
	m := NewMutex()
	main := sched.MainFiber()

	require.NoError(t, m.Lock(main))
	require.NoError(t, m.Unlock(main))

	err := m.Unlock(main)
	var lockErr *LockError
	require.True(t, errors.As(err, &lockErr))
	require.ErrorIs(t, lockErr, errDoubleUnlock)
}

func TestMutex_RecursiveLockIsLockError(t *testing.T) {
	sched := NewScheduler()
	m := NewMutex()
	main := sched.MainFiber()

	require.NoError(t, m.Lock(main))
	err := m.Lock(main)

	var lockErr *LockError
	require.True(t, errors.As(err, &lockErr))
	require.ErrorIs(t, lockErr, errRecursiveLock)
}
