package fiber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFiber_InterruptedJoinRemovesJoiner guards against the join-list
// analog of spec.md §4.5's wait-queue removal requirement: a joiner
// interrupted mid Join must be spliced out of the target's joiner list
// before ErrInterrupted propagates, or the target's eventual
// releaseJoiners would spuriously wake the joiner out of an unrelated,
// later suspension.
func TestFiber_InterruptedJoinRemovesJoiner(t *testing.T) {
	sched := NewScheduler()
	go sched.RunForever()
	defer sched.Close()

	target, err := sched.Spawn(func(self *Fiber) {
		self.Sleep(50 * time.Millisecond)
	})
	require.NoError(t, err)

	var joinErr error
	joiner, err := sched.Spawn(func(self *Fiber) {
		joinErr = target.Join(self)
	})
	require.NoError(t, err)

	// Give the joiner a chance to register on target's joiner list
	// before interrupting it out of the join.
	time.Sleep(5 * time.Millisecond)
	joiner.Interrupt()

	require.NoError(t, joiner.WaitTerminated())
	require.ErrorIs(t, joinErr, ErrInterrupted)
	require.True(t, target.Joinable())
	require.Equal(t, 0, target.fcb.joiners.Len())

	require.NoError(t, target.WaitTerminated())
}
