package fiber

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_SpawnAndRun(t *testing.T) {
	sched := NewScheduler()
	var ran bool
	_, err := sched.Spawn(func(self *Fiber) {
		ran = true
	})
	require.NoError(t, err)
	sched.Run()
	require.True(t, ran)
}

func TestScheduler_PriorityOrdering(t *testing.T) {
	sched := NewScheduler()
	var order []string
	sched.SpawnWithAttributes(Attributes{Priority: 1}, func(self *Fiber) {
		order = append(order, "low")
	})
	sched.SpawnWithAttributes(Attributes{Priority: 10}, func(self *Fiber) {
		order = append(order, "high")
	})
	sched.Run()
	require.Equal(t, []string{"high", "low"}, order)
}

func TestScheduler_FIFOWithinPriority(t *testing.T) {
	sched := NewScheduler()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		sched.Spawn(func(self *Fiber) {
			order = append(order, i)
		})
	}
	sched.Run()
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestScheduler_Yield(t *testing.T) {
	sched := NewScheduler()
	var trace []string
	sched.Spawn(func(self *Fiber) {
		trace = append(trace, "a1")
		self.Yield()
		trace = append(trace, "a2")
	})
	sched.Spawn(func(self *Fiber) {
		trace = append(trace, "b1")
	})
	sched.Run()
	require.Equal(t, []string{"a1", "b1", "a2"}, trace)
}

func TestScheduler_CapturedPanicSurfacesAtJoin(t *testing.T) {
	sched := NewScheduler()
	boom := errors.New("boom")
	worker, err := sched.Spawn(func(self *Fiber) {
		panic(boom)
	})
	require.NoError(t, err)

	var joinErr error
	sched.Spawn(func(self *Fiber) {
		joinErr = worker.Join(self)
	})

	sched.Run()

	require.Error(t, joinErr)
	var fe *FiberError
	require.True(t, errors.As(joinErr, &fe))
	require.ErrorIs(t, fe, boom)
}

func TestScheduler_SleepOnMainContext(t *testing.T) {
	sched := NewScheduler()
	go sched.RunForever()
	defer sched.Close()

	start := time.Now()
	main := sched.MainFiber()
	main.Sleep(15 * time.Millisecond)
	require.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestScheduler_FiberSleepResumesViaTimer(t *testing.T) {
	sched := NewScheduler()
	go sched.RunForever()
	defer sched.Close()

	done := make(chan struct{})
	fib, err := sched.Spawn(func(self *Fiber) {
		self.Sleep(10 * time.Millisecond)
		close(done)
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fiber never resumed after sleep")
	}
	require.NoError(t, fib.WaitTerminated())
}
