package fiber

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// FiberGroup tracks a cohort of fibers spawned together and aggregates
// their outcome, replacing the busy-spin WaitAll pattern with
// golang.org/x/sync/errgroup: Wait blocks the calling OS
// thread/goroutine (not a cooperatively scheduled fiber) until every
// member has terminated and returns the first non-nil error among
// them, wrapping whatever exception each abnormally-terminated member
// captured.
type FiberGroup struct {
	mu      sync.Mutex
	members []*Fiber
}

// NewFiberGroup returns an empty FiberGroup.
func NewFiberGroup() *FiberGroup {
	return &FiberGroup{}
}

// Spawn spawns fn on sched, adds the result to the group, and returns
// its handle.
func (g *FiberGroup) Spawn(sched *Scheduler, fn func(*Fiber)) (*Fiber, error) {
	fib, err := sched.Spawn(fn)
	if err != nil {
		return nil, err
	}
	g.Add(fib)
	return fib, nil
}

// Add registers an already-spawned fiber with the group.
func (g *FiberGroup) Add(f *Fiber) {
	g.mu.Lock()
	g.members = append(g.members, f)
	g.mu.Unlock()
}

// Size returns the number of fibers currently tracked by the group.
func (g *FiberGroup) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Wait blocks until every member of the group has terminated, waiting
// on each concurrently via errgroup and returning the first error
// encountered across the cohort. This is meant to be called from
// outside any fiber scheduled on the members' Scheduler(s) - e.g. a
// program's main goroutine - since each wait genuinely blocks its
// goroutine rather than cooperatively suspending. A fiber that wants
// to wait on another fiber from within its own body should use
// Fiber.Join instead.
func (g *FiberGroup) Wait() error {
	g.mu.Lock()
	members := append([]*Fiber(nil), g.members...)
	g.mu.Unlock()

	var eg errgroup.Group
	for _, m := range members {
		m := m
		eg.Go(m.WaitTerminated)
	}
	return eg.Wait()
}
