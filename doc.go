// Package fiber implements a user-space, stackful-style cooperative
// coroutine runtime: a per-thread Scheduler multiplexing many Fiber
// handles over one goroutine each, with fair FIFO Mutex/Cond
// primitives, join-with-captured-exception semantics, and cooperative
// interruption.
//
// A fiber is not a goroutine in the scheduling sense: each fiber body
// runs on its own goroutine, but the fibers of one Scheduler run one
// at a time, handing control to and from whichever goroutine drives
// that Scheduler's Run/RunForever loop, and switching only at
// explicit suspension points (Yield, Sleep, Mutex.Lock, Cond.Wait,
// Fiber.Join). A fiber never migrates to a different Scheduler once
// first resumed.
package fiber
