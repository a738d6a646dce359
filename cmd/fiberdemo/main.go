// Command fiberdemo exercises every suspension point of the fiber
// runtime end to end: priority-ordered scheduling, mutex handoff, a
// condition-variable producer/consumer, a cross-goroutine wake, and an
// interrupted join.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	fb "github.com/aizaibc/fiber"
	"github.com/joeycumines/logiface"
)

func main() {
	verbose := flag.Bool("v", false, "verbose mode - log scheduler/fiber events")
	scenario := flag.String("scenario", "all", "scenario to run: priority, mutex, cond, wake, join, all")
	flag.Parse()

	if *scenario == "" {
		fmt.Println("Usage: fiberdemo [-v] [-scenario priority|mutex|cond|wake|join|all]")
		fmt.Println()
		fmt.Println("A demonstration of the fiber cooperative-coroutine runtime")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -v                 verbose mode (structured event log)")
		fmt.Println("  -scenario name     which demonstration to run (default all)")
		os.Exit(1)
	}

	var opts []fb.SchedulerOption
	if *verbose {
		opts = append(opts, fb.WithLogger(fb.NewJSONLogger(os.Stdout, logiface.LevelDebug)))
	}
	sched := fb.NewScheduler(opts...)
	go sched.RunForever()
	defer sched.Close()

	run := func(name string, fn func(*fb.Scheduler)) {
		if *scenario != "all" && *scenario != name {
			return
		}
		fmt.Printf("=== %s ===\n", name)
		fn(sched)
	}

	run("priority", demoPriority)
	run("mutex", demoMutex)
	run("cond", demoCond)
	run("wake", demoWake)
	run("join", demoJoin)
}

func demoPriority(sched *fb.Scheduler) {
	var order []string
	group := fb.NewFiberGroup()
	group.Spawn(sched, func(self *fb.Fiber) { order = append(order, "low") })
	high, _ := sched.SpawnWithAttributes(fb.Attributes{Priority: 10}, func(self *fb.Fiber) {
		order = append(order, "high")
	})
	group.Add(high)
	group.Wait()
	fmt.Println("execution order:", order)
}

func demoMutex(sched *fb.Scheduler) {
	m := fb.NewMutex()
	var trace []string
	const n = 3
	group := fb.NewFiberGroup()
	for i := 0; i < n; i++ {
		i := i
		group.Spawn(sched, func(self *fb.Fiber) {
			if err := m.Lock(self); err != nil {
				return
			}
			trace = append(trace, fmt.Sprintf("worker-%d", i))
			self.Yield()
			_ = m.Unlock(self)
		})
	}
	group.Wait()
	fmt.Println("handoff order:", trace)
}

func demoCond(sched *fb.Scheduler) {
	m := fb.NewMutex()
	cond := fb.NewCond()
	queue := make([]int, 0, 4)
	const items = 4

	group := fb.NewFiberGroup()

	group.Spawn(sched, func(self *fb.Fiber) {
		for i := 0; i < items; i++ {
			_ = m.Lock(self)
			queue = append(queue, i)
			_ = m.Unlock(self)
			cond.Notify()
			self.Yield()
		}
	})

	group.Spawn(sched, func(self *fb.Fiber) {
		received := 0
		_ = m.Lock(self)
		for received < items {
			if err := cond.WaitPredicate(self, m, func() bool { return len(queue) > received }); err != nil {
				break
			}
			received = len(queue)
		}
		_ = m.Unlock(self)
		fmt.Println("consumer saw:", queue)
	})

	group.Wait()
}

func demoWake(sched *fb.Scheduler) {
	fib, _ := sched.Spawn(func(self *fb.Fiber) {
		self.Sleep(20 * time.Millisecond)
		fmt.Println("woke up from timed sleep")
	})
	fib.WaitTerminated()
}

func demoJoin(sched *fb.Scheduler) {
	worker, _ := sched.Spawn(func(self *fb.Fiber) {
		self.Sleep(50 * time.Millisecond)
	})

	var joiner *fb.Fiber
	joiner, _ = sched.Spawn(func(self *fb.Fiber) {
		go func() {
			time.Sleep(5 * time.Millisecond)
			joiner.Interrupt()
		}()
		err := worker.Join(self)
		fmt.Println("join result:", err, "worker still joinable:", worker.Joinable())
	})

	joiner.WaitTerminated()
	worker.WaitTerminated()
}
