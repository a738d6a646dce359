package fiber

// DefaultStackSize is used when Attributes.StackSize is zero.
const DefaultStackSize = 256 * 1024

// Attributes carries a fiber's construction-time properties, following
// the Boost.Fiber attributes contract: a requested stack size and a
// preserve-FPU flag. Go has no FPU register file to preserve and the
// stack is not a raw memory region the runtime switches onto: StackSize
// is passed to the Scheduler's StackAllocator and PreserveFPU is
// recorded as an FCB flag, and neither changes how a fiber runs.
type Attributes struct {
	// StackSize is the requested stack size in bytes. Zero means
	// DefaultStackSize.
	StackSize int

	// PreserveFPU mirrors the original contract's default of true; it
	// is recorded on the FCB but does not change how the
	// goroutine-based context switch behaves.
	PreserveFPU bool

	// Priority orders the ready queue: higher runs first, FIFO among
	// equal priorities. Zero is the default priority.
	Priority int
}

// DefaultAttributes returns the attributes used when a fiber is spawned
// without an explicit Attributes value.
func DefaultAttributes() Attributes {
	return Attributes{
		StackSize:   DefaultStackSize,
		PreserveFPU: true,
	}
}

func (a Attributes) normalized() Attributes {
	if a.StackSize <= 0 {
		a.StackSize = DefaultStackSize
	}
	return a
}
