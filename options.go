package fiber

// schedulerConfig is the unexported target of SchedulerOption closures,
// following the stumpy.Option / loggerConfig functional-options shape.
type schedulerConfig struct {
	allocator StackAllocator
	logger    schedulerLogger
}

func defaultSchedulerConfig() schedulerConfig {
	return schedulerConfig{
		allocator: DefaultStackAllocator{},
		logger:    noopLogger{},
	}
}

// SchedulerOption configures a Scheduler at construction time.
type SchedulerOption func(*schedulerConfig)

// WithStackAllocator overrides the default StackAllocator.
func WithStackAllocator(a StackAllocator) SchedulerOption {
	return func(c *schedulerConfig) { c.allocator = a }
}

// WithLogger attaches a structured logger. See logging.go for the
// logiface/stumpy wiring behind Logger.
func WithLogger(l Logger) SchedulerOption {
	return func(c *schedulerConfig) { c.logger = &logifaceLogger{l: l} }
}
