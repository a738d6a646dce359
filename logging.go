package fiber

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger type accepted by WithLogger: a
// logiface.Logger instantiated over stumpy's JSON event, matching the
// wiring shown by stumpy.L.New/WithStumpy across the pack.
type Logger = *logiface.Logger[*stumpy.Event]

// NewJSONLogger builds a Logger writing newline-delimited JSON to w at
// the given minimum level, following the stumpy.L.New(stumpy.L.WithStumpy(...))
// convention used throughout the joeycumines logging stack.
func NewJSONLogger(w io.Writer, level logiface.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithWriter(logiface.WriterFunc[*stumpy.Event](func(e *stumpy.Event) error {
			_, err := w.Write(append(e.Bytes(), '\n'))
			return err
		})),
		logiface.WithLevel[*stumpy.Event](level),
	)
}

// schedulerLogger is the internal, always-non-nil logging facade used
// by Scheduler and the synchronization primitives. It is purely
// observational: nothing here participates in correctness, matching
// the teacher's stance that logging is swappable and cross-cutting.
type schedulerLogger interface {
	spawned(f *fcb)
	resuming(f *fcb)
	resumeError(f *fcb, err error)
	terminated(f *fcb)
	parked(f *fcb, reason string)
	woken(f *fcb)
	interrupted(f *fcb)
	mutexContended(f *fcb)
	condWait(f *fcb)
	condNotify(count int)
}

type noopLogger struct{}

func (noopLogger) spawned(*fcb)             {}
func (noopLogger) resuming(*fcb)            {}
func (noopLogger) resumeError(*fcb, error)  {}
func (noopLogger) terminated(*fcb)          {}
func (noopLogger) parked(*fcb, string)      {}
func (noopLogger) woken(*fcb)               {}
func (noopLogger) interrupted(*fcb)         {}
func (noopLogger) mutexContended(*fcb)      {}
func (noopLogger) condWait(*fcb)            {}
func (noopLogger) condNotify(int)           {}

// logifaceLogger adapts a Logger into schedulerLogger, emitting one
// structured event per lifecycle transition.
type logifaceLogger struct {
	l Logger
}

func (g *logifaceLogger) spawned(f *fcb) {
	g.l.Info().Int64(`fiber_id`, f.id).Log(`fiber spawned`)
}

func (g *logifaceLogger) resuming(f *fcb) {
	g.l.Debug().Int64(`fiber_id`, f.id).Log(`fiber resumed`)
}

func (g *logifaceLogger) resumeError(f *fcb, err error) {
	g.l.Err().Int64(`fiber_id`, f.id).Err(err).Log(`resume failed`)
}

func (g *logifaceLogger) terminated(f *fcb) {
	ev := g.l.Info().Int64(`fiber_id`, f.id)
	if cause, ok := f.takeException(); ok {
		if err, ok := cause.(error); ok {
			ev = g.l.Err().Int64(`fiber_id`, f.id).Err(err)
		}
	}
	ev.Log(`fiber terminated`)
}

func (g *logifaceLogger) parked(f *fcb, reason string) {
	g.l.Debug().Int64(`fiber_id`, f.id).Str(`reason`, reason).Log(`fiber parked`)
}

func (g *logifaceLogger) woken(f *fcb) {
	g.l.Debug().Int64(`fiber_id`, f.id).Log(`fiber woken`)
}

func (g *logifaceLogger) interrupted(f *fcb) {
	g.l.Info().Int64(`fiber_id`, f.id).Log(`fiber interrupted`)
}

func (g *logifaceLogger) mutexContended(f *fcb) {
	g.l.Debug().Int64(`fiber_id`, f.id).Log(`mutex contended`)
}

func (g *logifaceLogger) condWait(f *fcb) {
	g.l.Debug().Int64(`fiber_id`, f.id).Log(`condition wait`)
}

func (g *logifaceLogger) condNotify(count int) {
	g.l.Debug().Int(`woken`, count).Log(`condition notify`)
}
