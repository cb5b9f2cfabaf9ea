package engine

import (
	"time"

	"github.com/gogpu/xscene/backend"
	"github.com/gogpu/xscene/compiler"
	"github.com/gogpu/xscene/interp"
	"github.com/gogpu/xscene/progstore"
)

// Option configures an Engine during creation.
//
// Example:
//
//	// Default backend, wall clock
//	e, err := engine.New("solar.xml")
//
//	// Recorded calls, deterministic time
//	e, err := engine.New("solar.xml",
//		engine.WithBackend(trace.New()),
//		engine.WithClock(func() interp.Clock { return interp.NewManualClock(0) }))
type Option func(*options)

type options struct {
	backend  backend.Backend
	store    *progstore.Store
	clock    func() interp.Clock
	interval time.Duration
	compile  []compiler.Option
	interp   []interp.Option
}

func defaultOptions() options {
	return options{
		clock: func() interp.Clock { return interp.NewWallClock() },
	}
}

// WithBackend sets the backend. The default is backend.Default().
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithStore reuses programs from s when the scene has not changed, and
// stores newly compiled ones.
func WithStore(s *progstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithClock sets the clock factory. Every load gets a fresh clock so
// animations restart with the scene.
func WithClock(fn func() interp.Clock) Option {
	return func(o *options) {
		if fn != nil {
			o.clock = fn
		}
	}
}

// WithFrameInterval sets the pause between frames in Run.
func WithFrameInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// WithCompilerOptions passes options to the compiler. The base directory
// is always the scene file's directory.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(o *options) {
		o.compile = append(o.compile, opts...)
	}
}

// WithInterpOptions passes options to the interpreter. The base directory
// is always the scene file's directory.
func WithInterpOptions(opts ...interp.Option) Option {
	return func(o *options) {
		o.interp = append(o.interp, opts...)
	}
}
