package xscene

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record. Enabled is false, so disabled calls cost no
// attribute formatting on the per-frame path.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var silent = slog.New(discard{})

// logger is read by the engine's watch goroutine while the command may
// still be installing its handler.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(silent)
}

// SetLogger routes the log output of every xscene package to l. Nothing
// is logged until it is called; nil silences output again.
//
// What is logged, by level:
//   - Debug: every emitted instruction, model and texture loads on the
//     cold pass, the resource counts once a state turns warm, file events
//     seen by the watcher
//   - Info: compiled scenes, programs reused from the store, reloads,
//     the active generator
//   - Warn: generator directives without an active generator, program
//     store failures, watcher errors
//   - Error: a reload that failed while the previous program kept running
//
// The xscene command installs a text handler on stderr at the configured
// level:
//
//	xscene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	logger.Store(l)
}

// Logger returns the logger installed by SetLogger.
func Logger() *slog.Logger {
	return logger.Load()
}
