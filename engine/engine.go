// Package engine runs a scene file: it compiles the document, replays the
// program frame after frame and, in watch mode, recompiles it when the
// file changes on disk.
//
// Every (re)load builds a fresh interpreter state and drops shared loads,
// so resources are read from disk again and animations restart. A state is never carried over to a
// different program.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/backend"
	"github.com/gogpu/xscene/compiler"
	"github.com/gogpu/xscene/interp"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/progstore"
	"github.com/gogpu/xscene/tree"
)

// ErrNotLoaded is returned by Frame before a successful Load.
var ErrNotLoaded = errors.New("engine: no scene loaded")

// Engine owns one scene file and the state to replay it.
type Engine struct {
	path string
	opts options
	b    backend.Backend
	in   *interp.Interpreter

	mu     sync.Mutex
	prog   *program.Program
	state  *interp.State
	reused bool

	pending atomic.Bool
}

// New returns an engine for the scene at path. Nothing is read until Load
// or Run.
func New(path string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b := o.backend
	if b == nil {
		b = backend.Default()
		if b == nil {
			return nil, fmt.Errorf("engine: no backend registered")
		}
	}

	dir := filepath.Dir(path)
	iopts := append(append([]interp.Option(nil), o.interp...), interp.WithBaseDir(dir))
	return &Engine{
		path: path,
		opts: o,
		b:    b,
		in:   interp.New(b, iopts...),
	}, nil
}

// Backend returns the backend frames are drawn on.
func (e *Engine) Backend() backend.Backend { return e.b }

// Program returns the loaded program, nil before Load.
func (e *Engine) Program() *program.Program {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prog
}

// State returns the interpreter state of the loaded program.
func (e *Engine) State() *interp.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reused reports whether the loaded program came from the store.
func (e *Engine) Reused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reused
}

// Load compiles the scene and resets the interpreter state. On error the
// previously loaded program, if any, stays in place.
func (e *Engine) Load(ctx context.Context) error {
	prog, reused, err := e.compile(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.in.Forget()
	e.prog = prog
	e.state = interp.NewState(e.opts.clock())
	e.reused = reused
	e.mu.Unlock()
	return nil
}

func (e *Engine) compile(ctx context.Context) (*program.Program, bool, error) {
	store := e.opts.store
	if store == nil {
		prog, err := compiler.CompileFile(ctx, e.path, e.opts.compile...)
		return prog, false, err
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, false, &xscene.ResourceError{Op: "open scene", Path: e.path, Err: err}
	}
	dir := filepath.Dir(e.path)
	key := progstore.Key(data, dir)

	prog, ok, err := store.Get(key)
	switch {
	case err != nil:
		xscene.Logger().Warn("program store lookup failed", "file", e.path, "err", err)
	case ok:
		xscene.Logger().Info("program reused", "file", e.path, "key", key)
		return prog, true, nil
	}

	root, err := tree.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", e.path, err)
	}
	opts := append([]compiler.Option{compiler.WithBaseDir(dir)}, e.opts.compile...)
	prog, err = compiler.Compile(ctx, root, opts...)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", e.path, err)
	}
	if err := store.Put(key, prog); err != nil {
		xscene.Logger().Warn("program not stored", "file", e.path, "err", err)
	}
	return prog, false, nil
}

// Frame replays the loaded program once.
func (e *Engine) Frame() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prog == nil {
		return ErrNotLoaded
	}
	return e.in.Run(e.prog, e.state)
}

// Invalidate asks Run to reload the scene before its next frame.
func (e *Engine) Invalidate() { e.pending.Store(true) }

// ReloadPending reports whether a reload has been requested and not yet
// performed.
func (e *Engine) ReloadPending() bool { return e.pending.Load() }

// Run loads the scene if needed and runs frames frames, or until ctx is
// done when frames is 0. A requested reload happens between frames; if
// it fails the error is logged and the previous program keeps running.
func (e *Engine) Run(ctx context.Context, frames int) error {
	if e.Program() == nil {
		if err := e.Load(ctx); err != nil {
			return err
		}
	}

	var tick <-chan time.Time
	if e.opts.interval > 0 {
		t := time.NewTicker(e.opts.interval)
		defer t.Stop()
		tick = t.C
	}

	for i := 0; frames == 0 || i < frames; i++ {
		if err := ctx.Err(); err != nil {
			if frames == 0 {
				return nil
			}
			return err
		}
		if e.pending.Swap(false) {
			if err := e.Load(ctx); err != nil {
				xscene.Logger().Error("reload failed", "file", e.path, "err", err)
			} else {
				xscene.Logger().Info("scene reloaded", "file", e.path)
			}
		}
		if err := e.Frame(); err != nil {
			return err
		}

		if tick != nil && (frames == 0 || i+1 < frames) {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}
	return nil
}

// Watch requests a reload whenever the scene file is written, created or
// renamed over. It watches the containing directory so editors that
// replace the file are noticed. The watcher stops when ctx is done.
func (e *Engine) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("engine: watch: %w", err)
	}
	dir := filepath.Dir(e.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("engine: watch %s: %w", dir, err)
	}

	target := filepath.Clean(e.path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					xscene.Logger().Debug("scene changed", "file", ev.Name, "op", ev.Op.String())
					e.Invalidate()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				xscene.Logger().Warn("watch error", "err", err)
			}
		}
	}()
	return nil
}
