package interp

import (
	"github.com/gogpu/xscene/cache"
	"github.com/gogpu/xscene/program"
)

// State is everything that persists between passes over one program: the
// resource cache, the light slots in use, the clock and the cold/warm
// flag. Create one State per program and never share it between
// goroutines or programs.
type State struct {
	warm      bool
	resources *cache.Resources
	lights    int
	clock     Clock
	frames    uint64
	camera    program.Camera

	// err poisons the state after a failed pass.
	err error
}

// NewState returns a cold state reading time from clock. A nil clock
// means a WallClock started now.
func NewState(clock Clock) *State {
	if clock == nil {
		clock = NewWallClock()
	}
	return &State{
		resources: cache.NewResources(),
		clock:     clock,
	}
}

// Warm reports whether a full pass has completed.
func (s *State) Warm() bool { return s.warm }

// Frames returns the number of completed passes.
func (s *State) Frames() uint64 { return s.frames }

// Lights returns the number of light slots configured.
func (s *State) Lights() int { return s.lights }

// Camera returns the camera of the last pass.
func (s *State) Camera() program.Camera { return s.camera }

// Clock returns the animation clock.
func (s *State) Clock() Clock { return s.clock }

// Resources returns the resource cache.
func (s *State) Resources() *cache.Resources { return s.resources }

// Err returns the error that poisoned the state, if any.
func (s *State) Err() error { return s.err }
