// Package interp replays a compiled program against a backend.
//
// Each call to [Interpreter.Run] is one frame: a single pass over the
// program body in order. The first pass on a [State] is cold. It
// configures the lights, loads every model, texture and curve, and stores
// them in the state's positional cache. Later passes are warm and only
// read the cache: the Nth model reference in the body always draws the
// Nth cached model.
//
// A State belongs to one program. Running a different program on a warm
// state is detected at the first model whose file or texture does not
// match, or the first curve whose point count differs, and reported as a
// decode error. Colour and shininess values are not compared: a warm pass
// draws with the materials cached on the cold pass. A failed pass poisons the state; every later
// Run returns the same error.
package interp

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/backend"
	"github.com/gogpu/xscene/cache"
	"github.com/gogpu/xscene/curve"
	"github.com/gogpu/xscene/mesh"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/texture"
)

// Interpreter drives a backend. It holds no per-program state and may
// serve several States in turn, but not concurrently.
type Interpreter struct {
	b    backend.Backend
	opts options

	models   *cache.Memo[string, *mesh.Geometry]
	textures *cache.Memo[string, *texture.Texture]
}

// New returns an interpreter drawing on b.
func New(b backend.Backend, opts ...Option) *Interpreter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	in := &Interpreter{b: b, opts: o}
	if o.shared {
		in.models = cache.NewMemo[string, *mesh.Geometry](cache.DefaultCapacity)
		in.textures = cache.NewMemo[string, *texture.Texture](cache.DefaultCapacity)
	}
	return in
}

// Backend returns the backend the interpreter draws on.
func (in *Interpreter) Backend() backend.Backend { return in.b }

// Forget drops the loads shared through WithSharedLoads so the next cold
// pass reads files from disk again. It is a no-op without shared loads.
func (in *Interpreter) Forget() {
	if in.models == nil {
		return
	}
	ms, ts := in.models.Stats(), in.textures.Stats()
	xscene.Logger().Debug("shared loads dropped",
		"models", ms.Len, "model_hit_rate", ms.HitRate,
		"textures", ts.Len, "texture_hit_rate", ts.HitRate)
	in.models.Clear()
	in.textures.Clear()
}

// Run executes one pass of prog with st.
func (in *Interpreter) Run(prog *program.Program, st *State) error {
	if st.err != nil {
		return st.err
	}
	if err := in.run(prog, st); err != nil {
		st.err = err
		return err
	}
	st.frames++
	if !st.warm {
		st.warm = true
		s := st.resources.Stats()
		xscene.Logger().Debug("resources cached",
			"models", s.Models, "textures", s.Textures, "curves", s.Curves)
	}
	return nil
}

// pass is the cursor state of a single Run.
type pass struct {
	*Interpreter
	st      *State
	prog    *program.Program
	elapsed float32

	model   *cache.ModelEntry
	texture string // texture file seen for model in this pass
	models  int
	curves  int
}

func (in *Interpreter) run(prog *program.Program, st *State) error {
	if !st.warm {
		if err := prog.Validate(); err != nil {
			return err
		}
	}

	if err := in.b.Begin(prog.Camera); err != nil {
		return err
	}
	st.camera = prog.Camera

	if !st.warm {
		if err := in.lights(prog, st); err != nil {
			return err
		}
	}

	p := &pass{Interpreter: in, st: st, prog: prog, elapsed: st.clock.Elapsed()}
	for i, inst := range prog.Body {
		if err := p.exec(inst); err != nil {
			var de *xscene.DecodeError
			if errors.As(err, &de) && de.Offset < 0 {
				de.Offset = prog.Offset(i)
			}
			return err
		}
	}
	return in.b.End()
}

// lights configures one backend slot per header light, in order.
func (in *Interpreter) lights(prog *program.Program, st *State) error {
	limit := in.b.MaxLights()
	for i, l := range prog.Lights {
		if i >= limit {
			return &xscene.CapacityError{Resource: "lights", Limit: limit}
		}
		if err := in.b.SetLight(i, l); err != nil {
			return err
		}
		st.lights++
	}
	return nil
}

// mismatch reports a warm state replaying a program it was not built for.
// The offset is filled in by run.
func mismatch(format string, args ...any) error {
	return &xscene.DecodeError{Offset: -1, Err: fmt.Errorf("state does not match program: "+format, args...)}
}

func (p *pass) exec(inst program.Instruction) error {
	b := p.b
	switch in := inst.(type) {
	case program.BeginGroup:
		b.PushMatrix()
	case program.EndGroup:
		b.PopMatrix()
	case program.Translate:
		b.Translate(in.Offset)
	case program.Rotate:
		b.Rotate(in.Angle, in.Axis)
	case program.Scale:
		b.Scale(in.Factor)
	case program.ExtendedRotate:
		b.Rotate(curve.Angle(p.elapsed, in.Time), in.Axis)
	case program.ExtendedTranslate:
		return p.extendedTranslate(in)
	case program.BeginModel:
		return p.beginModel(in)
	case program.Texture:
		p.texture = in.File
		if p.st.warm {
			return nil
		}
		t, err := p.loadTexture(in.File)
		if err != nil {
			return err
		}
		p.model.Texture = t
		p.model.TextureFile = in.File
		p.st.resources.NoteTexture()
	case program.Color:
		if !p.st.warm {
			p.model.Material.Set(in.Channel, in.RGB)
			p.model.HasMaterial = true
		}
	case program.Shininess:
		if !p.st.warm {
			p.model.Material.Shininess = in.Value
			p.model.HasMaterial = true
		}
	case program.EndModel:
		m := p.model
		if p.st.warm {
			if err := p.checkTexture(); err != nil {
				return err
			}
		}
		if m.HasMaterial {
			b.ApplyMaterial(m.Material)
		}
		if m.Texture != nil {
			b.BindTexture(m.Texture)
		}
		b.Draw(m.Geometry)
		p.model = nil
	default:
		return &xscene.DecodeError{Offset: -1, Err: fmt.Errorf("unexpected %s in program body", inst.Opcode())}
	}
	return nil
}

func (p *pass) beginModel(in program.BeginModel) error {
	idx := p.models
	p.models++
	p.texture = ""

	if p.st.warm {
		e, ok := p.st.resources.Model(idx)
		if !ok {
			return mismatch("model %d was never loaded", idx)
		}
		if e.File != in.File {
			return mismatch("model %d is %q, cached %q", idx, in.File, e.File)
		}
		p.model = e
		return nil
	}

	g, err := p.loadModel(in.File)
	if err != nil {
		return err
	}
	e := &cache.ModelEntry{File: in.File, Geometry: g, Material: backend.DefaultMaterial()}
	p.st.resources.AddModel(e)
	p.model = e
	return nil
}

// checkTexture compares the last texture the current model named in this
// pass with the one cached for it.
func (p *pass) checkTexture() error {
	if cached := p.model.TextureFile; cached != p.texture {
		return mismatch("model %d texture is %q, cached %q", p.models-1, p.texture, cached)
	}
	return nil
}

func (p *pass) extendedTranslate(in program.ExtendedTranslate) error {
	idx := p.curves
	p.curves++

	var e *cache.CurveEntry
	if p.st.warm {
		var ok bool
		if e, ok = p.st.resources.Curve(idx); !ok {
			return mismatch("curve %d was never decoded", idx)
		}
		if len(e.Spline.Points) != len(in.Points) {
			return mismatch("curve %d has %d points, cached %d", idx, len(in.Points), len(e.Spline.Points))
		}
	} else {
		e = &cache.CurveEntry{Spline: curve.Spline{Points: append(in.Points[:0:0], in.Points...)}}
		if in.Align {
			e.Aligner = curve.NewAligner()
		}
		p.st.resources.AddCurve(e)
	}

	pos, deriv := e.Spline.At(curve.Param(p.elapsed, in.Time))
	p.b.Translate(pos)
	if e.Aligner != nil {
		if m, ok := e.Aligner.Orient(deriv); ok {
			p.b.MultMatrix(m)
		}
	}
	return nil
}

func (in *Interpreter) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(in.opts.baseDir, file)
}

func (in *Interpreter) loadModel(file string) (*mesh.Geometry, error) {
	path := in.resolve(file)
	load := func() (*mesh.Geometry, error) {
		xscene.Logger().Debug("loading model", "path", path)
		g, err := in.opts.loadModel(path)
		return g, asResource("load model", path, err)
	}
	if in.models != nil {
		return in.models.GetOrLoad(path, load)
	}
	return load()
}

func (in *Interpreter) loadTexture(file string) (*texture.Texture, error) {
	path := in.resolve(file)
	load := func() (*texture.Texture, error) {
		xscene.Logger().Debug("loading texture", "path", path)
		t, err := in.opts.loadTexture(path)
		return t, asResource("load texture", path, err)
	}
	if in.textures != nil {
		return in.textures.GetOrLoad(path, load)
	}
	return load()
}

// asResource classifies a loader failure as a resource error.
func asResource(op, path string, err error) error {
	if err == nil || errors.Is(err, xscene.ErrResource) {
		return err
	}
	return &xscene.ResourceError{Op: op, Path: path, Err: err}
}
