// Package trace provides a backend that records every call it receives.
//
// The recorded calls render as short strings such as "push",
// "translate(1,0,0)" or "draw(cube.3d)", which makes interpreter output
// easy to assert on and to print for debugging.
package trace

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/backend"
	"github.com/gogpu/xscene/mesh"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/texture"
)

func init() {
	backend.Register(backend.NameTrace, func() backend.Backend { return New() })
}

// Call is one recorded backend call.
type Call struct {
	Method string
	Args   []float32
	// Name is the file of a drawn mesh or bound texture.
	Name string
}

// String formats the call as method(args) or method(name).
func (c Call) String() string {
	if len(c.Args) == 0 && c.Name == "" {
		return c.Method
	}
	parts := make([]string, 0, len(c.Args)+1)
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	for _, a := range c.Args {
		parts = append(parts, strconv.FormatFloat(float64(a), 'g', 6, 32))
	}
	return c.Method + "(" + strings.Join(parts, ",") + ")"
}

// Backend records calls. The zero value is not usable; call New.
type Backend struct {
	Calls []Call

	maxLights int
	depth     int
	minDepth  int
	inFrame   bool
}

// New returns a trace backend with backend.DefaultMaxLights light slots.
func New() *Backend {
	return NewWithLights(backend.DefaultMaxLights)
}

// NewWithLights returns a trace backend with n light slots.
func NewWithLights(n int) *Backend {
	return &Backend{maxLights: n}
}

func (b *Backend) record(method string, name string, args ...float32) {
	b.Calls = append(b.Calls, Call{Method: method, Name: name, Args: args})
}

func (b *Backend) Begin(cam program.Camera) error {
	b.depth, b.minDepth = 0, 0
	b.inFrame = true
	b.record("begin", "")
	return nil
}

func (b *Backend) End() error {
	b.record("end", "")
	if !b.inFrame {
		return backend.ErrNotBegun
	}
	b.inFrame = false
	if b.depth != 0 || b.minDepth < 0 {
		return fmt.Errorf("trace: unbalanced matrix stack (depth %d, min %d)", b.depth, b.minDepth)
	}
	return nil
}

func (b *Backend) PushMatrix() {
	b.depth++
	b.record("push", "")
}

func (b *Backend) PopMatrix() {
	b.depth--
	b.minDepth = min(b.minDepth, b.depth)
	b.record("pop", "")
}

func (b *Backend) Translate(v mgl32.Vec3) { b.record("translate", "", v[0], v[1], v[2]) }

func (b *Backend) Rotate(deg float32, axis mgl32.Vec3) {
	b.record("rotate", "", deg, axis[0], axis[1], axis[2])
}

func (b *Backend) Scale(v mgl32.Vec3) { b.record("scale", "", v[0], v[1], v[2]) }

func (b *Backend) MultMatrix(m mgl32.Mat4) { b.record("mult", "", m[:]...) }

func (b *Backend) MaxLights() int { return b.maxLights }

func (b *Backend) SetLight(slot int, l program.Light) error {
	if slot < 0 || slot >= b.maxLights {
		return &xscene.CapacityError{Resource: "lights", Limit: b.maxLights}
	}
	b.record("light", l.Kind.String(), float32(slot))
	return nil
}

func (b *Backend) ApplyMaterial(m backend.Material) {
	b.record("material", "",
		m.Diffuse[0], m.Diffuse[1], m.Diffuse[2],
		m.Ambient[0], m.Ambient[1], m.Ambient[2],
		m.Specular[0], m.Specular[1], m.Specular[2],
		m.Emissive[0], m.Emissive[1], m.Emissive[2],
		m.Shininess)
}

func (b *Backend) BindTexture(t *texture.Texture) { b.record("texture", t.Path) }

func (b *Backend) Draw(g *mesh.Geometry) { b.record("draw", g.Path) }

// Ops returns the string form of every recorded call.
func (b *Backend) Ops() []string {
	out := make([]string, len(b.Calls))
	for i, c := range b.Calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many calls of the given method were recorded.
func (b *Backend) Count(method string) int {
	n := 0
	for _, c := range b.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset drops all recorded calls.
func (b *Backend) Reset() { b.Calls = b.Calls[:0] }

// WriteTo writes one call per line.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range b.Calls {
		n, err := fmt.Fprintln(w, c)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
