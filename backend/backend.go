package backend

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xscene/mesh"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/texture"
)

// DefaultMaxLights is the light count every fixed-function pipeline
// guarantees.
const DefaultMaxLights = 8

// ErrNotBegun is returned by End when no frame is in progress.
var ErrNotBegun = errors.New("backend: frame not begun")

// Backend is an immediate-mode renderer driven by the interpreter.
//
// A frame is bracketed by Begin and End. Between them the backend keeps a
// model-view matrix stack: PushMatrix/PopMatrix save and restore the
// current matrix, and the transform calls post-multiply it. Draw renders
// a mesh under the current matrix with the most recently applied material
// and bound texture.
//
// Backends are not safe for concurrent use. Backends are created via the
// registry using New(name) and registered via Register() in init().
type Backend interface {
	// Frame lifecycle

	// Begin starts a frame: it resets the matrix stack and loads the
	// viewing transform for cam.
	Begin(cam program.Camera) error

	// End finishes the frame. Unbalanced matrix pushes are an error.
	End() error

	// Matrix stack

	PushMatrix()
	PopMatrix()
	Translate(v mgl32.Vec3)
	// Rotate rotates by deg degrees about axis.
	Rotate(deg float32, axis mgl32.Vec3)
	Scale(v mgl32.Vec3)
	MultMatrix(m mgl32.Mat4)

	// Lighting and materials

	// MaxLights returns the number of light slots.
	MaxLights() int
	// SetLight configures slot in [0, MaxLights()).
	SetLight(slot int, l program.Light) error
	// ApplyMaterial sets the material for the next Draw only. Draws
	// without one use DefaultMaterial.
	ApplyMaterial(m Material)
	// BindTexture binds t for the next Draw only.
	BindTexture(t *texture.Texture)

	// Draw renders g under the current matrix.
	Draw(g *mesh.Geometry)
}

// Material is a fixed-function surface description. Colors are RGB in
// [0, 1].
type Material struct {
	Diffuse   mgl32.Vec3
	Ambient   mgl32.Vec3
	Specular  mgl32.Vec3
	Emissive  mgl32.Vec3
	Shininess float32
}

// DefaultMaterial returns the material a model has before any color
// instruction touches it.
func DefaultMaterial() Material {
	return Material{
		Diffuse: mgl32.Vec3{0.8, 0.8, 0.8},
		Ambient: mgl32.Vec3{0.2, 0.2, 0.2},
	}
}

// Set stores rgb in channel c.
func (m *Material) Set(c program.Channel, rgb mgl32.Vec3) {
	switch c {
	case program.Diffuse:
		m.Diffuse = rgb
	case program.Ambient:
		m.Ambient = rgb
	case program.Specular:
		m.Specular = rgb
	case program.Emissive:
		m.Emissive = rgb
	}
}
