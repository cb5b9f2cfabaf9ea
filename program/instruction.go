package program

import "github.com/go-gl/mathgl/mgl32"

// Instruction is a decoded program instruction. The concrete types in this
// file are the only implementations.
type Instruction interface {
	// Opcode returns the stream opcode of the instruction.
	Opcode() Opcode
}

// BeginGroup opens a transform scope.
type BeginGroup struct{}

// EndGroup closes the innermost transform scope.
type EndGroup struct{}

// Translate is a static translation.
type Translate struct {
	Offset mgl32.Vec3
}

// ExtendedTranslate moves along a closed Catmull-Rom curve through Points,
// completing one loop every Time seconds. With Align set the object is
// also oriented along the curve tangent.
type ExtendedTranslate struct {
	Time   float32
	Align  bool
	Points []mgl32.Vec3
}

// Rotate is a static rotation of Angle degrees about Axis.
type Rotate struct {
	Angle float32
	Axis  mgl32.Vec3
}

// ExtendedRotate spins about Axis, one full revolution every Time seconds.
type ExtendedRotate struct {
	Time float32
	Axis mgl32.Vec3
}

// Scale is a non-uniform scale.
type Scale struct {
	Factor mgl32.Vec3
}

// BeginModel starts a model reference. File is stored exactly as written
// in the scene.
type BeginModel struct {
	File string
}

// EndModel finishes the current model reference.
type EndModel struct{}

// Texture attaches an image file to the current model.
type Texture struct {
	File string
}

// Channel selects a material color.
type Channel uint8

// Material color channels, in opcode order.
const (
	Diffuse Channel = iota
	Ambient
	Specular
	Emissive
)

func (c Channel) String() string {
	return (OpDiffuse + Opcode(c)).String()
}

// Color sets one material channel of the current model. RGB components
// are normalized to [0, 1].
type Color struct {
	Channel Channel
	RGB     mgl32.Vec3
}

// Shininess sets the specular exponent of the current model.
type Shininess struct {
	Value float32
}

// LightKind selects the light variant.
type LightKind uint8

// Light kinds, in opcode order.
const (
	PointLight LightKind = iota
	DirectionalLight
	SpotLight
)

func (k LightKind) String() string {
	switch k {
	case PointLight:
		return "point"
	case DirectionalLight:
		return "directional"
	case SpotLight:
		return "spotlight"
	default:
		return "unknown"
	}
}

// Light is a light source declared in the program header. Point lights use
// Position, directional lights use Direction, spotlights use both plus
// Cutoff in degrees.
type Light struct {
	Kind      LightKind
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Cutoff    float32
}

func (BeginGroup) Opcode() Opcode        { return OpBeginGroup }
func (EndGroup) Opcode() Opcode          { return OpEndGroup }
func (Translate) Opcode() Opcode         { return OpTranslate }
func (ExtendedTranslate) Opcode() Opcode { return OpExtendedTranslate }
func (Rotate) Opcode() Opcode            { return OpRotate }
func (ExtendedRotate) Opcode() Opcode    { return OpExtendedRotate }
func (Scale) Opcode() Opcode             { return OpScale }
func (BeginModel) Opcode() Opcode        { return OpBeginModel }
func (EndModel) Opcode() Opcode          { return OpEndModel }
func (Texture) Opcode() Opcode           { return OpTexture }
func (c Color) Opcode() Opcode           { return OpDiffuse + Opcode(c.Channel) }
func (Shininess) Opcode() Opcode         { return OpShininess }
func (l Light) Opcode() Opcode           { return OpPoint + Opcode(l.Kind) }

// Camera is the fixed program header.
type Camera struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	FOV      float32 // vertical, degrees
	Near     float32
	Far      float32
}

// Header defaults applied when a scene omits them.
var (
	DefaultUp   = mgl32.Vec3{0, 1, 0}
	DefaultFOV  = float32(60)
	DefaultNear = float32(1)
	DefaultFar  = float32(1000)
)

// DefaultCamera returns a camera at the origin looking down -Z with the
// default up vector and projection.
func DefaultCamera() Camera {
	return Camera{
		LookAt: mgl32.Vec3{0, 0, -1},
		Up:     DefaultUp,
		FOV:    DefaultFOV,
		Near:   DefaultNear,
		Far:    DefaultFar,
	}
}

// cells returns the number of stream cells inst occupies, opcode included.
func cells(inst Instruction) int {
	switch in := inst.(type) {
	case BeginModel:
		return 2 + len(in.File)
	case Texture:
		return 2 + len(in.File)
	case ExtendedTranslate:
		return 4 + 3*len(in.Points)
	default:
		n, _ := inst.Opcode().Operands()
		return 1 + n
	}
}
