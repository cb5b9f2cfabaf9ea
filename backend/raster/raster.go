// Package raster provides a software backend that renders flat-shaded
// triangles into an RGBA image.
//
// It keeps its own model-view matrix stack and perspective projection,
// fills triangles with golang.org/x/image/vector and sorts each mesh's
// triangles back to front. There is no depth buffer across draws, so
// overlapping models paint in program order.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/vector"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/backend"
	"github.com/gogpu/xscene/mesh"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/texture"
)

// Default output size.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

func init() {
	backend.Register(backend.NameRaster, func() backend.Backend {
		return New(DefaultWidth, DefaultHeight)
	})
}

// Backend is the software renderer.
type Backend struct {
	width, height int
	maxLights     int

	img    *image.RGBA
	raster *vector.Rasterizer

	proj, view mgl32.Mat4
	current    mgl32.Mat4
	stack      []mgl32.Mat4

	material backend.Material
	texture  *texture.Texture
	lights   []program.Light

	background color.RGBA
	inFrame    bool
	underflow  bool

	draws     int
	triangles int
}

// New returns a backend rendering width x height frames.
func New(width, height int) *Backend {
	b := &Backend{maxLights: backend.DefaultMaxLights}
	b.SetSize(width, height)
	return b
}

// SetSize changes the frame size. It takes effect at the next Begin.
func (b *Backend) SetSize(width, height int) {
	b.width, b.height = max(width, 1), max(height, 1)
}

// SetMaxLights changes the number of light slots.
func (b *Backend) SetMaxLights(n int) { b.maxLights = max(n, 0) }

// SetBackground sets the clear color.
func (b *Backend) SetBackground(c color.RGBA) { b.background = c }

// Image returns the last rendered frame.
func (b *Backend) Image() *image.RGBA { return b.img }

// Stats returns the draw calls and triangles rasterized in the last frame.
func (b *Backend) Stats() (draws, triangles int) { return b.draws, b.triangles }

// ---------------------------------------------------------------------------
// Frame lifecycle
// ---------------------------------------------------------------------------

func (b *Backend) Begin(cam program.Camera) error {
	if cam.Near <= 0 || cam.Far <= cam.Near {
		return fmt.Errorf("raster: invalid clip planes near=%v far=%v", cam.Near, cam.Far)
	}
	if b.img == nil || b.img.Bounds().Dx() != b.width || b.img.Bounds().Dy() != b.height {
		b.img = image.NewRGBA(image.Rect(0, 0, b.width, b.height))
		b.raster = vector.NewRasterizer(b.width, b.height)
	}
	draw.Draw(b.img, b.img.Bounds(), image.NewUniform(b.background), image.Point{}, draw.Src)

	aspect := float32(b.width) / float32(b.height)
	b.proj = mgl32.Perspective(mgl32.DegToRad(cam.FOV), aspect, cam.Near, cam.Far)
	b.view = mgl32.LookAtV(cam.Position, cam.LookAt, cam.Up)
	b.current = mgl32.Ident4()
	b.stack = b.stack[:0]
	b.material = backend.DefaultMaterial()
	b.texture = nil
	b.inFrame = true
	b.underflow = false
	b.draws, b.triangles = 0, 0
	return nil
}

func (b *Backend) End() error {
	if !b.inFrame {
		return backend.ErrNotBegun
	}
	b.inFrame = false
	if b.underflow || len(b.stack) != 0 {
		return fmt.Errorf("raster: unbalanced matrix stack (%d left)", len(b.stack))
	}
	return nil
}

// WritePNG encodes the last frame as PNG.
func (b *Backend) WritePNG(w io.Writer) error {
	if b.img == nil {
		return backend.ErrNotBegun
	}
	return png.Encode(w, b.img)
}

// SavePNG writes the last frame to path.
func (b *Backend) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ---------------------------------------------------------------------------
// Matrix stack
// ---------------------------------------------------------------------------

func (b *Backend) PushMatrix() {
	b.stack = append(b.stack, b.current)
}

func (b *Backend) PopMatrix() {
	if len(b.stack) == 0 {
		b.underflow = true
		return
	}
	b.current = b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *Backend) Translate(v mgl32.Vec3) {
	b.current = b.current.Mul4(mgl32.Translate3D(v[0], v[1], v[2]))
}

func (b *Backend) Rotate(deg float32, axis mgl32.Vec3) {
	if axis.Len() == 0 {
		return
	}
	b.current = b.current.Mul4(mgl32.HomogRotate3D(mgl32.DegToRad(deg), axis.Normalize()))
}

func (b *Backend) Scale(v mgl32.Vec3) {
	b.current = b.current.Mul4(mgl32.Scale3D(v[0], v[1], v[2]))
}

func (b *Backend) MultMatrix(m mgl32.Mat4) {
	b.current = b.current.Mul4(m)
}

// Current returns the current model matrix.
func (b *Backend) Current() mgl32.Mat4 { return b.current }

// ---------------------------------------------------------------------------
// Lighting and materials
// ---------------------------------------------------------------------------

func (b *Backend) MaxLights() int { return b.maxLights }

func (b *Backend) SetLight(slot int, l program.Light) error {
	if slot < 0 || slot >= b.maxLights {
		return &xscene.CapacityError{Resource: "lights", Limit: b.maxLights}
	}
	for len(b.lights) <= slot {
		b.lights = append(b.lights, program.Light{})
	}
	b.lights[slot] = l
	return nil
}

func (b *Backend) ApplyMaterial(m backend.Material) { b.material = m }

func (b *Backend) BindTexture(t *texture.Texture) { b.texture = t }

// ---------------------------------------------------------------------------
// Drawing
// ---------------------------------------------------------------------------

type screenTri struct {
	pts   [3]mgl32.Vec2
	depth float32
	shade float32
}

func (b *Backend) Draw(g *mesh.Geometry) {
	b.draws++
	base := b.baseColor()
	b.texture = nil

	modelView := b.view.Mul4(b.current)
	mvp := b.proj.Mul4(modelView)

	tris := make([]screenTri, 0, g.Triangles())
	for i := 0; i+2 < len(g.Vertices); i += 3 {
		var (
			st  screenTri
			eye [3]mgl32.Vec3
			ok  = true
		)
		for k := range 3 {
			v := g.Vertices[i+k].Vec4(1)
			clip := mvp.Mul4x1(v)
			if clip[3] <= 0 {
				ok = false
				break
			}
			ndc := clip.Vec3().Mul(1 / clip[3])
			st.pts[k] = mgl32.Vec2{
				(ndc[0] + 1) * 0.5 * float32(b.width),
				(1 - ndc[1]) * 0.5 * float32(b.height),
			}
			st.depth += ndc[2] / 3
			eye[k] = modelView.Mul4x1(v).Vec3()
		}
		if !ok {
			continue
		}
		n := eye[1].Sub(eye[0]).Cross(eye[2].Sub(eye[0]))
		if n.Len() > 0 {
			st.shade = math32.Abs(n.Normalize()[2])
		}
		tris = append(tris, st)
	}

	sort.Slice(tris, func(i, j int) bool { return tris[i].depth > tris[j].depth })
	for _, st := range tris {
		b.fill(st, base)
	}
	b.triangles += len(tris)
	b.material = backend.DefaultMaterial()
}

// baseColor combines the material with the bound texture, if any.
func (b *Backend) baseColor() mgl32.Vec3 {
	diffuse := b.material.Diffuse
	if t := b.texture; t != nil && t.Image != nil {
		r := t.Image.Bounds()
		c := t.Image.RGBAAt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
		diffuse = mgl32.Vec3{
			diffuse[0] * float32(c.R) / 255,
			diffuse[1] * float32(c.G) / 255,
			diffuse[2] * float32(c.B) / 255,
		}
	}
	return diffuse
}

func (b *Backend) fill(st screenTri, diffuse mgl32.Vec3) {
	m := b.material
	lit := m.Emissive.Add(m.Ambient.Mul(0.2))
	if len(b.lights) == 0 {
		lit = lit.Add(diffuse)
	} else {
		lit = lit.Add(diffuse.Mul(0.3 + 0.7*st.shade))
	}

	c := color.RGBA{A: 255}
	c.R, c.G, c.B = channel(lit[0]), channel(lit[1]), channel(lit[2])

	z := b.raster
	z.Reset(b.width, b.height)
	z.MoveTo(st.pts[0][0], st.pts[0][1])
	z.LineTo(st.pts[1][0], st.pts[1][1])
	z.LineTo(st.pts[2][0], st.pts[2][1])
	z.ClosePath()
	z.Draw(b.img, b.img.Bounds(), image.NewUniform(c), image.Point{})
}

func channel(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
