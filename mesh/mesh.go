// Package mesh reads and writes the .3d vertex files produced by the
// generator and referenced by model instructions.
//
// A .3d file is a little-endian uint32 vertex count followed by that many
// (x, y, z) float32 triples. Vertices form an unindexed triangle list, so
// the count is a multiple of three.
package mesh

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xscene"
)

// vertexStride is the byte size of one vertex in the file and in the
// vertex buffer.
const vertexStride = 12

// maxVertices bounds the declared count before anything is allocated.
const maxVertices = 1 << 26

var (
	errTruncated = errors.New("file shorter than its vertex count")
	errNotTris   = errors.New("vertex count is not a multiple of 3")
	errTooLarge  = errors.New("vertex count too large")
)

// Geometry is a loaded triangle list.
type Geometry struct {
	// Path is the file the geometry was loaded from, empty for
	// in-memory geometry.
	Path     string
	Vertices []mgl32.Vec3
}

// Triangles returns the number of triangles.
func (g *Geometry) Triangles() int { return len(g.Vertices) / 3 }

// Layout describes the vertex buffer a GPU backend would upload the
// vertices into.
func (g *Geometry) Layout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}
}

// Topology is always a triangle list.
func (g *Geometry) Topology() gputypes.PrimitiveTopology {
	return gputypes.PrimitiveTopologyTriangleList
}

// Bounds returns the axis-aligned bounding box. Empty geometry has zero
// bounds.
func (g *Geometry) Bounds() (lo, hi mgl32.Vec3) {
	if len(g.Vertices) == 0 {
		return
	}
	lo, hi = g.Vertices[0], g.Vertices[0]
	for _, v := range g.Vertices[1:] {
		for i := range 3 {
			lo[i] = min(lo[i], v[i])
			hi[i] = max(hi[i], v[i])
		}
	}
	return lo, hi
}

// Bytes returns the vertices packed as the vertex buffer contents.
func (g *Geometry) Bytes() []byte {
	buf := make([]byte, 0, vertexStride*len(g.Vertices))
	for _, v := range g.Vertices {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
		}
	}
	return buf
}

// Read decodes a .3d stream.
func Read(r io.Reader) (*Geometry, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("vertex count: %w", err)
	}
	if n%3 != 0 {
		return nil, errNotTris
	}
	if n > maxVertices {
		return nil, errTooLarge
	}

	raw := make([]float32, 3*int(n))
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errTruncated
		}
		return nil, err
	}

	g := &Geometry{Vertices: make([]mgl32.Vec3, n)}
	for i := range g.Vertices {
		g.Vertices[i] = mgl32.Vec3{raw[3*i], raw[3*i+1], raw[3*i+2]}
	}
	return g, nil
}

// Write encodes g as a .3d stream.
func Write(w io.Writer, g *Geometry) error {
	if len(g.Vertices)%3 != 0 {
		return errNotTris
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(g.Vertices))); err != nil {
		return err
	}
	if _, err := bw.Write(g.Bytes()); err != nil {
		return err
	}
	return bw.Flush()
}

// Load reads the .3d file at path. Failures are *xscene.ResourceError.
func Load(path string) (*Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &xscene.ResourceError{Op: "load model", Path: path, Err: err}
	}
	defer f.Close()

	g, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, &xscene.ResourceError{Op: "load model", Path: path, Err: err}
	}
	g.Path = path
	return g, nil
}

// Save writes g to path.
func Save(path string, g *Geometry) error {
	f, err := os.Create(path)
	if err != nil {
		return &xscene.ResourceError{Op: "save model", Path: path, Err: err}
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return &xscene.ResourceError{Op: "save model", Path: path, Err: err}
	}
	return f.Close()
}
