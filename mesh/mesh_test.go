package mesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xscene"
)

func triangle() *Geometry {
	return &Geometry{Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, -2}}}
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, triangle()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() != 4+3*vertexStride {
		t.Fatalf("encoded size = %d, want %d", buf.Len(), 4+3*vertexStride)
	}
	if n := binary.LittleEndian.Uint32(buf.Bytes()); n != 3 {
		t.Errorf("vertex count = %d, want 3", n)
	}

	g, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(g.Vertices) != 3 || g.Vertices[2] != (mgl32.Vec3{0, 1, -2}) {
		t.Errorf("Vertices = %v", g.Vertices)
	}
	if g.Triangles() != 1 {
		t.Errorf("Triangles() = %d", g.Triangles())
	}
}

func TestReadErrors(t *testing.T) {
	count := func(n uint32, floats int) []byte {
		b := binary.LittleEndian.AppendUint32(nil, n)
		return append(b, make([]byte, 4*floats)...)
	}
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not triangles", count(4, 12), errNotTris},
		{"truncated", count(3, 8), errTruncated},
		{"no payload", count(3, 0), errTruncated},
		{"huge", count(3*(1<<25), 0), errTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Read(bytes.NewReader([]byte{1, 0})); err == nil {
		t.Error("short count should fail")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.3d")
	if err := Save(path, triangle()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Path != path {
		t.Errorf("Path = %q", g.Path)
	}

	if _, err := Load(filepath.Join(dir, "missing.3d")); !errors.Is(err, xscene.ErrResource) {
		t.Errorf("missing file err = %v, want ErrResource", err)
	}

	bad := filepath.Join(dir, "bad.3d")
	if err := os.WriteFile(bad, binary.LittleEndian.AppendUint32(nil, 6), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = Load(bad)
	if !errors.Is(err, xscene.ErrResource) || !errors.Is(err, errTruncated) {
		t.Errorf("truncated file err = %v", err)
	}
}

func TestBoundsAndLayout(t *testing.T) {
	g := triangle()
	lo, hi := g.Bounds()
	if lo != (mgl32.Vec3{0, 0, -2}) || hi != (mgl32.Vec3{1, 1, 0}) {
		t.Errorf("Bounds() = %v, %v", lo, hi)
	}

	l := g.Layout()
	if l.ArrayStride != vertexStride || len(l.Attributes) != 1 {
		t.Fatalf("Layout() = %+v", l)
	}
	if l.Attributes[0].Format != gputypes.VertexFormatFloat32x3 {
		t.Errorf("format = %v", l.Attributes[0].Format)
	}
	if g.Topology() != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("Topology() = %v", g.Topology())
	}
	if len(g.Bytes()) != int(l.ArrayStride)*len(g.Vertices) {
		t.Errorf("len(Bytes()) = %d", len(g.Bytes()))
	}

	var empty Geometry
	if lo, hi := empty.Bounds(); lo != (mgl32.Vec3{}) || hi != (mgl32.Vec3{}) {
		t.Error("empty bounds should be zero")
	}
}
