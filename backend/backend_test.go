package backend

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xscene/mesh"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/texture"
)

// nopBackend satisfies Backend without doing anything.
type nopBackend struct{ name string }

func (nopBackend) Begin(program.Camera) error        { return nil }
func (nopBackend) End() error                        { return nil }
func (nopBackend) PushMatrix()                       {}
func (nopBackend) PopMatrix()                        {}
func (nopBackend) Translate(mgl32.Vec3)              {}
func (nopBackend) Rotate(float32, mgl32.Vec3)        {}
func (nopBackend) Scale(mgl32.Vec3)                  {}
func (nopBackend) MultMatrix(mgl32.Mat4)             {}
func (nopBackend) MaxLights() int                    { return DefaultMaxLights }
func (nopBackend) SetLight(int, program.Light) error { return nil }
func (nopBackend) ApplyMaterial(Material)            {}
func (nopBackend) BindTexture(*texture.Texture)      {}
func (nopBackend) Draw(*mesh.Geometry)               {}

// withRegistry runs fn against an empty registry and restores the
// previous one afterwards.
func withRegistry(t *testing.T, fn func()) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = make(map[string]Factory)
	registryMu.Unlock()

	defer func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	}()
	fn()
}

func TestRegistry(t *testing.T) {
	withRegistry(t, func() {
		if Default() != nil {
			t.Error("Default() on an empty registry should be nil")
		}

		Register("zeta", func() Backend { return nopBackend{"zeta"} })
		Register("alpha", func() Backend { return nopBackend{"alpha"} })

		if got := Names(); len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
			t.Errorf("Names() = %v", got)
		}
		if !IsRegistered("zeta") || IsRegistered("raster") {
			t.Error("IsRegistered mismatch")
		}

		b, err := New("zeta")
		if err != nil || b.(nopBackend).name != "zeta" {
			t.Errorf("New(zeta) = %v, %v", b, err)
		}

		_, err = New("vulkan")
		if err == nil || !strings.Contains(err.Error(), "forgotten import") {
			t.Errorf("New(vulkan) err = %v", err)
		}

		// No priority backend registered: alphabetical fallback.
		if d := Default(); d.(nopBackend).name != "alpha" {
			t.Errorf("Default() = %v, want alpha", d)
		}
		Register(NameTrace, func() Backend { return nopBackend{NameTrace} })
		if d := Default(); d.(nopBackend).name != NameTrace {
			t.Errorf("Default() = %v, want trace", d)
		}

		Unregister("zeta")
		if IsRegistered("zeta") {
			t.Error("Unregister did not remove zeta")
		}
	})
}

func TestRegisterPanics(t *testing.T) {
	withRegistry(t, func() {
		mustPanic := func(name string, fn func()) {
			t.Helper()
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", name)
				}
			}()
			fn()
		}

		mustPanic("nil factory", func() { Register("x", nil) })
		Register("x", func() Backend { return nopBackend{} })
		mustPanic("duplicate", func() { Register("x", func() Backend { return nopBackend{} }) })
	})
}

func TestMaterialSet(t *testing.T) {
	m := DefaultMaterial()
	if m.Diffuse != (mgl32.Vec3{0.8, 0.8, 0.8}) || m.Ambient != (mgl32.Vec3{0.2, 0.2, 0.2}) {
		t.Errorf("DefaultMaterial() = %+v", m)
	}

	red := mgl32.Vec3{1, 0, 0}
	tests := []struct {
		ch  program.Channel
		get func(Material) mgl32.Vec3
	}{
		{program.Diffuse, func(m Material) mgl32.Vec3 { return m.Diffuse }},
		{program.Ambient, func(m Material) mgl32.Vec3 { return m.Ambient }},
		{program.Specular, func(m Material) mgl32.Vec3 { return m.Specular }},
		{program.Emissive, func(m Material) mgl32.Vec3 { return m.Emissive }},
	}
	for _, tt := range tests {
		t.Run(tt.ch.String(), func(t *testing.T) {
			m := DefaultMaterial()
			m.Set(tt.ch, red)
			if tt.get(m) != red {
				t.Errorf("channel %s not set", tt.ch)
			}
		})
	}
}
