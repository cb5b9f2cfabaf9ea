// Package cache holds the resources an interpreter loads on its first pass
// over a program and reuses on every later pass.
//
// [Resources] is positional: the Nth model reference in program order owns
// the Nth model entry, the Nth animated translation owns the Nth curve
// entry. Two references to the same file therefore get two entries.
// [Memo] is a keyed LRU used when loads should be shared by path instead.
package cache

import (
	"github.com/gogpu/xscene/backend"
	"github.com/gogpu/xscene/curve"
	"github.com/gogpu/xscene/mesh"
	"github.com/gogpu/xscene/texture"
)

// ModelEntry is the cached state of one model reference.
type ModelEntry struct {
	// File is the filename as written in the program.
	File     string
	Geometry *mesh.Geometry

	Texture *texture.Texture
	// TextureFile is the texture filename as written in the program.
	TextureFile string

	Material backend.Material
	// HasMaterial is set once any color or shininess instruction touched
	// Material.
	HasMaterial bool
}

// CurveEntry is the cached state of one animated translation.
type CurveEntry struct {
	Spline  curve.Spline
	Aligner *curve.Aligner
}

// Resources is the positional resource cache. It is not safe for
// concurrent use; it belongs to a single interpreter state.
type Resources struct {
	models []*ModelEntry
	curves []*CurveEntry

	textures int
}

// NewResources returns an empty cache.
func NewResources() *Resources {
	return &Resources{}
}

// AddModel appends the entry for the next model reference and returns its
// index.
func (r *Resources) AddModel(e *ModelEntry) int {
	r.models = append(r.models, e)
	return len(r.models) - 1
}

// Model returns the entry of the i-th model reference.
func (r *Resources) Model(i int) (*ModelEntry, bool) {
	if i < 0 || i >= len(r.models) {
		return nil, false
	}
	return r.models[i], true
}

// AddCurve appends the entry for the next animated translation and returns
// its index.
func (r *Resources) AddCurve(e *CurveEntry) int {
	r.curves = append(r.curves, e)
	return len(r.curves) - 1
}

// Curve returns the entry of the i-th animated translation.
func (r *Resources) Curve(i int) (*CurveEntry, bool) {
	if i < 0 || i >= len(r.curves) {
		return nil, false
	}
	return r.curves[i], true
}

// NoteTexture counts a texture load.
func (r *Resources) NoteTexture() { r.textures++ }

// ResourceStats counts cached entries.
type ResourceStats struct {
	Models   int
	Textures int
	Curves   int
}

// Stats returns the number of cached models, textures and curves.
func (r *Resources) Stats() ResourceStats {
	return ResourceStats{Models: len(r.models), Textures: r.textures, Curves: len(r.curves)}
}
