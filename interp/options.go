package interp

import (
	"github.com/gogpu/xscene/mesh"
	"github.com/gogpu/xscene/texture"
)

// Option configures an Interpreter.
//
// Example:
//
//	in := interp.New(b,
//		interp.WithBaseDir("scenes"),
//		interp.WithSharedLoads(true))
type Option func(*options)

// ModelLoader loads the mesh at path.
type ModelLoader func(path string) (*mesh.Geometry, error)

// TextureLoader loads the image at path.
type TextureLoader func(path string) (*texture.Texture, error)

type options struct {
	baseDir     string
	loadModel   ModelLoader
	loadTexture TextureLoader
	shared      bool
}

func defaultOptions() options {
	return options{
		baseDir:     ".",
		loadModel:   mesh.Load,
		loadTexture: texture.Load,
	}
}

// WithBaseDir sets the directory relative model and texture files resolve
// against. Use the scene file's directory so paths mean what they meant
// at compile time.
func WithBaseDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.baseDir = dir
		}
	}
}

// WithModelLoader replaces mesh.Load.
func WithModelLoader(fn ModelLoader) Option {
	return func(o *options) {
		if fn != nil {
			o.loadModel = fn
		}
	}
}

// WithTextureLoader replaces texture.Load.
func WithTextureLoader(fn TextureLoader) Option {
	return func(o *options) {
		if fn != nil {
			o.loadTexture = fn
		}
	}
}

// WithSharedLoads makes model references to the same resolved path share
// one load. By default every reference is loaded on its own.
//
// Only loads are shared. Each reference still owns its cache entry, so
// materials and textures stay per reference.
func WithSharedLoads(shared bool) Option {
	return func(o *options) {
		o.shared = shared
	}
}
