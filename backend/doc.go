// Package backend defines the immediate-mode renderer the scene
// interpreter drives, and a registry of named implementations.
//
// # Backend Registration
//
// Implementations register themselves from init(), following the
// database/sql driver pattern, so importing a backend package is enough
// to make it available:
//
//	import _ "github.com/gogpu/xscene/backend/raster"
//
// # Backend Selection
//
// Use New to request a backend by name, or Default to get the best one
// registered:
//
//	b, err := backend.New("raster")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Available Backends
//
//   - "raster": software wireframe renderer into an RGBA image (backend/raster)
//   - "trace": records every call, for tests and debugging (backend/trace)
package backend
